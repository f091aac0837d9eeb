package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yumyai/roaryviz/pkg/db"
	"github.com/yumyai/roaryviz/pkg/handler/request"
	"github.com/yumyai/roaryviz/pkg/middle"
	"github.com/yumyai/roaryviz/pkg/model"
	"github.com/yumyai/roaryviz/pkg/roary"
	"go.uber.org/zap"
)

var (
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrJobNotFound     = errors.New("job not found")
	ErrNoGeneTable     = errors.New("no gene table database configured")
	ErrNoMatrix        = errors.New("a gene_presence_absence file (.csv or .Rtab) is required")
)

// Error kinds, also used as metric labels.
const (
	KindValidation     = "validation"
	KindNotFound       = "not_found"
	KindFileProcessing = "file_processing"
	KindTooLarge       = "too_large"
	KindTimeout        = "timeout"
	KindInternal       = "internal"
)

// AppError is an error with the status and message shown to the user.
type AppError struct {
	Status  int
	Kind    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// toAppError decides status and user message. Unknown errors become a 500 with a
// generic message so internals are not leaked.
func toAppError(err error) *AppError {

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, ErrDatasetNotFound), errors.Is(err, ErrJobNotFound),
		errors.Is(err, ErrNoGeneTable), errors.Is(err, db.ErrNoUpload),
		errors.Is(err, model.ErrGeneNotFound), errors.Is(err, db.ErrClusterNotFound):
		return &AppError{Status: http.StatusNotFound, Kind: KindNotFound, Message: err.Error(), Err: err}

	case errors.As(err, &maxBytes), errors.Is(err, db.ErrTooLarge):
		return &AppError{Status: http.StatusRequestEntityTooLarge, Kind: KindTooLarge, Message: "Upload is too large", Err: err}

	case errors.Is(err, roary.ErrFormat), errors.Is(err, roary.ErrUnsupportedFile),
		errors.Is(err, ErrNoMatrix):
		return &AppError{Status: http.StatusBadRequest, Kind: KindFileProcessing, Message: err.Error(), Err: err}

	case errors.Is(err, model.ErrInvalidThresholds), errors.Is(err, model.ErrInvalidPermutations),
		errors.Is(err, model.ErrUnknownPattern), errors.Is(err, model.ErrEmptyMatrix),
		errors.Is(err, model.ErrInvalidMatrix), errors.Is(err, request.ErrInvalidParam):
		return &AppError{Status: http.StatusBadRequest, Kind: KindValidation, Message: err.Error(), Err: err}

	case errors.Is(err, context.DeadlineExceeded):
		return &AppError{Status: http.StatusGatewayTimeout, Kind: KindTimeout, Message: "Analysis took too long, try fewer permutations", Err: err}
	}

	return &AppError{Status: http.StatusInternalServerError, Kind: KindInternal, Message: "Internal server error", Err: err}
}

func (app *AppContext) report(r *http.Request, err error) *AppError {
	appErr := toAppError(err)
	app.Metrics.RecordError(appErr.Kind)

	log := middle.Logger(r.Context())
	fields := []zap.Field{
		zap.String("kind", appErr.Kind),
		zap.Int("status", appErr.Status),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	}
	if appErr.Status >= http.StatusInternalServerError {
		log.Error("Request failed", fields...)
	} else {
		log.Warn("Request rejected", fields...)
	}
	return appErr
}

// httpError writes err as plain text.
func (app *AppContext) httpError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := app.report(r, err)
	http.Error(w, appErr.Message, appErr.Status)
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	RequestID string `json:"request_id,omitempty"`
}

// jsonError writes err as an ErrorResponse.
func (app *AppContext) jsonError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := app.report(r, err)
	writeJSON(w, appErr.Status, ErrorResponse{
		Error:     appErr.Message,
		Kind:      appErr.Kind,
		RequestID: middle.RequestID(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
