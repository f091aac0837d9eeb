package handler

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/yumyai/roaryviz/pkg/db"
	"github.com/yumyai/roaryviz/pkg/middle"
	"github.com/yumyai/roaryviz/pkg/roary"
	"go.uber.org/zap"
)

// Multipart parts above this size are spooled to disk while parsing.
const multipartMemory = 32 << 20

// UploadHandler stores the posted Roary files as a new dataset and redirects to
// its page. A presence/absence table is required; summary statistics and a tree
// are optional.
func (app *AppContext) UploadHandler(w http.ResponseWriter, r *http.Request) {

	if r.ContentLength > app.Config.Upload.MaxSize {
		app.uploadFailed(w, r, fmt.Errorf("%w: request of %d bytes", db.ErrTooLarge, r.ContentLength))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, app.Config.Upload.MaxSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		app.uploadFailed(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		app.uploadFailed(w, r, fmt.Errorf("%w: no files were uploaded", ErrNoMatrix))
		return
	}

	id := uuid.NewString()
	ds, err := app.storeUpload(r, id, headers)
	if err != nil {
		if rmErr := app.Uploads.Remove(id); rmErr != nil {
			middle.Logger(r.Context()).Warn("Could not clean up upload", zap.String("dataset_id", id), zap.Error(rmErr))
		}
		app.uploadFailed(w, r, err)
		return
	}

	app.Datasets.Add(ds)
	middle.Logger(r.Context()).Info("Dataset uploaded",
		zap.String("dataset_id", ds.ID),
		zap.Int("genes", ds.Matrix.NumGenes()),
		zap.Int("genomes", ds.Matrix.NumGenomes()),
	)

	http.Redirect(w, r, "/dataset/"+ds.ID, http.StatusSeeOther)
}

func (app *AppContext) storeUpload(r *http.Request, id string, headers []*multipart.FileHeader) (*Dataset, error) {

	var matrices int
	ds := &Dataset{ID: id, Source: SourceUpload}

	for _, fh := range headers {
		if err := roary.ValidateExtension(fh.Filename); err != nil {
			return nil, err
		}

		path, err := app.saveFile(id, fh)
		if err != nil {
			return nil, err
		}

		kind := roary.DetectKind(fh.Filename)
		app.Metrics.ObserveFile(kind.String(), fh.Size)
		ds.Files = append(ds.Files, filepath.Base(path))

		if kind == roary.KindMatrix {
			if matrices++; matrices > 1 {
				return nil, &AppError{Status: http.StatusBadRequest, Kind: KindValidation,
					Message: "Upload a single gene_presence_absence file"}
			}
			ds.Name = fh.Filename
		}
	}

	matrixPath, err := app.Uploads.Find(id, roary.KindMatrix)
	if err != nil {
		return nil, err
	}
	if matrixPath == "" {
		return nil, ErrNoMatrix
	}
	summaryPath, err := app.Uploads.Find(id, roary.KindSummary)
	if err != nil {
		return nil, err
	}

	m, err := roary.ReadMatrixFile(matrixPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(matrixPath), err)
	}
	ds.Matrix = m

	if summaryPath != "" {
		rows, err := roary.ReadSummaryFile(summaryPath)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(summaryPath), err)
		}
		ds.Summary = rows
	}

	return ds, nil
}

func (app *AppContext) saveFile(id string, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	return app.Uploads.Save(id, fh.Filename, f, app.Config.Upload.MaxSize)
}

// uploadFailed shows the upload page again with the reason.
func (app *AppContext) uploadFailed(w http.ResponseWriter, r *http.Request, err error) {
	appErr := app.report(r, err)
	message := appErr.Message
	if appErr.Kind == KindTooLarge {
		message = fmt.Sprintf("Upload is larger than %d MB", app.Config.Upload.MaxSize>>20)
	}
	app.renderUploadPage(w, r, appErr.Status, message)
}
