package model

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyMatrix         = errors.New("presence/absence matrix is empty")
	ErrInvalidMatrix       = errors.New("invalid presence/absence matrix")
	ErrInvalidThresholds   = errors.New("invalid thresholds")
	ErrInvalidPermutations = errors.New("invalid number of permutations")
	ErrUnknownPattern      = errors.New("unknown gene pattern")
	ErrGeneNotFound        = errors.New("gene not found")
)

// CellError reports a matrix cell that is neither 0 nor 1.
type CellError struct {
	Row   int
	Col   int
	Value uint8
}

func (e *CellError) Error() string {
	return fmt.Sprintf("cell (%d, %d) has value %d, expected 0 or 1", e.Row, e.Col, e.Value)
}

func (e *CellError) Unwrap() error {
	return ErrInvalidMatrix
}
