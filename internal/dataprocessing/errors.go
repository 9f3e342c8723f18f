package dataprocessing

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDataset is returned when a dataset has a header but no data rows, or no header at all.
	ErrEmptyDataset = errors.New("dataset is empty")
	// ErrMissingColumn is returned when a required column is absent from the header.
	ErrMissingColumn = errors.New("required column is missing")
	// ErrInvalidValue is returned when a cell cannot be decoded or fails validation.
	ErrInvalidValue = errors.New("invalid value")
	// ErrDuplicateKey is returned when a key column repeats a value that must be unique.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrUnsupportedFormat is returned for file types other than CSV and XLSX.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// InputError pinpoints a problem in an uploaded dataset. Row is the 1-based
// data row (the header is row 0) and is 0 when the problem is not tied to a row.
type InputError struct {
	Dataset string
	Column  string
	Row     int
	Value   string
	Err     error
}

func (e *InputError) Error() string {
	msg := e.Dataset
	if e.Row > 0 {
		msg += fmt.Sprintf(": row %d", e.Row)
	}
	if e.Column != "" {
		msg += fmt.Sprintf(": column %q", e.Column)
	}
	msg += ": " + e.Err.Error()
	if e.Value != "" {
		msg += fmt.Sprintf(" (got %q)", e.Value)
	}
	return msg
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// Location reports where in the upload the error was found.
func (e *InputError) Location() (dataset, column string, row int) {
	return e.Dataset, e.Column, e.Row
}
