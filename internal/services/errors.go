package services

import "errors"

// Report service errors
var (
	// ErrBusy is returned when every analysis slot is taken.
	ErrBusy = errors.New("analysis capacity exhausted")

	// ErrMissingDataset is returned when an upload has no content.
	ErrMissingDataset = errors.New("dataset missing")
)
