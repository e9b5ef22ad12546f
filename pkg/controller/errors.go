package controller

import "errors"

var (
	// ErrSuperseded is returned by a pick that finished after a newer pick
	// on the same field started. Its result was discarded.
	ErrSuperseded = errors.New("controller: pick superseded by a newer request")
	// ErrNoPicker is returned when a picker-backed editor has no picker.
	ErrNoPicker = errors.New("controller: no picker configured")
	// ErrFileTooLarge is returned when a picked file exceeds MaxFileSizeBytes.
	ErrFileTooLarge = errors.New("controller: file exceeds maximum size")
	// ErrFileType is returned when a picked file is not an accepted type.
	ErrFileType = errors.New("controller: file type not accepted")
)
