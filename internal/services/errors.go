package services

import "errors"

// Service errors
var (
	// Dataset errors
	ErrNoDataset      = errors.New("no dataset has been uploaded")
	ErrUploadTooLarge = errors.New("upload exceeds the size limit")

	// Analytics errors
	ErrUnknownField  = errors.New("unknown field")
	ErrUnknownMethod = errors.New("unknown forecast method")
	ErrInvalidInput  = errors.New("invalid input")
)
