package dataprocessing

import (
	"errors"
	"fmt"
)

// Ingestion failure classes.
var (
	ErrDecode      = errors.New("spreadsheet could not be decoded")
	ErrNoDataFound = errors.New("no data found")
)

// IngestKind classifies an ingestion failure.
type IngestKind string

const (
	KindDecode IngestKind = "DECODE_ERROR"
	KindNoData IngestKind = "NO_DATA_FOUND"
)

// IngestError is the final failure of a parse. Neither kind is retryable.
type IngestError struct {
	Kind   IngestKind
	Source string
	Sheets int
	Cause  error
}

func (e *IngestError) Error() string {
	switch e.Kind {
	case KindDecode:
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", ErrDecode, e.Cause)
		}
		return ErrDecode.Error()
	default:
		return fmt.Sprintf("%s in %d sheet(s)", ErrNoDataFound, e.Sheets)
	}
}

// Unwrap exposes both the class sentinel and the underlying cause to errors.Is.
func (e *IngestError) Unwrap() []error {
	errs := []error{ErrNoDataFound}
	if e.Kind == KindDecode {
		errs[0] = ErrDecode
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

func decodeError(source string, cause error) *IngestError {
	return &IngestError{Kind: KindDecode, Source: source, Cause: cause}
}
