package sog

import (
	"errors"
	"fmt"

	"github.com/hupe1980/sog/resource"
	"github.com/hupe1980/sog/table"
)

var (
	// ErrNoSources is returned when Export is called without sources.
	ErrNoSources = errors.New("sog: no sources")

	// ErrNothingToExport is returned when the filter selects no rows.
	ErrNothingToExport = errors.New("sog: nothing to export")

	// ErrMissingColumn is matched by every *MissingColumnError.
	ErrMissingColumn = errors.New("sog: missing column")

	// ErrEncode is returned when a plane could not be encoded.
	ErrEncode = errors.New("sog: plane encoding failed")

	// ErrResourceUnavailable is returned when the compute resource cannot
	// take the job (memory budget exhausted).
	ErrResourceUnavailable = errors.New("sog: compute resource unavailable")
)

// MissingColumnError reports a required column absent from a source.
type MissingColumnError struct {
	Source int
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("sog: source %d: missing column %q", e.Source, e.Column)
}

// Is makes errors.Is(err, ErrMissingColumn) hold.
func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

// StageError records the export stage an error occurred in.
//
// The original underlying error can be accessed via errors.Unwrap.
type StageError struct {
	Stage Stage
	cause error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("sog: %s: %v", e.Stage, e.cause)
}

func (e *StageError) Unwrap() error { return e.cause }

func translateError(stage Stage, err error) error {
	if err == nil {
		return nil
	}

	var se *StageError
	if errors.As(err, &se) {
		return err
	}

	switch {
	case errors.Is(err, resource.ErrMemoryLimitExceeded):
		err = fmt.Errorf("%w: %w", ErrResourceUnavailable, err)
	case errors.Is(err, table.ErrUnknownColumn):
		err = fmt.Errorf("%w: %w", ErrMissingColumn, err)
	}

	return &StageError{Stage: stage, cause: err}
}
