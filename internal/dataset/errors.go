package dataset

import (
	"errors"
	"fmt"
)

// Common errors returned by the loader.
var (
	// ErrUnreachable indicates the resource could not be fetched.
	ErrUnreachable = errors.New("dataset unreachable")

	// ErrMalformed indicates the payload could not be parsed in its declared format.
	ErrMalformed = errors.New("malformed dataset")

	// ErrEmpty indicates the parsed table has no rows.
	ErrEmpty = errors.New("dataset is empty")

	// ErrSchema indicates a required column is missing.
	ErrSchema = errors.New("dataset schema mismatch")
)

// FetchError describes a failed fetch of a single source.
type FetchError struct {
	Source     string
	Location   string
	StatusCode int // HTTP status, 0 for local files and transport errors
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s (%s): HTTP %d: %v", e.Source, e.Location, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetching %s (%s): %v", e.Source, e.Location, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// SchemaError lists the columns a table was expected to carry but did not.
type SchemaError struct {
	Table   string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing required columns %v", e.Table, e.Missing)
}

func (e *SchemaError) Unwrap() error {
	return ErrSchema
}

// IsUnreachable returns true if the error indicates a fetch failure.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}

// IsSchemaError returns true if the error indicates missing required columns.
func IsSchemaError(err error) bool {
	if errors.Is(err, ErrSchema) {
		return true
	}
	var se *SchemaError
	return errors.As(err, &se)
}
