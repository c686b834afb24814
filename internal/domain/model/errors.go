package model

import (
	"errors"
	"fmt"
)

// Errors returned by the pipeline. All of them are fatal for the call
// that produced them; there is no retry or fallback path.
var (
	// ErrNoPOIFound is returned when a proximity enrichment finds no
	// point of interest matching the filter inside the search box.
	ErrNoPOIFound = errors.New("no point of interest matched the filter in the search area")

	// ErrDegenerateFeature is returned when a numeric column cannot be
	// normalised because it has zero variance.
	ErrDegenerateFeature = errors.New("feature column has zero variance")

	// ErrUnknownCategory is returned when a prediction uses a category
	// that was not observed during training.
	ErrUnknownCategory = errors.New("category was not observed during training")

	// ErrNoTrainingData is returned when no price records fall inside
	// the training window.
	ErrNoTrainingData = errors.New("no price records matched the training window")
)

// ConnectionError reports an unreachable record store.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("record store unreachable: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// QueryError reports malformed filter arguments.
type QueryError struct {
	Reason string
}

func (e *QueryError) Error() string {
	return "invalid query: " + e.Reason
}

// SchemaError reports the first column that failed validation, the
// offending value and the constraint it violated.
type SchemaError struct {
	Column     string
	Value      interface{}
	Constraint string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("column %q: value %v violates constraint %q", e.Column, e.Value, e.Constraint)
}
