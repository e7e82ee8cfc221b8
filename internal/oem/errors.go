package oem

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by dataset queries.
var (
	// ErrEpochNotFound indicates that no state vector matched the
	// requested epoch identifier.
	ErrEpochNotFound = errors.New("epoch not found")

	// ErrEmptyDataset indicates a query that needs at least one state
	// vector was run against a dataset with none.
	ErrEmptyDataset = errors.New("dataset contains no state vectors")
)

// MalformedDatasetError reports a structurally or numerically invalid
// source document. Parsing is all-or-nothing: a dataset that produces
// this error yields no partial data.
type MalformedDatasetError struct {
	Record int    // zero-based state vector index, -1 for document-level problems
	Field  string // offending element name, empty for document-level problems
	Reason string
	Cause  error
}

func (e *MalformedDatasetError) Error() string {
	switch {
	case e.Record >= 0 && e.Field != "":
		return fmt.Sprintf("malformed ephemeris: state vector %d, field %s: %s", e.Record, e.Field, e.Reason)
	case e.Record >= 0:
		return fmt.Sprintf("malformed ephemeris: state vector %d: %s", e.Record, e.Reason)
	default:
		return fmt.Sprintf("malformed ephemeris: %s", e.Reason)
	}
}

func (e *MalformedDatasetError) Unwrap() error {
	return e.Cause
}

// InvalidQueryError reports pagination parameters that violate the
// query contract before any data is touched.
type InvalidQueryError struct {
	Param  string
	Value  int
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("invalid query: %s=%d: %s", e.Param, e.Value, e.Reason)
}

// IsMalformedDataset reports whether err is a MalformedDatasetError.
func IsMalformedDataset(err error) bool {
	var me *MalformedDatasetError
	return errors.As(err, &me)
}

// IsInvalidQuery reports whether err is an InvalidQueryError.
func IsInvalidQuery(err error) bool {
	var qe *InvalidQueryError
	return errors.As(err, &qe)
}
