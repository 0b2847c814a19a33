// Package gctoo holds the in-memory model of an annotated GCT/GCTX
// matrix: a float matrix keyed by row and column ids, plus one metadata
// table per axis.
//
// A [Dataset] is validated whenever it is built or one of its components
// is replaced. Row ids must be unique and must match the row metadata in
// content and order. The same holds for columns. Metadata field names
// must be unique within each table.
package gctoo

import "errors"

// Error kinds shared by the readers and writers. Match them with errors.Is.
var (
	ErrNotFound                  = errors.New("not found")
	ErrWrongFormat               = errors.New("wrong format")
	ErrUnsupportedVersion        = errors.New("unsupported version")
	ErrMalformedDimensions       = errors.New("malformed dimensions")
	ErrUnconvertibleValue        = errors.New("unconvertible value")
	ErrAmbiguousSelector         = errors.New("ambiguous selector")
	ErrInconsistentSelectorTypes = errors.New("inconsistent selector types")
	ErrUnknownIdentifier         = errors.New("unknown identifier")
	ErrPositionOutOfRange        = errors.New("position out of range")
	ErrInvariantViolation        = errors.New("invariant violation")
	ErrIOFailure                 = errors.New("i/o failure")
)
