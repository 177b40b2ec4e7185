// Package apperr defines sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// Routines sync stage errors. Fetch, parse, and listing failures abort
	// a run before any calendar write; a create failure aborts the
	// remainder of the run but leaves prior creations in place.
	ErrDocumentFetch = errors.New("routines document fetch failed")
	ErrDocumentParse = errors.New("routines document parse failed")
	ErrExistingList  = errors.New("existing event listing failed")
	ErrCreateEvent   = errors.New("event creation failed")
)
