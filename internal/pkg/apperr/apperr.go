// Package apperr defines the error taxonomy shared by the store, the
// upstream clients and the ingestion pipeline. Callers match with errors.As.
package apperr

import "fmt"

// UpstreamError wraps a transport or decode failure while talking to the
// artwork search API. Batch-fatal: the ingestion never started.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream search api: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ExtractionError signals that the upstream response envelope did not carry
// the expected data.items array. Batch-fatal.
type ExtractionError struct {
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract search response: %s", e.Reason)
}

// PersistenceError wraps a store write or transaction failure. Item-fatal
// inside a batch, operation-fatal for direct CRUD.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// NotFoundError signals an update targeting a row that does not exist.
// Deletes never return it; they report zero rows affected instead.
type NotFoundError struct {
	ID int32
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("record %d not found", e.ID)
}
