// Package apperr defines the typed errors surfaced by the document lifecycle
// and its collaborators. Precondition violations get their own types so
// handlers can map them to 4xx responses with errors.As; collaborator
// failures are wrapped around one of the sentinel errors below so callers can
// classify them with errors.Is while keeping the original cause message.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel wrap targets for collaborator failures.
var (
	ErrBlob      = errors.New("blob store error")
	ErrIndex     = errors.New("vector index error")
	ErrParse     = errors.New("pdf parse error")
	ErrEmbedding = errors.New("embedding error")
)

// NotFoundError reports an unknown document id.
type NotFoundError struct {
	PDFID uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("pdf %d not found", e.PDFID)
}

// ConflictError reports a filename collision with a document that is past
// PENDING and must not be overwritten.
type ConflictError struct {
	Filename string
	Status   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("pdf with filename '%s' already exists with status %s", e.Filename, e.Status)
}

// InvalidStateError reports a transition attempted from the wrong status.
type InvalidStateError struct {
	PDFID uint
	Have  string
	Want  string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("pdf %d status is %s, expected %s", e.PDFID, e.Have, e.Want)
}

// AlreadyIndexedError reports a parse attempt on an INDEXED document.
type AlreadyIndexedError struct {
	PDFID uint
}

func (e *AlreadyIndexedError) Error() string {
	return fmt.Sprintf("pdf %d is already indexed", e.PDFID)
}

// NotUploadedError reports a parse attempt before the upload was confirmed.
type NotUploadedError struct {
	PDFID uint
}

func (e *NotUploadedError) Error() string {
	return fmt.Sprintf("pdf %d has not been uploaded yet, confirm the upload first", e.PDFID)
}
