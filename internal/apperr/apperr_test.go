package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelWrapping(t *testing.T) {
	err := fmt.Errorf("%w: fetch object 'pdfs/x.pdf': connection refused", ErrBlob)

	assert.True(t, errors.Is(err, ErrBlob))
	assert.False(t, errors.Is(err, ErrIndex))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestTypedErrorsMatchWithAs(t *testing.T) {
	wrapped := fmt.Errorf("parse: %w", &AlreadyIndexedError{PDFID: 3})

	var already *AlreadyIndexedError
	require.ErrorAs(t, wrapped, &already)
	assert.Equal(t, uint(3), already.PDFID)

	var notFound *NotFoundError
	assert.False(t, errors.As(wrapped, &notFound))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "pdf 7 not found", (&NotFoundError{PDFID: 7}).Error())
	assert.Equal(t,
		"pdf with filename 'A.pdf' already exists with status INDEXED",
		(&ConflictError{Filename: "A.pdf", Status: "INDEXED"}).Error(),
	)
	assert.Equal(t,
		"pdf 2 status is UPLOADED, expected PENDING",
		(&InvalidStateError{PDFID: 2, Have: "UPLOADED", Want: "PENDING"}).Error(),
	)
}
