package segment

import (
	"context"
	"errors"
	"testing"

	"pdf-rag-go/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExtractor struct {
	text string
	err  error

	gotData        []byte
	gotContentType string
}

func (e *stubExtractor) ExtractText(ctx context.Context, data []byte, contentType string) (string, error) {
	e.gotData = data
	e.gotContentType = contentType
	if e.err != nil {
		return "", e.err
	}
	return e.text, nil
}

var samplePDF = []byte("%PDF-1.4 sample bytes")

func TestSegment_SplitsOnPeriodsAndTrims(t *testing.T) {
	extractor := &stubExtractor{text: "First sentence.  Second sentence.\n\nThird one. "}
	segmenter := NewSentenceSegmenter(extractor)

	segments, err := segmenter.Segment(context.Background(), samplePDF)
	require.NoError(t, err)

	assert.Equal(t, []string{"First sentence", "Second sentence", "Third one"}, segments)
	assert.Equal(t, samplePDF, extractor.gotData)
	assert.Equal(t, "application/pdf", extractor.gotContentType)
}

func TestSegment_DropsEmptyCandidates(t *testing.T) {
	extractor := &stubExtractor{text: "...One... Two..."}
	segmenter := NewSentenceSegmenter(extractor)

	segments, err := segmenter.Segment(context.Background(), samplePDF)
	require.NoError(t, err)
	assert.Equal(t, []string{"One", "Two"}, segments)
}

func TestSegment_RejectsNonPDFBytes(t *testing.T) {
	segmenter := NewSentenceSegmenter(&stubExtractor{text: "irrelevant."})

	_, err := segmenter.Segment(context.Background(), []byte("GIF89a not a pdf"))
	require.ErrorIs(t, err, apperr.ErrParse)
}

func TestSegment_ExtractionFailure(t *testing.T) {
	extractor := &stubExtractor{err: errors.New("tika unavailable")}
	segmenter := NewSentenceSegmenter(extractor)

	_, err := segmenter.Segment(context.Background(), samplePDF)
	require.ErrorIs(t, err, apperr.ErrParse)
	assert.Contains(t, err.Error(), "tika unavailable")
}

func TestSegment_NoExtractableText(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"whitespace only", "   \n\t  "},
		{"periods only", "... . ."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segmenter := NewSentenceSegmenter(&stubExtractor{text: tt.text})
			_, err := segmenter.Segment(context.Background(), samplePDF)
			require.ErrorIs(t, err, apperr.ErrParse)
		})
	}
}
