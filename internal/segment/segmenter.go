// Package segment turns raw PDF bytes into ordered text segments, the unit
// of retrieval.
package segment

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"pdf-rag-go/internal/apperr"
)

var pdfMagic = []byte("%PDF-")

// Segmenter produces an ordered sequence of non-empty text segments from a
// PDF byte stream.
type Segmenter interface {
	Segment(ctx context.Context, pdfBytes []byte) ([]string, error)
}

// TextExtractor extracts plain text from document bytes. Satisfied by the
// Tika client.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte, contentType string) (string, error)
}

type sentenceSegmenter struct {
	extractor TextExtractor
}

// NewSentenceSegmenter builds a Segmenter that splits extracted text at
// sentence-terminating periods.
func NewSentenceSegmenter(extractor TextExtractor) Segmenter {
	return &sentenceSegmenter{extractor: extractor}
}

// Segment extracts the PDF's text (pages concatenated, no delimiter, so
// sentences spanning page boundaries stay intact), splits it on periods,
// trims each candidate and drops the empty ones. Order follows the order the
// text appears across pages.
func (s *sentenceSegmenter) Segment(ctx context.Context, pdfBytes []byte) ([]string, error) {
	if !bytes.HasPrefix(pdfBytes, pdfMagic) {
		return nil, fmt.Errorf("%w: byte stream is not a PDF", apperr.ErrParse)
	}

	text, err := s.extractor.ExtractText(ctx, pdfBytes, "application/pdf")
	if err != nil {
		return nil, fmt.Errorf("%w: extract text: %v", apperr.ErrParse, err)
	}

	var segments []string
	for _, candidate := range strings.Split(text, ".") {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			segments = append(segments, trimmed)
		}
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no extractable text", apperr.ErrParse)
	}
	return segments, nil
}
