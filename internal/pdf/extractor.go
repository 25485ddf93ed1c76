// Package pdf converts PDF documents into rendered page images using go-fitz.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"

	"github.com/gen2brain/go-fitz"

	"github.com/insightpdf/insightpdf/internal/domain"
)

// Extractor opens PDFs and produces lazy page sequences.
type Extractor struct {
	quality int // JPEG quality 1-100
}

// NewExtractor creates an extractor rendering pages at the given JPEG quality.
func NewExtractor(quality int) *Extractor {
	if quality < 1 || quality > 100 {
		quality = 85
	}
	return &Extractor{quality: quality}
}

// Open validates the PDF bytes and returns a lazy page source over them.
// Fails with InvalidDocument for unparseable bytes and EmptyDocument for a
// zero-page document. The caller must Close the source on every exit path.
func (e *Extractor) Open(raw []byte, document string) (domain.PageSource, error) {
	if err := ValidateBytes(raw); err != nil {
		return nil, err
	}

	doc, err := fitz.NewFromMemory(raw)
	if err != nil {
		return nil, domain.InvalidDocumentError("failed to open PDF", err)
	}

	total := doc.NumPage()
	if total == 0 {
		doc.Close()
		return nil, domain.EmptyDocumentError("PDF has no pages")
	}

	return &pageSource{
		doc:      doc,
		document: document,
		total:    total,
		quality:  e.quality,
	}, nil
}

// pageSource renders pages one at a time; it never holds more than the
// page currently being produced in memory.
type pageSource struct {
	doc      *fitz.Document
	document string
	total    int
	next     int // 0-based index of the next page to render
	quality  int
	closed   bool
}

func (s *pageSource) TotalPages() int {
	return s.total
}

// Next renders the next page as a JPEG, or returns nil when exhausted.
func (s *pageSource) Next(ctx context.Context) (*domain.Page, error) {
	if s.closed {
		return nil, domain.InvalidDocumentError("page source already closed", nil)
	}
	if s.next >= s.total {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := s.doc.Image(s.next)
	if err != nil {
		return nil, domain.InvalidDocumentError(
			fmt.Sprintf("failed to render page %d", s.next+1), err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: s.quality}); err != nil {
		return nil, domain.InvalidDocumentError(
			fmt.Sprintf("failed to encode page %d", s.next+1), err)
	}

	s.next++
	return &domain.Page{
		Index:    s.next,
		Image:    buf.Bytes(),
		Document: s.document,
	}, nil
}

func (s *pageSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.doc.Close()
}
