// Package pdfcheck performs a local structural check of uploaded PDFs before they
// are handed to the model. Text extraction is left to the model.
package pdfcheck

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"
)

const (
	MimePDF = "application/pdf"
	// Magic opens every PDF header. Readers accept it anywhere in the first
	// headerWindow bytes.
	Magic        = "%PDF-"
	headerWindow = 1024
)

var (
	ErrNotPDF  = errors.New("file is not a readable PDF")
	ErrNoPages = errors.New("PDF has no pages")
)

// Info summarizes what the local check learned about the document.
type Info struct {
	Pages int
}

// HasMagic reports whether data carries a PDF header. It is the only structural
// requirement placed on uploads; everything else is left to the model.
func HasMagic(data []byte) bool {
	if len(data) > headerWindow {
		data = data[:headerWindow]
	}
	return bytes.Contains(data, []byte(Magic))
}

// Inspect opens data with github.com/ledongthuc/pdf and reports the page count.
// The parser is stricter than most readers (PDF 1.x headers only, %%EOF at the
// very end), so callers treat a failure as "page count unknown".
func Inspect(ctx context.Context, data []byte) (info Info, err error) {
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}
	if len(data) == 0 {
		return Info{}, fmt.Errorf("%w: empty payload", ErrNotPDF)
	}

	// The parser panics on some corrupt object streams.
	defer func() {
		if rec := recover(); rec != nil {
			info = Info{}
			err = fmt.Errorf("%w: %v", ErrNotPDF, rec)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}
	pages := reader.NumPage()
	if pages <= 0 {
		return Info{}, ErrNoPages
	}
	return Info{Pages: pages}, nil
}
