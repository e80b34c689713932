package source

import (
	"context"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// PDF serves the pages of a document as frames, one page per frame.
type PDF struct {
	doc  *fitz.Document
	path string
	dpi  int
}

func NewPDF(path string, dpi int) (*PDF, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	if dpi <= 0 {
		dpi = 150
	}
	return &PDF{doc: doc, path: path, dpi: dpi}, nil
}

// Count is the number of pages, which is the number of frames.
func (p *PDF) Count() int {
	return p.doc.NumPage()
}

// Load renders page index. A fitz document is not safe for concurrent
// rendering, so every call opens its own.
func (p *PDF) Load(ctx context.Context, index int) (image.Image, error) {
	if index < 0 || index >= p.Count() {
		return nil, fmt.Errorf("page %d of %d: %w", index, p.Count(), ErrOutOfRange)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	workerDoc, err := fitz.New(p.path)
	if err != nil {
		return nil, err
	}
	defer workerDoc.Close()
	return workerDoc.ImageDPI(index, float64(p.dpi))
}

func (p *PDF) Close() error {
	return p.doc.Close()
}
