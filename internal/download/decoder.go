package download

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// Decoder turns downloaded bytes into a readable document.
type Decoder interface {
	Decode(data []byte) (*Document, error)
}

var (
	errEmptyDocument = errors.New("document is empty")
	errNoPages       = errors.New("document has no pages")
)

// PDFDecoder opens PDF documents.
type PDFDecoder struct{}

func (PDFDecoder) Decode(data []byte) (doc *Document, err error) {
	if len(data) == 0 {
		return nil, errEmptyDocument
	}

	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("failed to parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	pages := reader.NumPage()
	if pages <= 0 {
		return nil, errNoPages
	}

	return &Document{
		Data:        data,
		Pages:       pages,
		ContentType: "application/pdf",
	}, nil
}
