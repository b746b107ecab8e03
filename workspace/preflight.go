package workspace

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Preflight inspects a validated document locally before it is sent.
// A non-nil error rejects the document with NoticeProcessingFailed.
type Preflight func(doc Document) error

// PDFPreflight rejects PDFs that cannot be parsed or have no pages. Other
// documents pass untouched. Text is not required: the service may OCR
// scanned pages.
func PDFPreflight(doc Document) error {
	if baseMediaType(doc.ContentType) != "application/pdf" &&
		strings.ToLower(filepath.Ext(doc.Name)) != ".pdf" {
		return nil
	}

	rc, err := doc.Open()
	if err != nil {
		return fmt.Errorf("open document: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	return inspectPDF(data)
}

func inspectPDF(data []byte) (err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("failed to open PDF: %w", err)
	}
	if reader.NumPage() == 0 {
		return fmt.Errorf("PDF has no pages")
	}
	return nil
}
