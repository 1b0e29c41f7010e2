// Package document converts between PDF files and interview text.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned when a PDF has no extractable text, e.g. a scan.
var ErrNoText = errors.New("pdf contains no extractable text")

// IsPDF reports whether data starts with the PDF magic bytes.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

// ExtractText returns the plain text of every page in the PDF.
func ExtractText(r io.ReaderAt, size int64) (string, error) {
	doc, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	text, err := doc.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(text); err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}

	out := strings.TrimSpace(buf.String())
	if out == "" {
		return "", ErrNoText
	}
	return out, nil
}
