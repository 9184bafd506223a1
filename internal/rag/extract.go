package rag

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"TechPulse/internal/model"

	"github.com/ledongthuc/pdf"
)

// ExtractText converts PDF bytes to plain text.
func ExtractText(data []byte) (text string, err error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return "", fmt.Errorf("%w: not a PDF", model.ErrDocumentParseFailure)
	}
	// The pdf reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", model.ErrDocumentParseFailure, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %w", model.ErrDocumentParseFailure, err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %w", model.ErrDocumentParseFailure, err)
	}
	var b strings.Builder
	if _, err := io.Copy(&b, plain); err != nil {
		return "", fmt.Errorf("%w: %w", model.ErrDocumentParseFailure, err)
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("%w: no extractable text", model.ErrDocumentParseFailure)
	}
	return b.String(), nil
}
