package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/kirillkom/invoice-autofill/internal/core/domain"
)

var pdfSignature = []byte("%PDF-")

// HasSignature reports whether data starts with the PDF file signature.
func HasSignature(data []byte) bool {
	return bytes.HasPrefix(data, pdfSignature)
}

// ValidateSignature rejects payloads that are not PDF files.
func ValidateSignature(data []byte) error {
	if !HasSignature(data) {
		return domain.WrapError(domain.ErrInvalidInput, "validate pdf", errors.New("file is not a PDF (missing %PDF- signature)"))
	}
	return nil
}

// PageCount reads the cross-reference table with pdfcpu in relaxed mode.
func PageCount(data []byte) (pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = 0, fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("read pdf context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return 0, fmt.Errorf("ensure page count: %w", err)
	}
	return ctx.PageCount, nil
}

// Validate checks the signature and reports the page count. A structure the parser
// cannot read is logged and yields zero pages; the text strategies may still succeed.
func (r *Recoverer) Validate(data []byte) (int, error) {
	if err := ValidateSignature(data); err != nil {
		return 0, err
	}
	pages, err := PageCount(data)
	if err != nil {
		slog.Warn("pdf_structure_unreadable", "bytes", len(data), "error", err)
		return 0, nil
	}
	return pages, nil
}
