// Package pdftext recovers best-effort text from PDF bytes.
package pdftext

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/invoice-autofill/internal/core/domain"
)

const DefaultMinChars = 50

type Options struct {
	// StructuredEnabled reports whether the full parser may run in this process.
	StructuredEnabled bool
	MinChars          int
}

type Recoverer struct {
	structured Structured
	heuristic  ByteHeuristic
	opts       Options
}

func New(opts Options) *Recoverer {
	if opts.MinChars <= 0 {
		opts.MinChars = DefaultMinChars
	}
	return &Recoverer{opts: opts}
}

// Recover runs the structured strategy when available and falls back to the byte heuristic.
func (r *Recoverer) Recover(ctx context.Context, data []byte) (domain.PdfText, error) {
	if err := ctx.Err(); err != nil {
		return domain.PdfText{}, err
	}
	if len(data) == 0 {
		return domain.PdfText{}, domain.WrapError(domain.ErrInvalidInput, "recover pdf text", errors.New("empty pdf payload"))
	}

	pages := 0
	if r.opts.StructuredEnabled {
		text, n, err := r.structured.Extract(data)
		pages = n
		switch {
		case err != nil:
			slog.Warn("pdf_structured_failed", "error", err)
		case r.enough(text):
			return domain.PdfText{Text: text, Strategy: domain.StrategyStructured, Pages: pages}, nil
		default:
			slog.Info("pdf_structured_short", "chars", len(strings.TrimSpace(text)), "min_chars", r.opts.MinChars)
		}
	}

	text := r.heuristic.Extract(data)
	if r.enough(text) {
		return domain.PdfText{Text: text, Strategy: domain.StrategyByteHeuristic, Pages: pages}, nil
	}

	return domain.PdfText{}, domain.WrapError(
		domain.ErrPDFRecovery,
		"recover pdf text",
		fmt.Errorf("recovered fewer than %d characters; the PDF is likely image-based (scanned) and has no text layer", r.opts.MinChars),
	)
}

func (r *Recoverer) enough(text string) bool {
	return len(strings.TrimSpace(text)) >= r.opts.MinChars
}
