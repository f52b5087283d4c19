package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/invoice-autofill/internal/core/domain"
	"github.com/kirillkom/invoice-autofill/internal/core/form"
	"github.com/kirillkom/invoice-autofill/internal/core/normalize"
	"github.com/kirillkom/invoice-autofill/internal/core/ports"
)

type ExtractInvoiceUseCase struct {
	pages     ports.PageExtractor
	fetcher   ports.BlobFetcher
	recoverer ports.PDFTextRecoverer
	validator ports.PDFValidator
	ai        ports.FieldExtractor
	creds     credentials
	schema    *form.Schema
	inlinePDF bool
	now       func() time.Time
}

type ExtractOptions struct {
	// FallbackAPIKey is used when no key has been saved in the settings store.
	FallbackAPIKey string
	// InlinePDF sends the PDF bytes along with the recovered text.
	InlinePDF bool
	// Schema drives the transfer form the fields are applied to. Nil means the embedded table.
	Schema *form.Schema
}

func NewExtractInvoiceUseCase(
	pages ports.PageExtractor,
	fetcher ports.BlobFetcher,
	recoverer ports.PDFTextRecoverer,
	validator ports.PDFValidator,
	ai ports.FieldExtractor,
	settings ports.SettingsStore,
	opts ExtractOptions,
) *ExtractInvoiceUseCase {
	return &ExtractInvoiceUseCase{
		pages:     pages,
		fetcher:   fetcher,
		recoverer: recoverer,
		validator: validator,
		ai:        ai,
		creds:     credentials{store: settings, fallback: opts.FallbackAPIKey},
		schema:    opts.Schema,
		inlinePDF: opts.InlinePDF,
		now:       time.Now,
	}
}

// ExtractInvoice runs the in-page extraction and then the PDF or DOM branch of the pipeline.
func (uc *ExtractInvoiceUseCase) ExtractInvoice(ctx context.Context, snapshot domain.PageSnapshot) (domain.ExtractionResult, error) {
	key, err := uc.creds.load(ctx)
	if err != nil {
		return domain.ExtractionResult{}, err
	}

	page, err := uc.pages.Extract(ctx, snapshot)
	if err != nil {
		return domain.ExtractionResult{}, err
	}
	slog.Info("page_extracted", "url", snapshot.URL, "source_type", page.SourceType, "tier", page.Tier)

	if page.SourceType == domain.SourcePDF {
		if page.PdfSource == nil {
			return domain.ExtractionResult{}, domain.WrapError(domain.ErrExtraction, "extract invoice", errors.New("no PDF source found on page"))
		}
		return uc.fromURL(ctx, key, page.PdfSource.URL)
	}
	return uc.fromContent(ctx, key, page.Content, nil, "")
}

// ProcessPDF downloads a PDF and runs it through recovery and extraction.
func (uc *ExtractInvoiceUseCase) ProcessPDF(ctx context.Context, rawURL string) (domain.ExtractionResult, error) {
	key, err := uc.creds.load(ctx)
	if err != nil {
		return domain.ExtractionResult{}, err
	}
	return uc.fromURL(ctx, key, rawURL)
}

// ProcessPDFFile handles a file the user dropped. The signature is checked before anything else.
func (uc *ExtractInvoiceUseCase) ProcessPDFFile(ctx context.Context, name string, data []byte) (domain.ExtractionResult, error) {
	pages, err := uc.validator.Validate(data)
	if err != nil {
		return domain.ExtractionResult{}, err
	}
	slog.Info("pdf_file_received", "name", name, "bytes", len(data), "pages", pages)

	key, err := uc.creds.load(ctx)
	if err != nil {
		return domain.ExtractionResult{}, err
	}
	return uc.fromPDF(ctx, key, data, "")
}

// ExtractWithAI sends already extracted content to the AI service and normalizes the answer.
func (uc *ExtractInvoiceUseCase) ExtractWithAI(ctx context.Context, content domain.RawContent) (domain.ExtractedFields, error) {
	if strings.TrimSpace(content.Text) == "" {
		return domain.ExtractedFields{}, domain.WrapError(domain.ErrExtraction, "extract with ai", errors.New("content has no text"))
	}
	key, err := uc.creds.load(ctx)
	if err != nil {
		return domain.ExtractedFields{}, err
	}
	raw, err := uc.ai.ExtractFields(ctx, key, domain.FieldRequest{Content: content})
	if err != nil {
		return domain.ExtractedFields{}, err
	}
	return normalize.Fields(raw), nil
}

func (uc *ExtractInvoiceUseCase) fromURL(ctx context.Context, key, rawURL string) (domain.ExtractionResult, error) {
	blob, err := uc.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return domain.ExtractionResult{}, err
	}
	return uc.fromPDF(ctx, key, blob.Data, rawURL)
}

func (uc *ExtractInvoiceUseCase) fromPDF(ctx context.Context, key string, data []byte, sourceURL string) (domain.ExtractionResult, error) {
	text, err := uc.recoverer.Recover(ctx, data)
	if err != nil {
		return domain.ExtractionResult{}, err
	}
	slog.Info("pdf_text_recovered", "url", sourceURL, "strategy", text.Strategy, "chars", len(text.Text))

	content := domain.RawContent{
		SourceType: domain.SourcePDF,
		Text:       text.Text,
		URL:        sourceURL,
		Timestamp:  uc.now().UTC(),
	}
	var inline []byte
	if uc.inlinePDF {
		inline = data
	}
	return uc.fromContent(ctx, key, content, inline, text.Strategy)
}

func (uc *ExtractInvoiceUseCase) fromContent(
	ctx context.Context,
	key string,
	content domain.RawContent,
	pdf []byte,
	strategy domain.PdfStrategy,
) (domain.ExtractionResult, error) {
	f := form.New(uc.schema)
	if err := f.BeginExtraction(); err != nil {
		return domain.ExtractionResult{}, err
	}
	if err := f.BeginAIProcessing(); err != nil {
		return domain.ExtractionResult{}, err
	}

	raw, err := uc.ai.ExtractFields(ctx, key, domain.FieldRequest{Content: content, PDF: pdf})
	if err != nil {
		_ = f.FailExtraction(err)
		return domain.ExtractionResult{}, err
	}
	fields := normalize.Fields(raw)
	slog.Info("fields_extracted", "source_type", content.SourceType, "invoice_number", fields.InvoiceNumber, "currency", fields.Currency)

	result := domain.ExtractionResult{
		SourceType: content.SourceType,
		URL:        content.URL,
		Strategy:   strategy,
		TextLength: len([]rune(content.Text)),
		Fields:     fields,
	}
	if err := f.ApplyExtraction(fields); err != nil {
		slog.Warn("form_fill_rejected", "currency", fields.Currency, "error", err)
		result.FormError = err.Error()
	} else {
		result.RequiredFields = requiredFields(f)
		result.AutoFilled = f.AutoFilled()
	}
	result.FormState = string(f.State())
	return result, nil
}

func requiredFields(f *form.Form) []string {
	inputs := f.BankInputs()
	out := make([]string, 0, len(inputs))
	for _, input := range inputs {
		if input.Required {
			out = append(out, input.Name)
		}
	}
	return out
}
