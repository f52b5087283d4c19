package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/invoice-autofill/internal/core/domain"
)

type extractDeps struct {
	pages     *pagesFake
	fetcher   *fetcherFake
	recoverer *recovererFake
	ai        *aiFake
	settings  *settingsFake
}

func newExtractUseCase(d extractDeps, opts ExtractOptions) *ExtractInvoiceUseCase {
	return NewExtractInvoiceUseCase(d.pages, d.fetcher, d.recoverer, validatorFake{pages: 1}, d.ai, d.settings, opts)
}

func defaultDeps() extractDeps {
	return extractDeps{
		pages:     &pagesFake{},
		fetcher:   &fetcherFake{blobs: map[string]domain.Blob{}},
		recoverer: &recovererFake{},
		ai:        &aiFake{fields: map[string]any{}},
		settings:  &settingsFake{key: "sk-saved"},
	}
}

func TestExtractInvoiceDOMNormalizesFields(t *testing.T) {
	d := defaultDeps()
	d.pages.result = domain.PageExtraction{
		SourceType: domain.SourceDOM,
		Content:    domain.RawContent{SourceType: domain.SourceDOM, Text: "Invoice 2041 total 1 250,50", URL: "https://x.test"},
	}
	d.ai.fields = map[string]any{"amount": "1 250,50", "currency": "eur", "iban": "de89 3704 0044"}

	res, err := newExtractUseCase(d, ExtractOptions{}).ExtractInvoice(context.Background(), domain.PageSnapshot{URL: "https://x.test"})
	if err != nil {
		t.Fatalf("ExtractInvoice() error = %v", err)
	}
	if res.Fields.Amount != "1250.50" || res.Fields.Currency != "EUR" || res.Fields.IBAN != "DE8937040044" {
		t.Fatalf("unexpected fields %+v", res.Fields)
	}
	if res.SourceType != domain.SourceDOM || res.TextLength != len("Invoice 2041 total 1 250,50") {
		t.Fatalf("unexpected result %+v", res)
	}
	if d.ai.keys[0] != "sk-saved" {
		t.Fatalf("expected stored key to be used, got %v", d.ai.keys)
	}
}

func TestExtractInvoicePDFBranchFetchesAndRecovers(t *testing.T) {
	d := defaultDeps()
	d.pages.result = domain.PageExtraction{
		SourceType: domain.SourcePDF,
		PdfSource:  &domain.PdfSource{URL: "https://x.test/inv.pdf", Type: domain.PdfSourceEmbed},
	}
	d.fetcher.blobs["https://x.test/inv.pdf"] = domain.Blob{Data: []byte("%PDF-1.4 bytes")}
	d.recoverer.text = domain.PdfText{Text: "Invoice recovered text", Strategy: domain.StrategyByteHeuristic}
	d.ai.fields = map[string]any{"amount": 99.5}

	res, err := newExtractUseCase(d, ExtractOptions{InlinePDF: true}).ExtractInvoice(context.Background(), domain.PageSnapshot{})
	if err != nil {
		t.Fatalf("ExtractInvoice() error = %v", err)
	}
	if res.Strategy != domain.StrategyByteHeuristic || res.URL != "https://x.test/inv.pdf" || res.Fields.Amount != "99.5" {
		t.Fatalf("unexpected result %+v", res)
	}
	if string(d.recoverer.input) != "%PDF-1.4 bytes" || string(d.ai.request.PDF) != "%PDF-1.4 bytes" {
		t.Fatalf("expected pdf bytes to flow through recovery and inline request")
	}
	if d.ai.request.Content.SourceType != domain.SourcePDF {
		t.Fatalf("expected pdf content, got %+v", d.ai.request.Content)
	}
}

func TestExtractInvoiceWithoutKeyFailsBeforeWork(t *testing.T) {
	d := defaultDeps()
	d.settings.key = ""

	_, err := newExtractUseCase(d, ExtractOptions{}).ExtractInvoice(context.Background(), domain.PageSnapshot{})
	if !domain.IsKind(err, domain.ErrConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
	if d.pages.calls != 0 || len(d.ai.keys) != 0 {
		t.Fatalf("no work should happen without a key")
	}
}

func TestCredentialIsReloadedPerRequest(t *testing.T) {
	d := defaultDeps()
	d.pages.result = domain.PageExtraction{SourceType: domain.SourceDOM, Content: domain.RawContent{Text: "text"}}
	uc := newExtractUseCase(d, ExtractOptions{FallbackAPIKey: "sk-env"})

	d.settings.key = ""
	if _, err := uc.ExtractInvoice(context.Background(), domain.PageSnapshot{}); err != nil {
		t.Fatalf("first call error = %v", err)
	}
	d.settings.key = "sk-new"
	if _, err := uc.ExtractInvoice(context.Background(), domain.PageSnapshot{}); err != nil {
		t.Fatalf("second call error = %v", err)
	}
	if d.ai.keys[0] != "sk-env" || d.ai.keys[1] != "sk-new" {
		t.Fatalf("expected fallback then saved key, got %v", d.ai.keys)
	}
}

func TestExtractInvoicePropagatesRecoveryError(t *testing.T) {
	d := defaultDeps()
	d.recoverer.err = domain.WrapError(domain.ErrPDFRecovery, "recover", errors.New("image-based"))

	_, err := newExtractUseCase(d, ExtractOptions{}).ProcessPDFFile(context.Background(), "scan.pdf", []byte("%PDF-1.4"))
	if !domain.IsKind(err, domain.ErrPDFRecovery) {
		t.Fatalf("expected pdf recovery error, got %v", err)
	}
	if len(d.ai.keys) != 0 {
		t.Fatalf("ai must not be called when recovery fails")
	}
}

func TestProcessPDFFileRejectsNonPDF(t *testing.T) {
	d := defaultDeps()
	uc := NewExtractInvoiceUseCase(d.pages, d.fetcher, d.recoverer,
		validatorFake{err: domain.WrapError(domain.ErrInvalidInput, "validate", errors.New("not a pdf"))},
		d.ai, d.settings, ExtractOptions{})

	_, err := uc.ProcessPDFFile(context.Background(), "a.docx", []byte("PK"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if d.recoverer.input != nil {
		t.Fatalf("recovery must not run for rejected files")
	}
}

func TestExtractWithAIRequiresText(t *testing.T) {
	d := defaultDeps()
	_, err := newExtractUseCase(d, ExtractOptions{}).ExtractWithAI(context.Background(), domain.RawContent{Text: "  "})
	if !domain.IsKind(err, domain.ErrExtraction) {
		t.Fatalf("expected extraction error, got %v", err)
	}
}

func TestExtractWithAIDefaultsCurrency(t *testing.T) {
	d := defaultDeps()
	d.ai.fields = map[string]any{"receiver_name": "ACME"}
	fields, err := newExtractUseCase(d, ExtractOptions{}).ExtractWithAI(context.Background(), domain.RawContent{Text: "ACME invoice"})
	if err != nil {
		t.Fatalf("ExtractWithAI() error = %v", err)
	}
	if fields.Currency != "EUR" || fields.ReceiverName != "ACME" || fields.IBAN != "" {
		t.Fatalf("unexpected fields %+v", fields)
	}
}

func TestExtractInvoiceAppliesFieldsToForm(t *testing.T) {
	d := defaultDeps()
	d.pages.result = domain.PageExtraction{
		SourceType: domain.SourceDOM,
		Content:    domain.RawContent{SourceType: domain.SourceDOM, Text: "Invoice from Globex", URL: "https://x.test"},
	}
	d.ai.fields = map[string]any{"receiver_name": "Globex", "amount": "99", "currency": "GBP", "sort_code": "60-16-13"}

	res, err := newExtractUseCase(d, ExtractOptions{}).ExtractInvoice(context.Background(), domain.PageSnapshot{URL: "https://x.test"})
	if err != nil {
		t.Fatalf("ExtractInvoice() error = %v", err)
	}
	if res.FormState != "filled" || res.FormError != "" {
		t.Fatalf("unexpected form state %q / %q", res.FormState, res.FormError)
	}
	if len(res.RequiredFields) != 2 || res.RequiredFields[0] != domain.FieldSortCode || res.RequiredFields[1] != domain.FieldAccountNumber {
		t.Fatalf("unexpected required fields %v", res.RequiredFields)
	}
	auto := map[string]bool{}
	for _, key := range res.AutoFilled {
		auto[key] = true
	}
	if !auto[domain.FieldSortCode] || !auto[domain.FieldReceiverName] || auto[domain.FieldAccountNumber] {
		t.Fatalf("unexpected auto-filled keys %v", res.AutoFilled)
	}
}

func TestExtractInvoiceReportsUnsupportedCurrencyWithoutFilling(t *testing.T) {
	d := defaultDeps()
	d.pages.result = domain.PageExtraction{
		SourceType: domain.SourceDOM,
		Content:    domain.RawContent{SourceType: domain.SourceDOM, Text: "Faktura", URL: "https://x.test"},
	}
	d.ai.fields = map[string]any{"receiver_name": "New AB", "amount": "1000", "currency": "XTS"}

	res, err := newExtractUseCase(d, ExtractOptions{}).ExtractInvoice(context.Background(), domain.PageSnapshot{URL: "https://x.test"})
	if err != nil {
		t.Fatalf("ExtractInvoice() error = %v", err)
	}
	if res.FormState != "extract_error" || res.FormError == "" || len(res.AutoFilled) != 0 {
		t.Fatalf("unexpected form outcome %+v", res)
	}
	if res.Fields.ReceiverName != "New AB" {
		t.Fatalf("extracted fields must still be returned, got %+v", res.Fields)
	}
}
