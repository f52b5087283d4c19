package ports

import (
	"context"

	"github.com/kirillkom/invoice-autofill/internal/core/domain"
)

// PageExtractor turns a captured page into DOM content or a PDF source.
type PageExtractor interface {
	Extract(ctx context.Context, snapshot domain.PageSnapshot) (domain.PageExtraction, error)
}

// PDFTextRecoverer recovers text from PDF bytes.
type PDFTextRecoverer interface {
	Recover(ctx context.Context, data []byte) (domain.PdfText, error)
}

// FieldExtractor asks the AI service for invoice fields. The credential is supplied per call.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, apiKey string, req domain.FieldRequest) (map[string]any, error)
}

// BlobFetcher downloads remote payloads such as PDFs.
type BlobFetcher interface {
	Fetch(ctx context.Context, rawURL string) (domain.Blob, error)
}

// SettingsStore persists the single API key setting. An unset key loads as "".
type SettingsStore interface {
	LoadAPIKey(ctx context.Context) (string, error)
	SaveAPIKey(ctx context.Context, key string) error
}

// TransferClient creates a transfer in the money-transfer sandbox.
type TransferClient interface {
	CreateTransfer(ctx context.Context, req domain.TransferRequest, recipient domain.RecipientSpec) (domain.TransferResult, error)
}

// PDFValidator checks an uploaded file is a PDF and reports its page count.
type PDFValidator interface {
	Validate(data []byte) (pages int, err error)
}
