package ports

import (
	"context"

	"github.com/kirillkom/invoice-autofill/internal/core/domain"
)

// InvoiceExtractor is the inbound contract for the extraction pipeline.
type InvoiceExtractor interface {
	ExtractInvoice(ctx context.Context, snapshot domain.PageSnapshot) (domain.ExtractionResult, error)
	ProcessPDF(ctx context.Context, rawURL string) (domain.ExtractionResult, error)
	ProcessPDFFile(ctx context.Context, name string, data []byte) (domain.ExtractionResult, error)
	ExtractWithAI(ctx context.Context, content domain.RawContent) (domain.ExtractedFields, error)
}

// DocumentService exposes the raw fetch and PDF text steps on their own.
type DocumentService interface {
	FetchBlob(ctx context.Context, rawURL string) (domain.Blob, error)
	ExtractPDFText(ctx context.Context, data []byte) (domain.PdfText, error)
}

// SettingsService manages the stored API key.
type SettingsService interface {
	GetAPIKey(ctx context.Context) (masked string, configured bool, err error)
	SaveAPIKey(ctx context.Context, key string) error
}

// TransferService validates form values and submits them to the sandbox.
type TransferService interface {
	CreateTransfer(ctx context.Context, req domain.TransferRequest) (domain.TransferResult, error)
}
