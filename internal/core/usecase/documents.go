package usecase

import (
	"context"

	"github.com/kirillkom/invoice-autofill/internal/core/domain"
	"github.com/kirillkom/invoice-autofill/internal/core/ports"
)

type DocumentUseCase struct {
	fetcher   ports.BlobFetcher
	recoverer ports.PDFTextRecoverer
}

func NewDocumentUseCase(fetcher ports.BlobFetcher, recoverer ports.PDFTextRecoverer) *DocumentUseCase {
	return &DocumentUseCase{fetcher: fetcher, recoverer: recoverer}
}

func (uc *DocumentUseCase) FetchBlob(ctx context.Context, rawURL string) (domain.Blob, error) {
	return uc.fetcher.Fetch(ctx, rawURL)
}

func (uc *DocumentUseCase) ExtractPDFText(ctx context.Context, data []byte) (domain.PdfText, error) {
	return uc.recoverer.Recover(ctx, data)
}
