package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kirillkom/invoice-autofill/internal/core/domain"
	"github.com/kirillkom/invoice-autofill/internal/core/form"
	"github.com/kirillkom/invoice-autofill/internal/core/ports"
)

type TransferUseCase struct {
	schema *form.Schema
	client ports.TransferClient
}

func NewTransferUseCase(schema *form.Schema, client ports.TransferClient) *TransferUseCase {
	if schema == nil {
		schema = form.DefaultSchema()
	}
	return &TransferUseCase{schema: schema, client: client}
}

// CreateTransfer validates the submitted form values before anything reaches the sandbox.
func (uc *TransferUseCase) CreateTransfer(ctx context.Context, req domain.TransferRequest) (domain.TransferResult, error) {
	f, err := form.FromTransferRequest(uc.schema, req)
	if err != nil {
		return domain.TransferResult{}, err
	}
	if err := f.BeginSubmit(); err != nil {
		return domain.TransferResult{}, err
	}

	recipient, ok := uc.schema.Recipient(f.Currency())
	if !ok {
		return domain.TransferResult{}, domain.WrapError(domain.ErrInvalidInput, "create transfer", fmt.Errorf("no recipient mapping for %s", f.Currency()))
	}

	result, err := uc.client.CreateTransfer(ctx, f.TransferRequest(), recipient)
	if stateErr := f.CompleteSubmit(err); stateErr != nil {
		return domain.TransferResult{}, errors.Join(err, stateErr)
	}
	if err != nil {
		slog.Warn("transfer_failed", "currency", f.Currency(), "state", f.State(), "error", err)
		return domain.TransferResult{}, err
	}
	slog.Info("transfer_submitted", "currency", f.Currency(), "state", f.State(), "transfer_id", result.TransferID)
	return result, nil
}
