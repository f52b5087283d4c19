// Package wise creates transfers against the Wise sandbox API.
package wise

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kirillkom/invoice-autofill/internal/core/domain"
	"github.com/kirillkom/invoice-autofill/internal/infrastructure/resilience"
)

const DefaultBaseURL = "https://api.sandbox.transferwise.tech"

type Config struct {
	BaseURL        string
	Token          string
	ProfileID      string
	SourceCurrency string
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	executor   *resilience.Executor
	newID      func() string
}

func New(cfg Config, executor *resilience.Executor) *Client {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if strings.TrimSpace(cfg.SourceCurrency) == "" {
		cfg.SourceCurrency = "EUR"
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		executor:   executor,
		newID:      func() string { return uuid.NewString() },
	}
}

type idResponse struct {
	ID     json.RawMessage `json:"id"`
	Status string          `json:"status"`
}

// CreateTransfer runs quote, recipient account and transfer creation in sequence.
// Each step needs the id returned by the previous one.
func (c *Client) CreateTransfer(ctx context.Context, req domain.TransferRequest, recipient domain.RecipientSpec) (domain.TransferResult, error) {
	if strings.TrimSpace(c.cfg.Token) == "" || strings.TrimSpace(c.cfg.ProfileID) == "" {
		return domain.TransferResult{}, domain.WrapError(domain.ErrConfig, "create transfer", errors.New("wise token and profile id are required"))
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		return domain.TransferResult{}, domain.WrapError(domain.ErrValidation, "create transfer", fmt.Errorf("amount %q: %w", req.Amount, err))
	}

	var quote idResponse
	if err := c.post(ctx, "quote", fmt.Sprintf("/v3/profiles/%s/quotes", c.cfg.ProfileID), map[string]any{
		"sourceCurrency": c.cfg.SourceCurrency,
		"targetCurrency": req.Currency,
		"targetAmount":   json.Number(amount.String()),
	}, &quote); err != nil {
		return domain.TransferResult{}, err
	}
	quoteID := rawID(quote.ID)
	if quoteID == "" {
		return domain.TransferResult{}, missingID("quote")
	}

	details := make(map[string]string, len(recipient.DetailKeys))
	for field, key := range recipient.DetailKeys {
		if v := strings.TrimSpace(req.BankDetails[field]); v != "" {
			details[key] = v
		}
	}
	var account idResponse
	if err := c.post(ctx, "recipient", "/v1/accounts", map[string]any{
		"currency":          req.Currency,
		"type":              recipient.Type,
		"profile":           profileValue(c.cfg.ProfileID),
		"accountHolderName": req.ReceiverName,
		"details":           details,
	}, &account); err != nil {
		return domain.TransferResult{}, err
	}
	if rawID(account.ID) == "" {
		return domain.TransferResult{}, missingID("recipient")
	}

	var transfer idResponse
	if err := c.post(ctx, "transfer", "/v1/transfers", map[string]any{
		"targetAccount":         account.ID,
		"quoteUuid":             quoteID,
		"customerTransactionId": c.newID(),
		"details":               map[string]string{"reference": req.Reference},
	}, &transfer); err != nil {
		return domain.TransferResult{}, err
	}
	transferID := rawID(transfer.ID)
	if transferID == "" {
		return domain.TransferResult{}, missingID("transfer")
	}

	slog.Info("wise_transfer_created", "quote_id", quoteID, "recipient_id", rawID(account.ID), "transfer_id", transferID, "status", transfer.Status)
	return domain.TransferResult{
		QuoteID:     quoteID,
		RecipientID: rawID(account.ID),
		TransferID:  transferID,
		Status:      transfer.Status,
	}, nil
}

func (c *Client) post(ctx context.Context, operation, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}
	err = c.executor.Execute(ctx, "wise_"+operation, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create %s request: %w", operation, err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("wise %s request: %w", operation, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			return &resilience.HTTPStatusError{
				Service:    "wise",
				Operation:  operation,
				StatusCode: resp.StatusCode,
				Status:     resp.Status,
				Body:       strings.TrimSpace(string(raw)),
			}
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", operation, err)
		}
		return nil
	}, resilience.UpstreamFailure)
	if err == nil {
		return nil
	}
	var statusErr *resilience.HTTPStatusError
	if errors.As(err, &statusErr) && (statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden) {
		return domain.WrapError(domain.ErrUnauthorized, "wise "+operation, err)
	}
	if resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, "wise "+operation, err)
	}
	return fmt.Errorf("wise %s: %w", operation, err)
}

func missingID(step string) error {
	return fmt.Errorf("wise %s: response did not include an id", step)
}

func rawID(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	return s
}

// profileValue keeps numeric profile ids numeric in request bodies.
func profileValue(id string) any {
	if _, err := decimal.NewFromString(id); err == nil && !strings.ContainsAny(id, ".eE") {
		return json.Number(id)
	}
	return id
}
