// Package actions maps action envelopes onto the use cases. HTTP and NATS share it.
package actions

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/invoice-autofill/internal/core/domain"
	"github.com/kirillkom/invoice-autofill/internal/core/ports"
)

const (
	ActionExtractInvoice     = "extractInvoice"
	ActionProcessPDF         = "processPDF"
	ActionProcessPDFFile     = "processPDFFile"
	ActionExtractWithAI      = "extractWithAI"
	ActionGetAPIKey          = "getApiKey"
	ActionSaveAPIKey         = "saveApiKey"
	ActionCreateWiseTransfer = "createWiseTransfer"
	ActionFetchBlob          = "fetchBlob"
	ActionExtractPDFText     = "extractPDFText"

	// ActionUnknown labels envelopes whose action is not one of the above.
	ActionUnknown = "unknown"
)

var knownActions = map[string]bool{
	ActionExtractInvoice:     true,
	ActionProcessPDF:         true,
	ActionProcessPDFFile:     true,
	ActionExtractWithAI:      true,
	ActionGetAPIKey:          true,
	ActionSaveAPIKey:         true,
	ActionCreateWiseTransfer: true,
	ActionFetchBlob:          true,
	ActionExtractPDFText:     true,
}

// ActionLabel bounds client-supplied action names to the known set for metrics and logs.
func ActionLabel(action string) string {
	if knownActions[action] {
		return action
	}
	return ActionUnknown
}

// Envelope is a request message. Only the fields the action needs are read.
type Envelope struct {
	Action      string                  `json:"action"`
	URL         string                  `json:"url,omitempty"`
	ContentType string                  `json:"content_type,omitempty"`
	HTML        string                  `json:"html,omitempty"`
	Data        string                  `json:"data,omitempty"`
	Name        string                  `json:"name,omitempty"`
	APIKey      string                  `json:"api_key,omitempty"`
	Content     *domain.RawContent      `json:"content,omitempty"`
	Transfer    *domain.TransferRequest `json:"transfer,omitempty"`
}

type ErrorResponse struct {
	Error   string   `json:"error"`
	Kind    string   `json:"kind"`
	Missing []string `json:"missing,omitempty"`
}

type APIKeyResult struct {
	APIKey     string `json:"api_key"`
	Configured bool   `json:"configured"`
}

type SavedResult struct {
	Saved bool `json:"saved"`
}

type FieldsResult struct {
	Fields domain.ExtractedFields `json:"fields"`
}

type BlobResult struct {
	Data        string `json:"data"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}

// Observer receives per-action outcomes; metrics implement it.
type Observer interface {
	ObserveAction(action string, duration time.Duration, err error)
	ObserveExtraction(sourceType, strategy string)
}

type Dispatcher struct {
	extractor ports.InvoiceExtractor
	documents ports.DocumentService
	settings  ports.SettingsService
	transfers ports.TransferService
	observer  Observer
}

func NewDispatcher(
	extractor ports.InvoiceExtractor,
	documents ports.DocumentService,
	settings ports.SettingsService,
	transfers ports.TransferService,
	observer Observer,
) *Dispatcher {
	return &Dispatcher{
		extractor: extractor,
		documents: documents,
		settings:  settings,
		transfers: transfers,
		observer:  observer,
	}
}

// Dispatch decodes a raw envelope and always answers with JSON: the result or an ErrorResponse.
func (d *Dispatcher) Dispatch(ctx context.Context, raw []byte) []byte {
	var env Envelope
	var result any
	err := json.Unmarshal(raw, &env)
	if err != nil {
		err = domain.WrapError(domain.ErrInvalidInput, "decode envelope", err)
	} else {
		result, err = d.Handle(ctx, env)
	}
	if err != nil {
		result = NewErrorResponse(err)
	}
	out, marshalErr := json.Marshal(result)
	if marshalErr != nil {
		slog.Error("action_reply_encode_failed", "action", env.Action, "error", marshalErr)
		out, _ = json.Marshal(ErrorResponse{Error: "could not encode reply", Kind: "internal"})
	}
	return out
}

// Handle runs one action.
func (d *Dispatcher) Handle(ctx context.Context, env Envelope) (any, error) {
	start := time.Now()
	result, err := d.handle(ctx, env)
	if d.observer != nil {
		d.observer.ObserveAction(ActionLabel(env.Action), time.Since(start), err)
		if res, ok := result.(domain.ExtractionResult); ok && err == nil {
			d.observer.ObserveExtraction(string(res.SourceType), string(res.Strategy))
		}
	}
	if err != nil {
		slog.Warn("action_failed", "action", ActionLabel(env.Action), "kind", ErrorKind(err), "error", err)
	}
	return result, err
}

func (d *Dispatcher) handle(ctx context.Context, env Envelope) (any, error) {
	switch env.Action {
	case ActionExtractInvoice:
		return d.extractor.ExtractInvoice(ctx, domain.PageSnapshot{URL: env.URL, ContentType: env.ContentType, HTML: env.HTML})

	case ActionProcessPDF:
		if strings.TrimSpace(env.URL) == "" {
			return nil, missingField("url")
		}
		return d.extractor.ProcessPDF(ctx, env.URL)

	case ActionProcessPDFFile:
		data, err := decodeData(env.Data)
		if err != nil {
			return nil, err
		}
		return d.extractor.ProcessPDFFile(ctx, env.Name, data)

	case ActionExtractWithAI:
		if env.Content == nil {
			return nil, missingField("content")
		}
		fields, err := d.extractor.ExtractWithAI(ctx, *env.Content)
		if err != nil {
			return nil, err
		}
		return FieldsResult{Fields: fields}, nil

	case ActionGetAPIKey:
		masked, configured, err := d.settings.GetAPIKey(ctx)
		if err != nil {
			return nil, err
		}
		return APIKeyResult{APIKey: masked, Configured: configured}, nil

	case ActionSaveAPIKey:
		if err := d.settings.SaveAPIKey(ctx, env.APIKey); err != nil {
			return nil, err
		}
		return SavedResult{Saved: true}, nil

	case ActionCreateWiseTransfer:
		if env.Transfer == nil {
			return nil, missingField("transfer")
		}
		return d.transfers.CreateTransfer(ctx, *env.Transfer)

	case ActionFetchBlob:
		blob, err := d.documents.FetchBlob(ctx, env.URL)
		if err != nil {
			return nil, err
		}
		return BlobResult{
			Data:        base64.StdEncoding.EncodeToString(blob.Data),
			ContentType: blob.ContentType,
			Size:        len(blob.Data),
		}, nil

	case ActionExtractPDFText:
		data, err := decodeData(env.Data)
		if err != nil {
			return nil, err
		}
		return d.documents.ExtractPDFText(ctx, data)

	case "":
		return nil, missingField("action")
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "dispatch", fmt.Errorf("unknown action %q", env.Action))
	}
}

// decodeData accepts plain base64 or a base64 data URL as produced by FileReader.
func decodeData(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, missingField("data")
	}
	if strings.HasPrefix(raw, "data:") {
		header, payload, ok := strings.Cut(raw, ",")
		if !ok || !strings.HasSuffix(header, ";base64") {
			return nil, domain.WrapError(domain.ErrInvalidInput, "decode data", errors.New("data url must be base64 encoded"))
		}
		raw = payload
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "decode data", err)
	}
	return data, nil
}

func missingField(name string) error {
	return domain.WrapError(domain.ErrInvalidInput, "dispatch", fmt.Errorf("%s is required", name))
}

func NewErrorResponse(err error) ErrorResponse {
	resp := ErrorResponse{Error: err.Error(), Kind: ErrorKind(err)}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Missing = verr.Missing
	}
	return resp
}

// ErrorKind names the error taxonomy entry for clients.
func ErrorKind(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrValidation):
		return "validation"
	case domain.IsKind(err, domain.ErrConfig):
		return "config"
	case domain.IsKind(err, domain.ErrPDFRecovery):
		return "pdf_recovery"
	case domain.IsKind(err, domain.ErrUnauthorized):
		return "unauthorized"
	case domain.IsKind(err, domain.ErrTemporary):
		return "temporary"
	case domain.IsKind(err, domain.ErrAIService):
		return "ai_service"
	case domain.IsKind(err, domain.ErrExtraction):
		return "extraction"
	case domain.IsKind(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "internal"
	}
}
