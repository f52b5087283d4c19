// Package gemini extracts invoice fields with the Gemini API.
package gemini

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"

	"github.com/kirillkom/invoice-autofill/internal/core/domain"
	"github.com/kirillkom/invoice-autofill/internal/infrastructure/llm"
	"github.com/kirillkom/invoice-autofill/internal/infrastructure/resilience"
)

const DefaultModel = "gemini-2.5-flash"

type Client struct {
	baseURL  string
	model    string
	executor *resilience.Executor
}

// New returns a provider; an empty baseURL uses the public endpoint.
func New(baseURL, model string, executor *resilience.Executor) *Client {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		model:    model,
		executor: executor,
	}
}

// ExtractFields sends the text, and the PDF inline when present, and decodes the JSON answer.
func (c *Client) ExtractFields(ctx context.Context, apiKey string, req domain.FieldRequest) (map[string]any, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, domain.WrapError(domain.ErrConfig, "extract fields", errors.New("api key is not configured"))
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if c.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, domain.WrapError(domain.ErrConfig, "create gemini client", err)
	}

	parts := []*genai.Part{genai.NewPartFromText(llm.UserMessage(req.Content))}
	if len(req.PDF) > 0 {
		parts = append(parts, genai.NewPartFromBytes(req.PDF, "application/pdf"))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(llm.SystemInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](llm.Temperature),
		MaxOutputTokens:   llm.MaxOutputTokens,
	}

	var text string
	err = c.executor.Execute(ctx, "ai_gemini_generate", func(ctx context.Context) error {
		resp, err := client.Models.GenerateContent(ctx, c.model, contents, genCfg)
		if err != nil {
			return err
		}
		text = resp.Text()
		return nil
	}, resilience.UpstreamFailure)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		wrapped := domain.WrapError(domain.ErrAIService, "extract fields", err)
		if resilience.IsCircuitOpen(err) {
			return nil, domain.WrapError(domain.ErrTemporary, "extract fields", wrapped)
		}
		return nil, wrapped
	}
	if strings.TrimSpace(text) == "" {
		return nil, domain.WrapError(domain.ErrAIService, "extract fields", errors.New("empty response from model"))
	}
	return llm.ParseFields(text)
}
