// Package openai calls an OpenAI-compatible chat completions API for invoice fields.
package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/invoice-autofill/internal/core/domain"
	"github.com/kirillkom/invoice-autofill/internal/infrastructure/llm"
	"github.com/kirillkom/invoice-autofill/internal/infrastructure/resilience"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
)

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, model string, executor *resilience.Executor) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		executor:   executor,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// ExtractFields sends the content to the chat completions endpoint and decodes the JSON answer.
// Keys the model leaves out stay absent.
func (c *Client) ExtractFields(ctx context.Context, apiKey string, req domain.FieldRequest) (map[string]any, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, domain.WrapError(domain.ErrConfig, "extract fields", errors.New("api key is not configured"))
	}

	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: llm.SystemInstruction},
			{Role: "user", Content: llm.UserMessage(req.Content)},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
		Temperature:    llm.Temperature,
		MaxTokens:      llm.MaxOutputTokens,
	}

	var resp chatResponse
	err := c.executor.Execute(ctx, "ai_chat_completions", func(ctx context.Context) error {
		return c.postJSON(ctx, apiKey, "/chat/completions", payload, &resp, "chat_completions")
	}, resilience.UpstreamFailure)
	if err != nil {
		return nil, wrapServiceError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, domain.WrapError(domain.ErrAIService, "extract fields", errors.New("response has no choices"))
	}
	return llm.ParseFields(resp.Choices[0].Message.Content)
}

func wrapServiceError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	wrapped := domain.WrapError(domain.ErrAIService, "extract fields", err)
	if resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, "extract fields", wrapped)
	}
	return wrapped
}
