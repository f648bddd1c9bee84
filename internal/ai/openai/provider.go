// Package openai sends prompts to the OpenAI chat completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"

	"github.com/kiranshivaraju/loganalyzer/internal/ai/aierr"
	"github.com/kiranshivaraju/loganalyzer/internal/config"
	"github.com/kiranshivaraju/loganalyzer/pkg/models"
	goopenai "github.com/sashabaranov/go-openai"
)

// zeroTemperature is sent instead of 0, which the client library omits
// from the request body and the API would then treat as its default of 1.
const zeroTemperature = math.SmallestNonzeroFloat32

// Provider implements models.Completer using OpenAI.
type Provider struct {
	client    *goopenai.Client
	model     string
	maxTokens int
}

// NewProvider returns an error wrapping aierr.ErrMissingAPIKey when no key
// is configured, so the run aborts before any request is made.
func NewProvider(cfg config.OpenAIConfig) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY is required for the openai backend", aierr.ErrMissingAPIKey)
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Provider{
		client:    goopenai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

func (p *Provider) Name() string  { return string(models.BackendOpenAI) }
func (p *Provider) Model() string { return p.model }

// Complete sends prompt as a single user message and returns the first
// choice's content.
func (p *Provider) Complete(ctx context.Context, prompt string) (string, error) {
	req := goopenai.ChatCompletionRequest{
		Model: p.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: zeroTemperature,
		MaxTokens:   p.maxTokens,
	}

	slog.Info("sending chat completion request", "model", p.model, "max_tokens", p.maxTokens)
	slog.Debug("chat completion prompt", "prompt", prompt)

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classifyError(err)
	}
	slog.Debug("chat completion response", "id", resp.ID, "choices", len(resp.Choices),
		"prompt_tokens", resp.Usage.PromptTokens, "completion_tokens", resp.Usage.CompletionTokens)

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", aierr.ErrInvalidResponse)
	}

	slog.Info("received chat completion", "finish_reason", resp.Choices[0].FinishReason)
	return resp.Choices[0].Message.Content, nil
}

// classifyError separates API rejections from transport failures.
func classifyError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return &aierr.StatusError{
			Provider:   string(models.BackendOpenAI),
			StatusCode: apiErr.HTTPStatusCode,
			Body:       apiErr.Message,
		}
	}

	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		body := ""
		if reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		return &aierr.StatusError{
			Provider:   string(models.BackendOpenAI),
			StatusCode: reqErr.HTTPStatusCode,
			Body:       body,
		}
	}

	return aierr.ClassifyTransportError(err)
}

var _ models.Completer = (*Provider)(nil)
