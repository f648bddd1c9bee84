// Package ollama talks to a local Ollama server's generate endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/kiranshivaraju/loganalyzer/internal/ai/aierr"
	"github.com/kiranshivaraju/loganalyzer/internal/config"
	"github.com/kiranshivaraju/loganalyzer/pkg/models"
)

const generatePath = "/api/generate"

// Provider implements models.Completer using Ollama.
type Provider struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewProvider(cfg config.OllamaConfig) *Provider {
	return &Provider{
		baseURL: cfg.BaseURL(),
		model:   cfg.Model,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (p *Provider) Name() string  { return string(models.BackendOllama) }
func (p *Provider) Model() string { return p.model }

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// generateResponse uses a pointer so an absent field is distinguishable
// from an empty answer.
type generateResponse struct {
	Response *string `json:"response"`
}

// Complete issues one non-streaming generate request. Any status other
// than 200, or a body without a "response" field, is an error.
func (p *Provider) Complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Model:  p.model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	u := p.baseURL + generatePath
	slog.Info("sending POST request", "url", u, "model", p.model)
	slog.Debug("POST payload", "body", string(payload))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", aierr.ClassifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", aierr.ClassifyTransportError(err)
	}
	slog.Debug("response", "status", resp.StatusCode, "body", string(body))

	if resp.StatusCode != http.StatusOK {
		return "", &aierr.StatusError{Provider: p.Name(), StatusCode: resp.StatusCode, Body: string(body)}
	}

	var gen generateResponse
	if err := json.Unmarshal(body, &gen); err != nil {
		return "", fmt.Errorf("%w: decoding body: %v", aierr.ErrInvalidResponse, err)
	}
	if gen.Response == nil {
		return "", fmt.Errorf("%w: no 'response' field found", aierr.ErrInvalidResponse)
	}

	slog.Info("received 'response' key from ollama")
	return *gen.Response, nil
}

var _ models.Completer = (*Provider)(nil)
