package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kiranshivaraju/loganalyzer/internal/ai"
	"github.com/kiranshivaraju/loganalyzer/internal/api/response"
	"github.com/kiranshivaraju/loganalyzer/internal/prompt"
)

const (
	defaultLines  = 10
	maxLines      = 1000
	defaultSource = "api"
)

// Analyzer defines the interface the handler depends on.
type Analyzer interface {
	Analyze(ctx context.Context, req ai.AnalyzeRequest) (*ai.AnalyzeResult, error)
	Persist(ctx context.Context, res *ai.AnalyzeResult) error
}

type analyzeRequest struct {
	Source string `json:"source"`
	Text   string `json:"text"`
	Lines  int    `json:"lines"`
	Prompt string `json:"prompt"`
}

// NewAnalyzeHandler returns an http.HandlerFunc for POST /api/v1/analyze.
// Requests without a prompt fall back to tmpl.
func NewAnalyzeHandler(svc Analyzer, tmpl prompt.Template, maxBodyBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if maxBodyBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		}

		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				response.Error(w, http.StatusRequestEntityTooLarge, "INVALID_REQUEST", "Request body too large", nil)
				return
			}
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if req.Text == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "text is required", nil)
			return
		}
		if req.Lines < 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "lines must be positive", nil)
			return
		}

		n := req.Lines
		if n == 0 {
			n = defaultLines
		}
		if n > maxLines {
			n = maxLines
		}

		source := req.Source
		if source == "" {
			source = defaultSource
		}

		t := tmpl
		if req.Prompt != "" {
			t = prompt.Template{Prompt: req.Prompt}
		}
		lines := prompt.TailText(req.Text, n)

		result, err := svc.Analyze(r.Context(), ai.AnalyzeRequest{
			Source:    source,
			LineCount: n,
			Prompt:    prompt.Assemble(t, lines),
		})
		if err != nil {
			writeAnalyzeError(w, err)
			return
		}

		if err := svc.Persist(r.Context(), result); err != nil {
			slog.Error("persist run failed", "run_id", result.RunID, "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"The answer could not be saved", nil)
			return
		}

		response.JSON(w, result)
	}
}

func writeAnalyzeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ai.ErrInferenceTimeout):
		response.Error(w, http.StatusGatewayTimeout, "AI_INFERENCE_TIMEOUT",
			"AI completion took too long and was cancelled", nil)
	case errors.Is(err, ai.ErrProviderUnavailable):
		response.Error(w, http.StatusBadGateway, "AI_PROVIDER_UNAVAILABLE",
			"The AI provider is not available", nil)
	case errors.Is(err, ai.ErrUnexpectedStatus), errors.Is(err, ai.ErrInvalidResponse):
		response.Error(w, http.StatusBadGateway, "AI_PROVIDER_ERROR",
			"The AI provider returned an unusable response", nil)
	default:
		slog.Error("analyze failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}
