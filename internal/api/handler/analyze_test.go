package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/loganalyzer/internal/ai"
	"github.com/kiranshivaraju/loganalyzer/internal/api/handler"
	"github.com/kiranshivaraju/loganalyzer/internal/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock Analyzer ---

type mockAnalyzer struct {
	analyzeFn  func(req ai.AnalyzeRequest) (*ai.AnalyzeResult, error)
	persistErr error

	got       ai.AnalyzeRequest
	persisted int
}

func (m *mockAnalyzer) Analyze(_ context.Context, req ai.AnalyzeRequest) (*ai.AnalyzeResult, error) {
	m.got = req
	return m.analyzeFn(req)
}

func (m *mockAnalyzer) Persist(_ context.Context, _ *ai.AnalyzeResult) error {
	m.persisted++
	return m.persistErr
}

func successAnalyzer() *mockAnalyzer {
	return &mockAnalyzer{analyzeFn: func(req ai.AnalyzeRequest) (*ai.AnalyzeResult, error) {
		return &ai.AnalyzeResult{
			RunID:     uuid.New(),
			Answer:    "disk is full",
			Backend:   "mock",
			Model:     "mock-v1",
			Source:    req.Source,
			LineCount: req.LineCount,
			CreatedAt: time.Now(),
			Prompt:    req.Prompt,
		}, nil
	}}
}

func failingAnalyzer(err error) *mockAnalyzer {
	return &mockAnalyzer{analyzeFn: func(ai.AnalyzeRequest) (*ai.AnalyzeResult, error) {
		return nil, err
	}}
}

// --- helpers ---

var serverTemplate = prompt.Template{Prompt: "Summarize these logs:"}

func analyzeReq(t *testing.T, body any) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", bytes.NewReader(b))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var env struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env.Data
}

func decodeErrCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env.Error.Code
}

func numberedLines(n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	return b.String()
}

// --- tests ---

func TestAnalyzeHandler_Success(t *testing.T) {
	svc := successAnalyzer()
	h := handler.NewAnalyzeHandler(svc, serverTemplate, 0)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, analyzeReq(t, map[string]any{
		"source": "app.log",
		"text":   "a\nb\nc\n",
		"lines":  2,
	}))

	data := decodeData(t, rec)
	assert.Equal(t, "disk is full", data["answer"])
	assert.Equal(t, "app.log", data["source_file"])
	assert.Equal(t, float64(2), data["line_count"])
	assert.NotContains(t, data, "Prompt")

	assert.Equal(t, "Summarize these logs:\n\nb\nc", svc.got.Prompt)
	assert.Equal(t, 1, svc.persisted)
}

func TestAnalyzeHandler_RequestPromptOverridesTemplate(t *testing.T) {
	svc := successAnalyzer()
	h := handler.NewAnalyzeHandler(svc, serverTemplate, 0)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, analyzeReq(t, map[string]any{"text": "x", "prompt": "Why?"}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Why?\n\nx", svc.got.Prompt)
}

func TestAnalyzeHandler_Defaults(t *testing.T) {
	svc := successAnalyzer()
	h := handler.NewAnalyzeHandler(svc, prompt.Template{}, 0)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, analyzeReq(t, map[string]any{"text": numberedLines(25)}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "api", svc.got.Source)
	assert.Equal(t, 10, svc.got.LineCount)
	assert.True(t, strings.HasPrefix(svc.got.Prompt, "line 16\n"))
}

func TestAnalyzeHandler_ShortTextKeepsRequestedLines(t *testing.T) {
	svc := successAnalyzer()
	h := handler.NewAnalyzeHandler(svc, prompt.Template{}, 0)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, analyzeReq(t, map[string]any{"text": numberedLines(3), "lines": 50}))

	data := decodeData(t, rec)
	assert.Equal(t, float64(50), data["line_count"])
	assert.Equal(t, "line 1\nline 2\nline 3", svc.got.Prompt)
}

func TestAnalyzeHandler_LinesCapped(t *testing.T) {
	svc := successAnalyzer()
	h := handler.NewAnalyzeHandler(svc, prompt.Template{}, 0)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, analyzeReq(t, map[string]any{"text": numberedLines(1200), "lines": 5000}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1000, svc.got.LineCount)
}

func TestAnalyzeHandler_Validation(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{"missing text", map[string]any{"lines": 5}},
		{"negative lines", map[string]any{"text": "x", "lines": -1}},
		{"wrong type", map[string]any{"text": 42}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := successAnalyzer()
			h := handler.NewAnalyzeHandler(svc, serverTemplate, 0)
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, analyzeReq(t, tt.body))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "INVALID_REQUEST", decodeErrCode(t, rec))
			assert.Empty(t, svc.got.Prompt)
		})
	}
}

func TestAnalyzeHandler_InvalidJSON(t *testing.T) {
	h := handler.NewAnalyzeHandler(successAnalyzer(), serverTemplate, 0)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader("{not json"))

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeHandler_BodyTooLarge(t *testing.T) {
	h := handler.NewAnalyzeHandler(successAnalyzer(), serverTemplate, 64)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, analyzeReq(t, map[string]any{"text": strings.Repeat("x", 256)}))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAnalyzeHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"unavailable", fmt.Errorf("ollama completion: %w", ai.ErrProviderUnavailable), http.StatusBadGateway, "AI_PROVIDER_UNAVAILABLE"},
		{"timeout", fmt.Errorf("ollama completion: %w", ai.ErrInferenceTimeout), http.StatusGatewayTimeout, "AI_INFERENCE_TIMEOUT"},
		{"bad status", &ai.StatusError{Provider: "ollama", StatusCode: 500, Body: "boom"}, http.StatusBadGateway, "AI_PROVIDER_ERROR"},
		{"missing field", fmt.Errorf("x: %w", ai.ErrInvalidResponse), http.StatusBadGateway, "AI_PROVIDER_ERROR"},
		{"unknown", errors.New("something else"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := failingAnalyzer(tt.err)
			h := handler.NewAnalyzeHandler(svc, serverTemplate, 0)
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, analyzeReq(t, map[string]any{"text": "x"}))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeErrCode(t, rec))
			assert.Zero(t, svc.persisted)
		})
	}
}

func TestAnalyzeHandler_PersistFailure(t *testing.T) {
	svc := successAnalyzer()
	svc.persistErr = errors.New("disk full")
	h := handler.NewAnalyzeHandler(svc, serverTemplate, 0)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, analyzeReq(t, map[string]any{"text": "x"}))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", decodeErrCode(t, rec))
}
