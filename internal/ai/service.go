package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/loganalyzer/internal/cache"
	"github.com/kiranshivaraju/loganalyzer/internal/record"
	"github.com/kiranshivaraju/loganalyzer/internal/store"
	"github.com/kiranshivaraju/loganalyzer/pkg/models"
)

// AnalyzeRequest is an assembled prompt plus where it came from.
// LineCount is the number of lines the caller asked for, which is what
// gets recorded even when the source had fewer.
type AnalyzeRequest struct {
	Source    string
	LineCount int
	Prompt    string
}

// AnalyzeResult is the normalized answer of one dispatch.
type AnalyzeResult struct {
	RunID     uuid.UUID `json:"id"`
	Answer    string    `json:"answer"`
	Backend   string    `json:"backend"`
	Model     string    `json:"model"`
	Source    string    `json:"source_file"`
	LineCount int       `json:"line_count"`
	Cached    bool      `json:"cached"`
	CreatedAt time.Time `json:"created_at"`
	Prompt    string    `json:"-"`
}

// Run converts the result into its run history form.
func (r *AnalyzeResult) Run() *models.Run {
	return &models.Run{
		ID:         r.RunID,
		SourceFile: r.Source,
		LineCount:  r.LineCount,
		Backend:    r.Backend,
		Model:      r.Model,
		Prompt:     r.Prompt,
		Answer:     r.Answer,
		Cached:     r.Cached,
		CreatedAt:  r.CreatedAt,
	}
}

// Service dispatches prompts to a single completion backend and persists
// the outcome. Records, run history and caching are each optional.
type Service struct {
	provider models.Completer
	records  record.Writer
	store    store.Store
	cache    cache.Cache
	cacheTTL time.Duration
	now      func() time.Time
}

type Option func(*Service)

// WithRecordWriter appends a persisted record after each successful run.
func WithRecordWriter(w record.Writer) Option {
	return func(s *Service) { s.records = w }
}

// WithStore saves every successful run to the history store.
func WithStore(st store.Store) Option {
	return func(s *Service) { s.store = st }
}

// WithCache serves repeated prompts from c for ttl.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new Service.
func NewService(provider models.Completer, opts ...Option) *Service {
	s := &Service{provider: provider, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze sends the prompt to the backend and returns the trimmed answer.
// Failures are never retried and leave nothing persisted.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	backend, model := s.provider.Name(), s.provider.Model()
	slog.Info("dispatching prompt", "backend", backend, "model", model,
		"source", req.Source, "lines", req.LineCount, "prompt_bytes", len(req.Prompt))

	var key string
	if s.cache != nil {
		key = cache.CompletionKey(backend, model, req.Prompt)
		if cached, ok := s.lookup(ctx, key); ok {
			slog.Info("completion served from cache", "key", key)
			return s.result(req, cached, true), nil
		}
	}

	raw, err := s.provider.Complete(ctx, req.Prompt)
	if err != nil {
		slog.Error("completion failed", "backend", backend, "error", err)
		return nil, fmt.Errorf("%s completion: %w", backend, err)
	}
	answer := strings.TrimSpace(raw)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, []byte(answer), s.cacheTTL); err != nil {
			slog.Warn("caching completion failed", "error", err)
		}
	}

	return s.result(req, answer, false), nil
}

// Persist appends the persisted record and saves the run to history,
// whichever of the two are configured.
func (s *Service) Persist(ctx context.Context, res *AnalyzeResult) error {
	var errs []error

	if s.records != nil {
		run := res.Run()
		if err := s.records.Write(run.Record()); err != nil {
			slog.Error("writing record failed", "error", err)
			errs = append(errs, fmt.Errorf("persist record: %w", err))
		} else {
			slog.Info("record appended", "run_id", res.RunID)
		}
	}

	if s.store != nil {
		if err := s.store.CreateRun(ctx, res.Run()); err != nil {
			slog.Error("saving run failed", "error", err)
			errs = append(errs, fmt.Errorf("save run: %w", err))
		} else {
			slog.Info("run saved", "run_id", res.RunID)
		}
	}

	return errors.Join(errs...)
}

// lookup treats every cache error as a miss.
func (s *Service) lookup(ctx context.Context, key string) (string, bool) {
	val, found, err := s.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("cache lookup failed", "error", err)
		return "", false
	}
	if !found {
		return "", false
	}
	return string(val), true
}

func (s *Service) result(req AnalyzeRequest, answer string, cached bool) *AnalyzeResult {
	return &AnalyzeResult{
		RunID:     uuid.New(),
		Answer:    answer,
		Backend:   s.provider.Name(),
		Model:     s.provider.Model(),
		Source:    req.Source,
		LineCount: req.LineCount,
		Cached:    cached,
		CreatedAt: s.now(),
		Prompt:    req.Prompt,
	}
}
