package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kiranshivaraju/loganalyzer/internal/ai"
	"github.com/kiranshivaraju/loganalyzer/internal/api/handler"
	"github.com/kiranshivaraju/loganalyzer/internal/cache"
	"github.com/kiranshivaraju/loganalyzer/internal/config"
	"github.com/kiranshivaraju/loganalyzer/internal/record"
	"github.com/kiranshivaraju/loganalyzer/internal/store"
	"github.com/kiranshivaraju/loganalyzer/pkg/models"
)

// app holds the collaborators of one invocation. Store and cache are nil
// unless their URLs are configured.
type app struct {
	cfg      *config.Config
	provider models.Completer
	records  record.Writer
	store    store.Store
	cache    cache.Cache
	closers  []func()
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	provider, err := ai.NewProvider(cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("create AI provider: %w", err)
	}
	slog.Info("AI provider initialized", "backend", provider.Name(), "model", provider.Model())

	a := &app{cfg: cfg, provider: provider}

	if cfg.Output.Save {
		a.records = record.NewFileWriter(cfg.Output.File)
	}

	if cfg.Database.URL != "" {
		pool, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		slog.Info("database connected")

		if err := store.RunMigrations(cfg.Database.URL); err != nil {
			a.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		slog.Info("database migrations applied")

		a.store = store.NewPostgresStore(pool)
	}

	if cfg.Redis.URL != "" {
		rc, err := cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create redis cache: %w", err)
		}
		if err := rc.Ping(ctx); err != nil {
			// fail open
			slog.Warn("redis unavailable, completion cache disabled", "error", err)
			rc.Close()
		} else {
			a.closers = append(a.closers, func() { rc.Close() })
			a.cache = rc
			slog.Info("redis connected")
		}
	}

	return a, nil
}

func (a *app) service() *ai.Service {
	var opts []ai.Option
	if a.records != nil {
		opts = append(opts, ai.WithRecordWriter(a.records))
	}
	if a.store != nil {
		opts = append(opts, ai.WithStore(a.store))
	}
	if a.cache != nil {
		opts = append(opts, ai.WithCache(a.cache, a.cfg.Redis.CacheTTL))
	}
	return ai.NewService(a.provider, opts...)
}

// pingers lists every optional dependency; disabled ones map to nil.
func (a *app) pingers() map[string]handler.Pinger {
	p := map[string]handler.Pinger{"database": nil, "cache": nil}
	if a.store != nil {
		p["database"] = a.store
	}
	if a.cache != nil {
		p["cache"] = a.cache
	}
	return p
}

// Close releases connections in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
