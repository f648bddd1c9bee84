package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/kiranshivaraju/loganalyzer/internal/api"
	"github.com/kiranshivaraju/loganalyzer/internal/api/handler"
	mw "github.com/kiranshivaraju/loganalyzer/internal/api/middleware"
	"github.com/kiranshivaraju/loganalyzer/internal/config"
	"github.com/kiranshivaraju/loganalyzer/internal/prompt"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analyzer over HTTP",
		Long: "serve exposes POST /api/v1/analyze and, with a database, the run history.\n" +
			"Set LOGANALYZER_API_KEY_HASH (see the apikey command) to require a bearer key.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			return runServe(cmd.Context(), cmd.OutOrStdout(), v)
		},
	}

	cmd.Flags().StringP(config.KeyConfigFile, "c", "", "YAML config file with the default prompt")
	cmd.Flags().Int(config.KeyListen, 8080, "HTTP listen port")
	return cmd
}

func runServe(ctx context.Context, stdout io.Writer, v *viper.Viper) error {
	// 1. Load config, fail fast on invalid config
	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	closeLog, err := setupServerLogging(cfg.Log, stdout)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.Info("config loaded", "backend", cfg.AI.Backend, "listen", cfg.Server.Port)

	// 2. Default prompt
	var tmpl prompt.Template
	if cfg.Run.ConfigFile != "" {
		tmpl, err = prompt.LoadTemplate(cfg.Run.ConfigFile)
		if err != nil {
			return err
		}
	}

	// 3. Provider, store and cache
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	// 4. Build router with dependencies
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      newServeRouter(cfg, a, tmpl),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AI.Timeout() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

func newServeRouter(cfg *config.Config, a *app, tmpl prompt.Template) http.Handler {
	auth := mw.NewAuth(cfg.Server.APIKeyHash)
	if !auth.Enabled() {
		slog.Warn("no API key hash configured, API is unauthenticated")
	}

	deps := api.Dependencies{
		Auth:           auth,
		HealthHandler:  handler.NewHealthHandler(a.provider.Name(), a.pingers()),
		AnalyzeHandler: handler.NewAnalyzeHandler(a.service(), tmpl, cfg.Server.MaxBodyBytes),
	}
	if a.cache != nil {
		deps.RateLimit = mw.NewRateLimit(a.cache, cfg.Server.RateLimit)
	}
	if a.store != nil {
		deps.ListRunsHandler = handler.NewListRunsHandler(a.store)
		deps.GetRunHandler = handler.NewGetRunHandler(a.store)
	}

	return api.NewRouter(deps)
}
