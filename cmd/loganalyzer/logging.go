package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/kiranshivaraju/loganalyzer/internal/config"
	"github.com/kiranshivaraju/loganalyzer/internal/record"
)

// setupFileLogging sends all logs to the append-only log file in text form.
// The returned func restores the previous logger and closes the file.
func setupFileLogging(cfg config.LogConfig) (func(), error) {
	return setupLogging(cfg, nil)
}

// setupServerLogging logs JSON to both stdout and the log file.
func setupServerLogging(cfg config.LogConfig, stdout io.Writer) (func(), error) {
	return setupLogging(cfg, stdout)
}

func setupLogging(cfg config.LogConfig, stdout io.Writer) (func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("--log-level: %w", err)
	}

	f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	var handler slog.Handler
	if stdout != nil {
		handler = slog.NewJSONHandler(io.MultiWriter(stdout, f), &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(f, &slog.HandlerOptions{Level: level, ReplaceAttr: localTime})
	}

	prev := slog.Default()
	slog.SetDefault(slog.New(handler))

	return func() {
		slog.SetDefault(prev)
		f.Close()
	}, nil
}

func localTime(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey {
		a.Value = slog.StringValue(a.Value.Time().Format(record.TimeLayout))
	}
	return a
}
