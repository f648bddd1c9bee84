package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/loganalyzer/internal/watch"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newWatchCmd(v *viper.Viper) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch -f FILE -c CONFIG",
		Short: "Re-run the analysis every time the file changes",
		Long: "watch analyzes the file once, then again each time it is written to.\n" +
			"A failed run is reported and the watcher keeps going. Press Ctrl-C to stop.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			return runWatch(cmd, v, debounce)
		},
	}

	addInputFlags(cmd.Flags())
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before re-running")
	return cmd
}

func runWatch(cmd *cobra.Command, v *viper.Viper, debounce time.Duration) error {
	cfg, closeLog, err := startRun(v)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		slog.Error("setup failed", "error", err)
		return err
	}
	defer a.Close()

	svc := a.service()
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	run := func(ctx context.Context) {
		if err := analyzeFile(ctx, out, cfg, svc); err != nil {
			slog.Error("analysis failed", "error", err)
			fmt.Fprintf(errOut, "\nError: %v\n\n", err)
		}
	}

	w, err := watch.New(cfg.Run.File, debounce, run)
	if err != nil {
		return err
	}

	run(ctx)
	fmt.Fprintf(out, "Watching %s for changes (Ctrl-C to stop)\n", w.Path())
	return w.Run(ctx)
}
