package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/kiranshivaraju/loganalyzer/internal/config"
	"github.com/kiranshivaraju/loganalyzer/internal/record"
	"github.com/kiranshivaraju/loganalyzer/internal/store"
	"github.com/kiranshivaraju/loganalyzer/pkg/models"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const excerptLen = 60

func newHistoryCmd(v *viper.Viper) *cobra.Command {
	var (
		limit   int
		backend string
		file    string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previous runs",
		Long: "history lists runs saved in the run history database, newest first.\n" +
			"With --file it reads a saved output file instead.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be at least 1, got %d", limit)
			}
			if backend != "" {
				if _, err := models.ParseBackend(backend); err != nil {
					return err
				}
			}

			var (
				recs []models.Record
				err  error
			)
			if file != "" {
				recs, err = recordsFromFile(file, backend, limit)
			} else {
				if err := v.BindPFlags(cmd.InheritedFlags()); err != nil {
					return err
				}
				recs, err = recordsFromStore(cmd, v, backend, limit)
			}
			if err != nil {
				return err
			}

			printRecords(cmd.OutOrStdout(), recs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to show")
	cmd.Flags().StringVar(&backend, "backend", "", "only show runs from this backend")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read runs from a saved output file")
	return cmd
}

// recordsFromFile returns the newest matching records in the file, newest first.
func recordsFromFile(path, backend string, limit int) ([]models.Record, error) {
	all, err := record.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var out []models.Record
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		if backend != "" && all[i].Backend != backend {
			continue
		}
		out = append(out, all[i])
	}
	return out, nil
}

func recordsFromStore(cmd *cobra.Command, v *viper.Viper, backend string, limit int) ([]models.Record, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("--database-url is required unless --file is given")
	}

	ctx := cmd.Context()
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	runs, _, err := store.NewPostgresStore(pool).ListRuns(ctx, store.RunFilter{
		Backend: backend,
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	recs := make([]models.Record, 0, len(runs))
	for _, r := range runs {
		recs = append(recs, r.Record())
	}
	return recs, nil
}

func printRecords(w io.Writer, recs []models.Record) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No runs found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIMESTAMP\tBACKEND\tMODEL\tLINES\tSOURCE\tANSWER")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.Timestamp.Format(record.TimeLayout), r.Backend, r.Model, r.LineCount, r.SourceFile, excerpt(r.Answer))
	}
	tw.Flush()
}

// excerpt flattens the answer onto one line and shortens it.
func excerpt(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= excerptLen {
		return s
	}
	return string(r[:excerptLen-3]) + "..."
}
