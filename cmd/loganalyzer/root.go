package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/kiranshivaraju/loganalyzer/internal/ai"
	"github.com/kiranshivaraju/loganalyzer/internal/config"
	"github.com/kiranshivaraju/loganalyzer/internal/prompt"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var banner = strings.Repeat("=", 60)

func newRootCmd() *cobra.Command {
	v := config.New()

	cmd := &cobra.Command{
		Use:   "loganalyzer -f FILE -c CONFIG",
		Short: "Send a YAML-based prompt plus the last N lines of a file to an LLM",
		Long: "loganalyzer reads the last N lines of a text file, prepends the prompt from a\n" +
			"YAML config file and sends the result to a local Ollama server or to OpenAI.",
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			return runAnalyze(cmd, v)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringP(config.KeyBackend, "b", "ollama", "completion backend: ollama or openai")
	pf.String(config.KeyHost, "localhost", "Ollama server host")
	pf.IntP(config.KeyPort, "p", 11434, "Ollama server port")
	pf.StringP(config.KeyModel, "m", "llama3.2", "model name for Ollama")
	pf.String(config.KeyOpenAIModel, "gpt-4o", "model name for OpenAI")
	pf.StringP(config.KeyOutput, "o", "llm-responses.txt", "file saved responses are appended to")
	pf.BoolP(config.KeySave, "s", false, "append each response to the output file")
	pf.String(config.KeyLogFile, "log-analyzer.log", "file logs are appended to")
	pf.String(config.KeyLogLevel, "debug", "log level: debug, info, warn or error")
	pf.String(config.KeyDatabaseURL, "", "PostgreSQL URL for run history (optional)")
	pf.String(config.KeyRedisURL, "", "Redis URL for the completion cache (optional)")

	addInputFlags(cmd.Flags())

	cmd.AddCommand(
		newWatchCmd(v),
		newServeCmd(v),
		newHistoryCmd(v),
		newAPIKeyCmd(),
	)
	return cmd
}

func addInputFlags(fs *pflag.FlagSet) {
	fs.StringP(config.KeyFile, "f", "", "path to the text file")
	fs.StringP(config.KeyConfigFile, "c", "", "path to the YAML config file")
	fs.IntP(config.KeyLines, "n", 10, "number of lines to read from the file")
}

// startRun opens the persistent log, then loads and validates settings for
// commands that analyze a file. Validation failures are logged before they
// are returned. The returned func closes the log.
func startRun(v *viper.Viper) (*config.Config, func(), error) {
	closeLog, err := setupFileLogging(config.LoadLog(v))
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(v)
	if err == nil {
		err = cfg.RequireInputs()
	}
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		closeLog()
		return nil, nil, err
	}
	return cfg, closeLog, nil
}

func runAnalyze(cmd *cobra.Command, v *viper.Viper) error {
	cfg, closeLog, err := startRun(v)
	if err != nil {
		return err
	}
	defer closeLog()

	slog.Info("starting analysis",
		"file", cfg.Run.File, "config", cfg.Run.ConfigFile, "lines", cfg.Run.Lines,
		"backend", cfg.AI.Backend, "host", cfg.AI.Ollama.Host, "port", cfg.AI.Ollama.Port,
		"model", cfg.AI.Ollama.Model, "openai_model", cfg.AI.OpenAI.Model, "save", cfg.Output.Save)

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		slog.Error("setup failed", "error", err)
		return err
	}
	defer a.Close()

	if err := analyzeFile(ctx, cmd.OutOrStdout(), cfg, a.service()); err != nil {
		return err
	}

	slog.Info("finished analysis")
	return nil
}

// analyzeFile runs one assemble, dispatch, report, persist cycle.
func analyzeFile(ctx context.Context, out io.Writer, cfg *config.Config, svc *ai.Service) error {
	asm, err := prompt.Build(cfg.Run.File, cfg.Run.ConfigFile, cfg.Run.Lines)
	if err != nil {
		slog.Error("assembling prompt failed", "error", err)
		return err
	}

	res, err := svc.Analyze(ctx, ai.AnalyzeRequest{
		Source:    asm.Source,
		LineCount: cfg.Run.Lines,
		Prompt:    asm.Text,
	})
	if err != nil {
		return err
	}

	printAnswer(out, res.Answer)

	if err := svc.Persist(ctx, res); err != nil {
		return err
	}
	if cfg.Output.Save {
		fmt.Fprintf(out, "Response appended to %s\n", cfg.Output.File)
	}
	return nil
}

func printAnswer(w io.Writer, answer string) {
	fmt.Fprintf(w, "\n%s\nLLM RESPONSE:\n%s\n%s\n%s\n\n", banner, banner, answer, banner)
}
