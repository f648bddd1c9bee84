package ai

import (
	"fmt"

	"github.com/kiranshivaraju/loganalyzer/internal/ai/ollama"
	"github.com/kiranshivaraju/loganalyzer/internal/ai/openai"
	"github.com/kiranshivaraju/loganalyzer/internal/config"
	"github.com/kiranshivaraju/loganalyzer/pkg/models"
)

// NewProvider constructs the completion backend selected in cfg.
// Called once per run, before any network activity.
func NewProvider(cfg config.AIConfig) (models.Completer, error) {
	switch models.Backend(cfg.Backend) {
	case models.BackendOllama:
		return ollama.NewProvider(cfg.Ollama), nil
	case models.BackendOpenAI:
		p, err := openai.NewProvider(cfg.OpenAI)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown backend %q: must be one of ollama, openai", cfg.Backend)
	}
}
