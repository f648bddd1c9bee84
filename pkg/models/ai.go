// Package models contains shared data models used across the loganalyzer codebase.
package models

import (
	"context"
	"fmt"
)

// Completer is the contract every completion backend implements.
// Never call a specific backend directly; inject this interface.
type Completer interface {
	// Complete sends prompt to the backend and returns its raw answer text.
	Complete(ctx context.Context, prompt string) (string, error)
	// Name returns the backend identifier ("ollama" or "openai").
	Name() string
	// Model returns the model the backend was configured with.
	Model() string
}

// Backend selects which completion service handles a run.
type Backend string

const (
	BackendOllama Backend = "ollama"
	BackendOpenAI Backend = "openai"
)

// Backends lists every supported backend in display order.
func Backends() []Backend {
	return []Backend{BackendOllama, BackendOpenAI}
}

// ParseBackend validates s against the closed set of backends.
func ParseBackend(s string) (Backend, error) {
	for _, b := range Backends() {
		if string(b) == s {
			return b, nil
		}
	}
	return "", fmt.Errorf("unknown backend %q: must be one of ollama, openai", s)
}

func (b Backend) String() string { return string(b) }
