package models_test

import (
	"testing"

	"github.com/kiranshivaraju/loganalyzer/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBackend(t *testing.T) {
	b, err := models.ParseBackend("ollama")
	require.NoError(t, err)
	assert.Equal(t, models.BackendOllama, b)

	b, err = models.ParseBackend("openai")
	require.NoError(t, err)
	assert.Equal(t, models.BackendOpenAI, b)
}

func TestParseBackend_Unknown(t *testing.T) {
	_, err := models.ParseBackend("anthropic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama, openai")
}

func TestRun_Record(t *testing.T) {
	run := models.Run{
		SourceFile: "app.log",
		LineCount:  7,
		Backend:    "openai",
		Model:      "gpt-4o",
		Answer:     "disk full",
	}
	rec := run.Record()
	assert.Equal(t, "app.log", rec.SourceFile)
	assert.Equal(t, 7, rec.LineCount)
	assert.Equal(t, "openai", rec.Backend)
	assert.Equal(t, "gpt-4o", rec.Model)
	assert.Equal(t, "disk full", rec.Answer)
}
