package prompt_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kiranshivaraju/loganalyzer/internal/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func numberedLines(count int) []string {
	lines := make([]string, count)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i+1)
	}
	return lines
}

// --- TailFile ---

func TestTailFile_TrailingSlice(t *testing.T) {
	for _, tc := range []struct {
		total, n int
	}{
		{total: 20, n: 10},
		{total: 10, n: 10},
		{total: 3, n: 10},
		{total: 1, n: 1},
		{total: 25, n: 24},
		{total: 0, n: 5},
	} {
		t.Run(fmt.Sprintf("L=%d,N=%d", tc.total, tc.n), func(t *testing.T) {
			all := numberedLines(tc.total)
			content := strings.Join(all, "\n")
			if tc.total > 0 {
				content += "\n"
			}
			path := writeFile(t, "app.log", content)

			got, err := prompt.TailFile(path, tc.n)
			require.NoError(t, err)

			want := min(tc.n, tc.total)
			require.Len(t, got, want)
			assert.Equal(t, all[tc.total-want:], got)
		})
	}
}

func TestTailFile_NoTrailingNewline(t *testing.T) {
	path := writeFile(t, "app.log", "a\nb\nc")

	got, err := prompt.TailFile(path, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, got)
}

func TestTailFile_CRLF(t *testing.T) {
	path := writeFile(t, "app.log", "a\r\nb\r\nc\r\n")

	got, err := prompt.TailFile(path, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestTailFile_BareCR(t *testing.T) {
	path := writeFile(t, "app.log", "a\rb\rc\rd\r")

	got, err := prompt.TailFile(path, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, got)
}

func TestTailText_MixedLineEndings(t *testing.T) {
	got := prompt.TailText("a\r\nb\rc\n\r\nd", 10)
	assert.Equal(t, []string{"a", "b", "c", "", "d"}, got)
}

func TestTailFile_KeepsDuplicatesAndBlankLines(t *testing.T) {
	path := writeFile(t, "app.log", "x\nERROR boom\n\nERROR boom\n")

	got, err := prompt.TailFile(path, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"ERROR boom", "", "ERROR boom"}, got)
}

func TestTailFile_LongLineNotTruncated(t *testing.T) {
	long := strings.Repeat("x", 200_000)
	path := writeFile(t, "app.log", "short\n"+long+"\n")

	got, err := prompt.TailFile(path, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, got[0], 200_000)
}

func TestTailFile_Missing(t *testing.T) {
	_, err := prompt.TailFile(filepath.Join(t.TempDir(), "nope.log"), 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, prompt.ErrReadFile)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestTailText(t *testing.T) {
	assert.Equal(t, []string{"b", "c"}, prompt.TailText("a\nb\nc\n", 2))
	assert.Equal(t, []string{}, prompt.TailText("", 3))
	assert.Equal(t, []string{}, prompt.TailText("a\nb", 0))
}

// --- Templates ---

func TestLoadTemplate(t *testing.T) {
	path := writeFile(t, "prompt.yaml", "prompt: |\n  Summarize these errors.\nextra: ignored\n")

	tmpl, err := prompt.LoadTemplate(path)
	require.NoError(t, err)
	assert.Equal(t, "Summarize these errors.\n", tmpl.Prompt)
}

func TestLoadTemplate_MissingPromptKey(t *testing.T) {
	path := writeFile(t, "prompt.yaml", "model: llama3.2\n")

	tmpl, err := prompt.LoadTemplate(path)
	require.NoError(t, err)
	assert.Empty(t, tmpl.Prompt)
}

func TestLoadTemplate_EmptyDocument(t *testing.T) {
	path := writeFile(t, "prompt.yaml", "")

	tmpl, err := prompt.LoadTemplate(path)
	require.NoError(t, err)
	assert.Empty(t, tmpl.Prompt)
}

func TestLoadTemplate_NotAMapping(t *testing.T) {
	path := writeFile(t, "prompt.yaml", "- one\n- two\n")

	_, err := prompt.LoadTemplate(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, prompt.ErrParseTemplate)
}

func TestLoadTemplate_Malformed(t *testing.T) {
	path := writeFile(t, "prompt.yaml", "prompt: [unterminated\n")

	_, err := prompt.LoadTemplate(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, prompt.ErrParseTemplate)
}

func TestLoadTemplate_Missing(t *testing.T) {
	_, err := prompt.LoadTemplate(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, prompt.ErrReadFile)
}

// --- Assemble / Build ---

func TestAssemble(t *testing.T) {
	got := prompt.Assemble(prompt.Template{Prompt: "Explain:"}, []string{"a", "b"})
	assert.Equal(t, "Explain:\n\na\nb", got)
}

func TestAssemble_EmptyPromptIsLinesAlone(t *testing.T) {
	got := prompt.Assemble(prompt.Template{}, []string{"a", "b"})
	assert.Equal(t, "a\nb", got)
}

func TestBuild(t *testing.T) {
	logPath := writeFile(t, "app.log", "1\n2\n3\n4\n")
	cfgPath := writeFile(t, "prompt.yaml", "prompt: What failed?\n")

	a, err := prompt.Build(logPath, cfgPath, 2)
	require.NoError(t, err)
	assert.Equal(t, logPath, a.Source)
	assert.Len(t, a.Lines, 2)
	assert.Equal(t, "What failed?\n\n3\n4", a.Text)
}

func TestBuild_WithoutPromptKey(t *testing.T) {
	logPath := writeFile(t, "app.log", "1\n2\n3\n")
	cfgPath := writeFile(t, "prompt.yaml", "other: value\n")

	a, err := prompt.Build(logPath, cfgPath, 10)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n3", a.Text)
}

func TestBuild_MissingConfig(t *testing.T) {
	logPath := writeFile(t, "app.log", "1\n")

	_, err := prompt.Build(logPath, filepath.Join(t.TempDir(), "nope.yaml"), 10)
	assert.ErrorIs(t, err, prompt.ErrReadFile)
}
