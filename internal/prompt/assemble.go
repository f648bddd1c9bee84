package prompt

import (
	"log/slog"
	"strings"
)

// Assembled is a prompt ready for dispatch, with the inputs it was built from.
type Assembled struct {
	Source   string
	Template Template
	Lines    []string
	Text     string
}

// Assemble joins the template prompt and the trailing lines.
// An empty template prompt produces the lines alone, with no leading separator.
func Assemble(tmpl Template, lines []string) string {
	body := strings.Join(lines, "\n")
	if tmpl.Prompt == "" {
		return body
	}
	return tmpl.Prompt + "\n\n" + body
}

// Build reads the last n lines of filePath and the template at configPath
// and returns the assembled prompt. Any read or parse failure aborts.
func Build(filePath, configPath string, n int) (*Assembled, error) {
	slog.Info("reading file", "path", filePath)
	lines, err := TailFile(filePath, n)
	if err != nil {
		return nil, err
	}
	slog.Debug("trailing lines", "requested", n, "read", len(lines), "text", strings.Join(lines, "\n"))

	slog.Info("reading config file", "path", configPath)
	tmpl, err := LoadTemplate(configPath)
	if err != nil {
		return nil, err
	}
	slog.Debug("prompt from config", "prompt", tmpl.Prompt)

	text := Assemble(tmpl, lines)
	slog.Debug("full prompt", "prompt", text)

	return &Assembled{
		Source:   filePath,
		Template: tmpl,
		Lines:    lines,
		Text:     text,
	}, nil
}
