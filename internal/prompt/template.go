package prompt

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrParseTemplate is returned when the template file is not a YAML mapping.
var ErrParseTemplate = errors.New("parsing prompt template")

// Template is the YAML configuration document holding the prompt text.
// Unknown keys are ignored.
type Template struct {
	Prompt string `yaml:"prompt"`
}

// LoadTemplate reads and parses the YAML template at path.
// A missing prompt key or an empty document yields an empty Prompt.
func LoadTemplate(path string) (Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return Template{}, fmt.Errorf("%w %s: %w", ErrReadFile, path, err)
	}
	defer f.Close()

	return ParseTemplate(f)
}

// ParseTemplate decodes a template document from r.
func ParseTemplate(r io.Reader) (Template, error) {
	var tmpl Template
	if err := yaml.NewDecoder(r).Decode(&tmpl); err != nil {
		if errors.Is(err, io.EOF) {
			return Template{}, nil
		}
		return Template{}, fmt.Errorf("%w: %w", ErrParseTemplate, err)
	}
	return tmpl, nil
}
