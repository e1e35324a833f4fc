package assets

import (
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

const fallbackTranscriptTemplateName = "transcript.md.go.tmpl"

//go:embed templates/transcript.md.go.tmpl
var fallbackTranscriptTemplate string

// TranscriptTemplate is the data passed to transcript templates
type TranscriptTemplate struct {
	Title  string           `yaml:"title"`
	Prompt string           `yaml:"prompt"`
	Genre  string           `yaml:"genre"`
	Mood   string           `yaml:"mood"`
	Turns  []TranscriptTurn `yaml:"turns"`
	Ended  bool             `yaml:"ended"`
}

// TranscriptTurn is one generated segment of the story
type TranscriptTurn struct {
	Number     int      `yaml:"number"`
	ChoiceMade string   `yaml:"choice_made,omitempty"`
	Narrative  string   `yaml:"narrative"`
	Choices    []string `yaml:"choices,omitempty"`
	Keywords   []string `yaml:"keywords,omitempty"`
	ImageRef   string   `yaml:"image_ref,omitempty"`
}

func ParseTranscriptTemplate(templatePath string) (*template.Template, error) {
	return parseTemplateWithFallback(templatePath, fallbackTranscriptTemplateName, fallbackTranscriptTemplate)
}

func WriteTranscript(output io.Writer, templatePath string, templateData TranscriptTemplate) error {
	tmpl, err := ParseTranscriptTemplate(templatePath)
	if err != nil {
		return fmt.Errorf("ParseTranscriptTemplate() > %w", err)
	}
	if err := tmpl.Execute(output, templateData); err != nil {
		return fmt.Errorf("tmpl.Execute() > %w", err)
	}
	return nil
}

func parseTemplateWithFallback(templatePath, fallbackName, fallbackTemplate string) (*template.Template, error) {
	funcMap := template.FuncMap{
		"join": strings.Join,
	}

	if templatePath != "" {
		if _, err := os.Stat(templatePath); err == nil {
			fileName := filepath.Base(templatePath)
			tmpl, err := template.New(fileName).
				Funcs(funcMap).
				ParseFiles(templatePath)
			if err == nil {
				return tmpl, nil
			}
			slog.Default().Warn("failed to parse a templatePath",
				slog.String("templatePath", templatePath),
				slog.Any("error", err),
			)
		}
	}

	tmpl, err := template.New(fallbackName).
		Funcs(funcMap).
		Parse(fallbackTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded template: %w", err)
	}
	return tmpl, nil
}
