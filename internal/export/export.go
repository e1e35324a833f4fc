package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/at-ishikawa/storyteller/internal/assets"
	"github.com/at-ishikawa/storyteller/internal/pdf"
	"github.com/at-ishikawa/storyteller/internal/story"
)

type Format string

const (
	FormatMarkdown Format = "md"
	FormatPDF      Format = "pdf"
	FormatYAML     Format = "yaml"
)

// FormatFromPath picks the export format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".pdf":
		return FormatPDF, nil
	case ".yml", ".yaml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported transcript extension %q: use .md, .pdf, .yml or .yaml", filepath.Ext(path))
	}
}

// DefaultPath returns where a story is saved when no explicit path is given.
func DefaultPath(directory, storyID string, format Format) string {
	return filepath.Join(directory, storyID+"."+string(format))
}

// Document converts a session snapshot into transcript template data.
func Document(snapshot story.Snapshot) assets.TranscriptTemplate {
	doc := assets.TranscriptTemplate{
		Title:  title(snapshot.Setup.Prompt),
		Prompt: snapshot.Setup.Prompt,
		Genre:  snapshot.Setup.Genre,
		Mood:   snapshot.Setup.Mood,
		Turns:  make([]assets.TranscriptTurn, 0, len(snapshot.Turns)),
		Ended:  snapshot.Phase == story.PhaseEnded,
	}
	for i, turn := range snapshot.Turns {
		doc.Turns = append(doc.Turns, assets.TranscriptTurn{
			Number:     i + 1,
			ChoiceMade: turn.ChoiceMade,
			Narrative:  turn.Narrative,
			Choices:    turn.Choices,
			Keywords:   turn.Keywords,
			ImageRef:   turn.ImageRef,
		})
	}
	return doc
}

func title(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "Untitled story"
	}
	r, size := utf8.DecodeRuneInString(prompt)
	return string(unicode.ToUpper(r)) + prompt[size:]
}

// Markdown renders the document through the transcript template.
func Markdown(templatePath string, doc assets.TranscriptTemplate) ([]byte, error) {
	var buf bytes.Buffer
	if err := assets.WriteTranscript(&buf, templatePath, doc); err != nil {
		return nil, fmt.Errorf("assets.WriteTranscript() > %w", err)
	}
	return buf.Bytes(), nil
}

// Write exports the snapshot to path in the format implied by its extension.
func Write(path, templatePath string, snapshot story.Snapshot) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("os.MkdirAll(%s) > %w", dir, err)
		}
	}

	doc := Document(snapshot)
	switch format {
	case FormatYAML:
		content, err := yaml.Marshal(doc)
		if err != nil {
			return fmt.Errorf("yaml.Marshal() > %w", err)
		}
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return fmt.Errorf("os.WriteFile(%s) > %w", path, err)
		}
	case FormatPDF:
		content, err := Markdown(templatePath, doc)
		if err != nil {
			return err
		}
		if err := pdf.RenderMarkdown(content, path); err != nil {
			return fmt.Errorf("pdf.RenderMarkdown() > %w", err)
		}
	default:
		content, err := Markdown(templatePath, doc)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return fmt.Errorf("os.WriteFile(%s) > %w", path, err)
		}
	}
	return nil
}
