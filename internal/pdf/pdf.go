// Package pdf renders story transcripts written in markdown as PDF files.
package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mandolyte/mdtopdf"
)

var markdownExtensions = []string{".md", ".markdown"}

// RenderMarkdown writes markdown content as a PDF file at pdfPath.
func RenderMarkdown(content []byte, pdfPath string) error {
	if !strings.EqualFold(filepath.Ext(pdfPath), ".pdf") {
		return fmt.Errorf("output file must have .pdf extension: %s", pdfPath)
	}

	renderer := mdtopdf.NewPdfRenderer("P", "A4", pdfPath, "", nil, mdtopdf.LIGHT)
	if err := renderer.Process(content); err != nil {
		return fmt.Errorf("renderer.Process() > %w", err)
	}
	return nil
}

// PDFPath is the PDF written next to a markdown transcript.
func PDFPath(markdownPath string) string {
	return strings.TrimSuffix(markdownPath, filepath.Ext(markdownPath)) + ".pdf"
}

// ConvertMarkdownToPDF renders a markdown transcript into PDFPath and returns its absolute path.
func ConvertMarkdownToPDF(markdownPath string) (string, error) {
	if !slices.Contains(markdownExtensions, strings.ToLower(filepath.Ext(markdownPath))) {
		return "", fmt.Errorf("input file must have .md extension: %s", markdownPath)
	}

	content, err := os.ReadFile(markdownPath)
	if err != nil {
		return "", fmt.Errorf("os.ReadFile(%s) > %w", markdownPath, err)
	}

	pdfPath, err := filepath.Abs(PDFPath(markdownPath))
	if err != nil {
		return "", fmt.Errorf("filepath.Abs(%s) > %w", markdownPath, err)
	}
	if err := RenderMarkdown(content, pdfPath); err != nil {
		return "", fmt.Errorf("RenderMarkdown() > %w", err)
	}
	return pdfPath, nil
}
