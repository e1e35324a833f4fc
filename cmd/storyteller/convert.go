package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/storyteller/internal/pdf"
)

func newConvertCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <transcript.md>",
		Short: "Convert a markdown transcript into a PDF next to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pdfPath, err := pdf.ConvertMarkdownToPDF(args[0])
			if err != nil {
				return fmt.Errorf("pdf.ConvertMarkdownToPDF(%s) > %w", args[0], err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "PDF generated: %s\n", pdfPath)
			return nil
		},
	}
}
