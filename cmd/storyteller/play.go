package main

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/at-ishikawa/storyteller/internal/cli"
	"github.com/at-ishikawa/storyteller/internal/config"
	"github.com/at-ishikawa/storyteller/internal/export"
	"github.com/at-ishikawa/storyteller/internal/story"
)

func newPlayCommand() *cobra.Command {
	var (
		setup  story.Setup
		output string
		save   bool
	)

	command := &cobra.Command{
		Use:   "play",
		Short: "Play an interactive story in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "" {
				if _, err := export.FormatFromPath(output); err != nil {
					return err
				}
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			generator, release, err := newGenerator(ctx, cfg, prometheus.NewRegistry())
			if err != nil {
				return err
			}
			defer release()

			recorder, closeRecorder, err := openRecorder(cfg.Database)
			if err != nil {
				return err
			}
			defer closeRecorder()

			session := story.NewSession(generator, newResolver(cfg.Images), sessionOptions(recorder)...)
			storyCLI := cli.NewStoryCLI(session, setup)
			if err := storyCLI.Run(ctx); err != nil {
				return err
			}
			return saveTranscript(cmd.OutOrStdout(), cfg, session.Snapshot(), output, save)
		},
	}

	flags := command.Flags()
	flags.StringVar(&setup.Prompt, "prompt", "", "How the story begins. Asked interactively when empty")
	flags.StringVar(&setup.Genre, "genre", "", fmt.Sprintf("Genre of the story, for example %v", story.Genres))
	flags.StringVar(&setup.Mood, "mood", "", fmt.Sprintf("Mood of the story, for example %v", story.Moods))
	flags.StringVarP(&output, "output", "o", "", "Write the transcript to this file (.md, .pdf, .yml or .yaml)")
	flags.BoolVar(&save, "save", false, "Write the transcript as markdown into outputs.transcript_directory")

	return command
}

func saveTranscript(w io.Writer, cfg *config.Config, snapshot story.Snapshot, output string, save bool) error {
	if len(snapshot.Turns) == 0 {
		return nil
	}

	path := output
	if path == "" {
		if !save {
			return nil
		}
		path = export.DefaultPath(cfg.Outputs.TranscriptDirectory, snapshot.StoryID, export.FormatMarkdown)
	}
	if err := export.Write(path, cfg.Templates.TranscriptTemplate, snapshot); err != nil {
		return fmt.Errorf("export.Write() > %w", err)
	}
	_, _ = fmt.Fprintf(w, "Transcript saved to %s\n", path)
	return nil
}
