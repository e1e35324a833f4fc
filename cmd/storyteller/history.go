package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/at-ishikawa/storyteller/internal/database"
	"github.com/at-ishikawa/storyteller/internal/export"
	"github.com/at-ishikawa/storyteller/internal/story"
	"github.com/at-ishikawa/storyteller/internal/turnlog"
)

func newHistoryCommand() *cobra.Command {
	var output string

	command := &cobra.Command{
		Use:   "history <story-id>",
		Short: "Show the recorded turns of a story",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			storyID := args[0]

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.Database.Enabled() {
				return errDatabaseNotConfigured
			}

			db, err := database.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("database.Open() > %w", err)
			}
			defer func() {
				_ = db.Close()
			}()

			return showHistory(cmd.Context(), cmd.OutOrStdout(), turnlog.NewDBRepository(db), storyID, output, cfg.Templates.TranscriptTemplate)
		},
	}

	command.Flags().StringVarP(&output, "output", "o", "", "Write the transcript to this file (.md, .pdf, .yml or .yaml) instead of printing it")
	return command
}

// showHistory prints the recorded turns of a story, or exports them when output is set.
func showHistory(ctx context.Context, w io.Writer, repository turnlog.Repository, storyID, output, templatePath string) error {
	entries, err := repository.FindByStory(ctx, storyID)
	if err != nil {
		return fmt.Errorf("FindByStory(%s) > %w", storyID, err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("no turns recorded for story %s", storyID)
	}

	if output != "" {
		setup, err := storySetup(ctx, repository, storyID)
		if err != nil {
			return err
		}
		if err := export.Write(output, templatePath, snapshotFromEntries(storyID, setup, entries)); err != nil {
			return fmt.Errorf("export.Write() > %w", err)
		}
		_, _ = fmt.Fprintf(w, "Transcript saved to %s\n", output)
		return nil
	}
	printEntries(w, entries)
	return nil
}

// storySetup returns an empty setup for stories recorded before setups were stored.
func storySetup(ctx context.Context, repository turnlog.Repository, storyID string) (story.Setup, error) {
	row, err := repository.FindStory(ctx, storyID)
	if errors.Is(err, turnlog.ErrStoryNotFound) {
		slog.Default().Warn("story setup was not recorded", "story", storyID)
		return story.Setup{}, nil
	}
	if err != nil {
		return story.Setup{}, fmt.Errorf("FindStory(%s) > %w", storyID, err)
	}
	return row.Setup(), nil
}

// snapshotFromEntries rebuilds a read-only view of a recorded story for export.
func snapshotFromEntries(storyID string, setup story.Setup, entries []turnlog.Entry) story.Snapshot {
	snapshot := story.Snapshot{
		StoryID: storyID,
		Setup:   setup,
		Phase:   story.PhaseInProgress,
		Turns:   make([]story.Turn, 0, len(entries)),
	}
	narratives := make([]string, 0, len(entries))
	for _, entry := range entries {
		turn := entry.Turn()
		snapshot.Turns = append(snapshot.Turns, turn)
		narratives = append(narratives, turn.Narrative)
	}

	last := snapshot.Turns[len(snapshot.Turns)-1]
	if last.Ends() {
		snapshot.Phase = story.PhaseEnded
	}
	snapshot.Choices = last.Choices
	snapshot.ImageRef = last.ImageRef
	snapshot.Narrative = last.Narrative
	snapshot.Transcript = strings.Join(narratives, story.TranscriptDelimiter)
	return snapshot
}

func printEntries(w io.Writer, entries []turnlog.Entry) {
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)
	for _, entry := range entries {
		_, _ = bold.Fprintf(w, "#%d", entry.Sequence)
		_, _ = faint.Fprintf(w, " %s\n", entry.CreatedAt.Format("2006-01-02 15:04:05"))
		if entry.ChoiceMade != "" {
			_, _ = fmt.Fprintf(w, "> %s\n", entry.ChoiceMade)
		}
		_, _ = fmt.Fprintf(w, "%s\n", entry.Narrative)
		if entry.ImageRef != "" {
			_, _ = faint.Fprintf(w, "[Scene: %s]\n", entry.ImageRef)
		}
		for i, choice := range entry.Choices {
			_, _ = fmt.Fprintf(w, "  %d. %s\n", i+1, choice)
		}
		_, _ = fmt.Fprintln(w)
	}
}
