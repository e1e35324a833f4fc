package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/storyteller/internal/database"
	"github.com/at-ishikawa/storyteller/schemas"
)

var errDatabaseNotConfigured = errors.New("database.host is not configured")

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations for the turn log",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			result, err := database.Migrate(db, schemas.Migrations, schemas.MigrationsDirectory)
			if err != nil {
				return fmt.Errorf("database.Migrate() > %w", err)
			}

			if !result.Changed() {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No new migrations, schema version %d\n", result.To)
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Migrated schema version %d to %d\n", result.From, result.To)
			return nil
		},
	}
}
