package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configFile string
	provider   Provider
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		_, _ = fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	rootCommand := newRootCommand()
	if err := rootCommand.Execute(); err != nil {
		if _, fprintfErr := fmt.Fprintf(os.Stderr, "failed to execute a command: %+v\n", err); fprintfErr != nil {
			panic(fmt.Errorf("failed to output an error: %w. Reason: %w", err, fprintfErr))
		}
		os.Exit(1)
	}
	os.Exit(0)
}

func newRootCommand() *cobra.Command {
	var debugMode bool
	rootCommand := &cobra.Command{
		Use:           "storyteller",
		Short:         "Interactive stories written by a language model",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogger(debugMode)
			return nil
		},
	}
	rootCommand.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCommand.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug mode")
	rootCommand.PersistentFlags().Var(&provider, "provider", fmt.Sprintf("Model provider overriding the config. Possible values are %v", allProviders))

	rootCommand.AddCommand(
		newPlayCommand(),
		newServeCommand(),
		newMigrateCommand(),
		newHistoryCommand(),
		newConvertCommand(),
	)
	return rootCommand
}

// setupLogger configures the default logger based on debug mode
func setupLogger(debugMode bool) {
	logLevel := log.InfoLevel
	if debugMode {
		logLevel = log.DebugLevel
	}

	slog.SetDefault(
		slog.New(log.NewWithOptions(os.Stderr, log.Options{
			Level:           logLevel,
			ReportTimestamp: true,
			Prefix:          "storyteller",
		})),
	)
}
