package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/at-ishikawa/storyteller/internal/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	var port int

	command := &cobra.Command{
		Use:   "serve",
		Short: "Serve stories over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Server.Port = port
			}

			registry := prometheus.NewRegistry()
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			generator, release, err := newGenerator(ctx, cfg, registry)
			if err != nil {
				return err
			}
			defer release()

			recorder, closeRecorder, err := openRecorder(cfg.Database)
			if err != nil {
				return err
			}
			defer closeRecorder()

			s := server.NewServer(generator, newResolver(cfg.Images), server.Options{
				ImagesDirectory:    cfg.Images.Directory,
				AllowedOrigins:     cfg.Server.CORS.AllowedOrigins,
				TranscriptTemplate: cfg.Templates.TranscriptTemplate,
				Recorder:           recorder,
				Gatherer:           registry,
				SessionIdleTimeout: cfg.Server.IdleTimeout,
				MaxSessions:        cfg.Server.MaxSessions,
			})

			errCh := make(chan error, 1)
			go func() {
				errCh <- s.Start(fmt.Sprintf(":%d", cfg.Server.Port))
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server.Start() > %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := s.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server.Shutdown() > %w", err)
			}
			return nil
		},
	}

	command.Flags().IntVar(&port, "port", 0, "Port to listen on, overriding server.port")
	return command
}
