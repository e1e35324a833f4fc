package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/at-ishikawa/storyteller/internal/config"
	"github.com/at-ishikawa/storyteller/internal/database"
	"github.com/at-ishikawa/storyteller/internal/imagery"
	"github.com/at-ishikawa/storyteller/internal/inference"
	"github.com/at-ishikawa/storyteller/internal/inference/gemini"
	"github.com/at-ishikawa/storyteller/internal/inference/openai"
	"github.com/at-ishikawa/storyteller/internal/story"
	"github.com/at-ishikawa/storyteller/internal/turnlog"
)

type Provider string

func (p *Provider) Set(val string) error {
	for _, provider := range allProviders {
		if val == string(provider) {
			*p = provider
			return nil
		}
	}
	return fmt.Errorf("invalid provider: %s", val)
}

func (p Provider) String() string {
	return string(p)
}

func (p *Provider) Type() string {
	return "provider"
}

const (
	ProviderGemini Provider = config.ProviderGemini
	ProviderOpenAI Provider = config.ProviderOpenAI
)

var (
	_            pflag.Value = (*Provider)(nil)
	allProviders             = []Provider{ProviderGemini, ProviderOpenAI}
)

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if provider != "" {
		cfg.Inference.Provider = string(provider)
	}
	return cfg, nil
}

func apiKeyEnv(provider string) string {
	if provider == config.ProviderOpenAI {
		return "OPENAI_API_KEY"
	}
	return "GEMINI_API_KEY"
}

// newGenerator builds the configured model client wrapped with metrics.
// The returned function releases the client.
func newGenerator(ctx context.Context, cfg *config.Config, registerer prometheus.Registerer) (inference.Client, func(), error) {
	if cfg.APIKey() == "" {
		return nil, nil, fmt.Errorf("%s not found, set it in the environment or a .env file", apiKeyEnv(cfg.Inference.Provider))
	}

	var (
		client  inference.Client
		model   string
		release = func() {}
	)
	switch cfg.Inference.Provider {
	case config.ProviderOpenAI:
		openaiClient := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.Inference.MaxRetryAttempts)
		if cfg.OpenAI.BaseURL != "" {
			openaiClient.SetBaseURL(cfg.OpenAI.BaseURL)
		}
		if timeout := cfg.Inference.Timeout(); timeout > 0 {
			openaiClient.SetTimeout(timeout)
		}
		client, model = openaiClient, openaiClient.GetModel()
		release = func() {
			_ = openaiClient.Close()
		}
	default:
		geminiClient, err := gemini.NewClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Inference.MaxRetryAttempts)
		if err != nil {
			return nil, nil, fmt.Errorf("gemini.NewClient() > %w", err)
		}
		client, model = geminiClient, geminiClient.GetModel()
	}
	slog.Default().Info("Using model",
		"provider", cfg.Inference.Provider,
		"model", model)

	instrumented := inference.NewInstrumented(client, cfg.Inference.Provider, inference.NewMetrics(registerer)).
		WithTokenCounter(inference.TiktokenCounter()).
		WithTimeout(cfg.Inference.Timeout())
	return instrumented, release, nil
}

func newResolver(cfg config.ImagesConfig) *imagery.Resolver {
	var opts []imagery.Option
	if len(cfg.Mappings) > 0 {
		mappings := make([]imagery.Mapping, 0, len(cfg.Mappings))
		for _, mapping := range cfg.Mappings {
			mappings = append(mappings, imagery.Mapping{Keyword: mapping.Keyword, Asset: mapping.File})
		}
		opts = append(opts, imagery.WithMappings(mappings))
	}
	if len(cfg.Fallbacks) > 0 {
		opts = append(opts, imagery.WithFallbacks(cfg.Fallbacks...))
	}
	if cfg.Placeholder != "" {
		opts = append(opts, imagery.WithPlaceholder(cfg.Placeholder))
	}
	return imagery.NewResolver(imagery.NewDirectoryStore(cfg.Directory), opts...)
}

// openRecorder connects the turn log when a database is configured.
// Without one it returns a nil recorder.
func openRecorder(cfg config.DatabaseConfig) (story.Recorder, func(), error) {
	if !cfg.Enabled() {
		return nil, func() {}, nil
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database.Open() > %w", err)
	}
	slog.Default().Info("Recording turns", "host", cfg.Host, "database", cfg.Database)
	return turnlog.NewDBRepository(db), func() {
		_ = db.Close()
	}, nil
}

func sessionOptions(recorder story.Recorder) []story.Option {
	if recorder == nil {
		return nil
	}
	return []story.Option{story.WithRecorder(recorder)}
}
