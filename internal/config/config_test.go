package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig() *Config {
	return &Config{
		Inference: InferenceConfig{
			Provider:         ProviderGemini,
			MaxRetryAttempts: 3,
			TimeoutSeconds:   60,
		},
		Gemini: GeminiConfig{
			Model: "gemini-1.5-flash",
		},
		OpenAI: OpenAIConfig{
			Model:   "gpt-4o-mini",
			BaseURL: "https://api.openai.com/v1",
		},
		Images: ImagesConfig{
			Directory:   "images",
			Fallbacks:   []string{"forest.jpg", "default.jpg"},
			Placeholder: "https://via.placeholder.com/600x400?text=No+Local+Image",
		},
		Outputs: OutputsConfig{
			TranscriptDirectory: filepath.Join("outputs", "transcripts"),
		},
		Server: ServerConfig{
			Port: 8080,
			CORS: CORSConfig{
				AllowedOrigins: []string{"http://localhost:3000"},
			},
			IdleTimeout: 30 * time.Minute,
			MaxSessions: 1000,
		},
		Database: DatabaseConfig{
			Port:            3306,
			Database:        "storyteller",
			Username:        "storyteller",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"GEMINI_API_KEY", "GEMINI_MODEL", "OPENAI_API_KEY", "OPENAI_MODEL", "DB_PASSWORD"} {
		t.Setenv(key, "")
	}
}

func TestConfigLoader_Load(t *testing.T) {
	tests := []struct {
		name              string
		configContent     string
		useExplicitPath   bool
		env               map[string]string
		wantErr           bool
		want              func() *Config
		wantErrorContains []string
	}{
		{
			name:            "no config file uses defaults",
			useExplicitPath: false,
			want:            defaultConfig,
		},
		{
			name: "valid config file with custom values",
			configContent: `inference:
  provider: openai
  max_retry_attempts: 1
  timeout_seconds: 30
openai:
  model: gpt-4o
  base_url: http://localhost:11434/v1
images:
  directory: assets/images
  mappings:
    - keyword: ship
      file: ship.png
    - keyword: sea
      file: ship.png
  fallbacks:
    - default.png
server:
  port: 9090
  idle_timeout: 10m
  max_sessions: 50
database:
  host: db.local
`,
			useExplicitPath: false,
			want: func() *Config {
				cfg := defaultConfig()
				cfg.Inference = InferenceConfig{Provider: ProviderOpenAI, MaxRetryAttempts: 1, TimeoutSeconds: 30}
				cfg.OpenAI.Model = "gpt-4o"
				cfg.OpenAI.BaseURL = "http://localhost:11434/v1"
				cfg.Images.Directory = "assets/images"
				cfg.Images.Mappings = []ImageMapping{
					{Keyword: "ship", File: "ship.png"},
					{Keyword: "sea", File: "ship.png"},
				}
				cfg.Images.Fallbacks = []string{"default.png"}
				cfg.Server.Port = 9090
				cfg.Server.IdleTimeout = 10 * time.Minute
				cfg.Server.MaxSessions = 50
				cfg.Database.Host = "db.local"
				return cfg
			},
		},
		{
			name: "credentials come from the environment",
			configContent: `gemini:
  api_key: from-file
`,
			useExplicitPath: true,
			env: map[string]string{
				"GEMINI_API_KEY": "gemini-key",
				"GEMINI_MODEL":   "gemini-2.0-flash",
				"OPENAI_API_KEY": "openai-key",
				"DB_PASSWORD":    "secret",
			},
			want: func() *Config {
				cfg := defaultConfig()
				cfg.Gemini = GeminiConfig{APIKey: "gemini-key", Model: "gemini-2.0-flash"}
				cfg.OpenAI.APIKey = "openai-key"
				cfg.Database.Password = "secret"
				return cfg
			},
		},
		{
			name: "invalid YAML format",
			configContent: `inference:
  provider: gemini
  invalid yaml format here [[[
`,
			wantErr: true,
			wantErrorContains: []string{
				"configuration file found but could not be read",
				"Please check the file format and permissions",
			},
		},
		{
			name: "unknown provider",
			configContent: `inference:
  provider: llama
`,
			useExplicitPath: true,
			wantErr:         true,
			wantErrorContains: []string{
				"invalid configuration",
				"provider must be one of [gemini openai]",
			},
		},
		{
			name: "mapping without file",
			configContent: `images:
  mappings:
    - keyword: ship
`,
			useExplicitPath: true,
			wantErr:         true,
			wantErrorContains: []string{
				"file is a required field",
			},
		},
		{
			name: "mapping outside the images directory",
			configContent: `images:
  mappings:
    - keyword: ship
      file: ../secrets/ship.png
  fallbacks:
    - notes.txt
`,
			useExplicitPath: true,
			wantErr:         true,
			wantErrorContains: []string{
				"images.mappings[0].file must be a relative path",
				"images.fallbacks[0] must be a relative path",
			},
		},
		{
			name: "port out of range",
			configContent: `server:
  port: 70000
`,
			useExplicitPath: true,
			wantErr:         true,
			wantErrorContains: []string{
				"port must be",
			},
		},
		{
			name: "negative session limits",
			configContent: `server:
  idle_timeout: -1m
  max_sessions: -1
`,
			useExplicitPath: true,
			wantErr:         true,
			wantErrorContains: []string{
				"idle_timeout must be",
				"max_sessions must be",
			},
		},
		{
			name: "missing transcript template",
			configContent: `templates:
  transcript_template: /nonexistent/transcript.md.go.tmpl
`,
			useExplicitPath: true,
			wantErr:         true,
			wantErrorContains: []string{
				"must be an existing and readable file",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for key, value := range tt.env {
				t.Setenv(key, value)
			}
			tempDir := t.TempDir()

			var configPath string
			if tt.useExplicitPath {
				configPath = filepath.Join(tempDir, "config.yml")
				err := os.WriteFile(configPath, []byte(tt.configContent), 0644)
				require.NoError(t, err)
			} else {
				if tt.configContent != "" {
					err := os.WriteFile(filepath.Join(tempDir, "config.yaml"), []byte(tt.configContent), 0644)
					require.NoError(t, err)
				}
				t.Chdir(tempDir)
			}

			loader, err := NewConfigLoader(configPath)
			require.NoError(t, err)
			got, err := loader.Load()

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)
				for _, wantMsg := range tt.wantErrorContains {
					assert.Contains(t, err.Error(), wantMsg)
				}
				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want(), got)
		})
	}
}

func TestConfig_APIKey(t *testing.T) {
	cfg := Config{
		Gemini: GeminiConfig{APIKey: "gemini-key"},
		OpenAI: OpenAIConfig{APIKey: "openai-key"},
	}

	cfg.Inference.Provider = ProviderGemini
	assert.Equal(t, "gemini-key", cfg.APIKey())

	cfg.Inference.Provider = ProviderOpenAI
	assert.Equal(t, "openai-key", cfg.APIKey())
}

func TestDatabaseConfig_Enabled(t *testing.T) {
	assert.False(t, DatabaseConfig{}.Enabled())
	assert.True(t, DatabaseConfig{Host: "localhost"}.Enabled())
}
