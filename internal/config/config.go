package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	Inference InferenceConfig `mapstructure:"inference"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Images    ImagesConfig    `mapstructure:"images"`
	Templates TemplatesConfig `mapstructure:"templates"`
	Outputs   OutputsConfig   `mapstructure:"outputs"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
}

type InferenceConfig struct {
	Provider         string `mapstructure:"provider" validate:"oneof=gemini openai"`
	MaxRetryAttempts uint   `mapstructure:"max_retry_attempts"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds" validate:"gte=0"`
}

// Timeout returns the per request deadline, or zero when unlimited.
func (c InferenceConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
}

type ImagesConfig struct {
	Directory   string         `mapstructure:"directory" validate:"required"`
	Mappings    []ImageMapping `mapstructure:"mappings" validate:"dive"`
	Fallbacks   []string       `mapstructure:"fallbacks" validate:"dive,image"`
	Placeholder string         `mapstructure:"placeholder"`
}

type ImageMapping struct {
	Keyword string `mapstructure:"keyword" validate:"required"`
	File    string `mapstructure:"file" validate:"required,image"`
}

type TemplatesConfig struct {
	TranscriptTemplate string `mapstructure:"transcript_template" validate:"omitempty,file"`
}

type OutputsConfig struct {
	TranscriptDirectory string `mapstructure:"transcript_directory"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port" validate:"gte=1,lte=65535"`
	CORS CORSConfig `mapstructure:"cors"`
	// IdleTimeout drops a session nobody has looked up for this long. Zero keeps it until deleted.
	IdleTimeout time.Duration `mapstructure:"idle_timeout" validate:"gte=0"`
	// MaxSessions drops the least recently used session beyond this count. Zero is unlimited.
	MaxSessions int `mapstructure:"max_sessions" validate:"gte=0"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host            string            `mapstructure:"host"`
	Port            int               `mapstructure:"port"`
	Database        string            `mapstructure:"database"`
	Username        string            `mapstructure:"username"`
	Password        string            `mapstructure:"password"`
	TLS             bool              `mapstructure:"tls"`
	Params          map[string]string `mapstructure:"params"`
	MaxOpenConns    int               `mapstructure:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int               `mapstructure:"conn_max_lifetime_seconds"`
}

// Enabled reports whether the turn log database is configured.
func (c DatabaseConfig) Enabled() bool {
	return c.Host != ""
}

// APIKey returns the credential of the selected provider.
func (c Config) APIKey() string {
	if c.Inference.Provider == ProviderOpenAI {
		return c.OpenAI.APIKey
	}
	return c.Gemini.APIKey
}

type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
}

func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/storyteller")
	}

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
	}, nil
}

var defaults = []struct {
	key   string
	value any
}{
	{"inference.provider", ProviderGemini},
	{"inference.max_retry_attempts", 3},
	{"inference.timeout_seconds", 60},
	{"gemini.model", "gemini-1.5-flash"},
	{"openai.model", "gpt-4o-mini"},
	{"openai.base_url", "https://api.openai.com/v1"},
	{"images.directory", "images"},
	{"images.fallbacks", []string{"forest.jpg", "default.jpg"}},
	{"images.placeholder", "https://via.placeholder.com/600x400?text=No+Local+Image"},
	// empty selects the embedded transcript template
	{"templates.transcript_template", ""},
	{"outputs.transcript_directory", filepath.Join("outputs", "transcripts")},
	{"server.port", 8080},
	{"server.cors.allowed_origins", []string{"http://localhost:3000"}},
	{"server.idle_timeout", 30 * time.Minute},
	{"server.max_sessions", 1000},
	{"database.port", 3306},
	{"database.database", "storyteller"},
	{"database.username", "storyteller"},
	{"database.max_open_conns", 10},
	{"database.max_idle_conns", 5},
	{"database.conn_max_lifetime_seconds", 300},
}

// Credentials and model overrides are read from the environment only.
var environmentKeys = map[string]string{
	"gemini.api_key":    "GEMINI_API_KEY",
	"gemini.model":      "GEMINI_MODEL",
	"openai.api_key":    "OPENAI_API_KEY",
	"openai.model":      "OPENAI_MODEL",
	"database.password": "DB_PASSWORD",
}

func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper
	for _, d := range defaults {
		v.SetDefault(d.key, d.value)
	}
	for key, env := range environmentKeys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("v.BindEnv(%s) > %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}
	if err := loader.validate(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (loader *ConfigLoader) validate(cfg Config) error {
	err := loader.validator.Struct(cfg)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("validator.Struct() > %w", err)
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		messages = append(messages, fieldErr.Translate(loader.translator))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(messages, ", "))
}
