// Package config loads and validates the service configuration from
// config.yml, the process environment, and an optional .env file.
package config

import (
	"fmt"
	"strings"

	"github.com/kbukum/kikitori/internal/database"
	"github.com/kbukum/kikitori/internal/logger"
	"github.com/kbukum/kikitori/internal/observability"
	"github.com/kbukum/kikitori/internal/server"
	"github.com/kbukum/kikitori/internal/storage"
	"github.com/kbukum/kikitori/internal/worker"
)

// ServiceName identifies this service in logs, traces, and config lookup.
const ServiceName = "kikitori"

// OpenAIConfig holds transcription provider credentials.
type OpenAIConfig struct {
	// APIKey authenticates against the transcription API. Placeholder
	// values (anything starting with "<") are treated as unset.
	APIKey string `mapstructure:"api_key"`
	// Model selects the speech-to-text model.
	Model string `mapstructure:"model"`
	// BaseURL overrides the API endpoint, for proxies or test servers.
	BaseURL string `mapstructure:"base_url"`
}

// Key returns the API key, or empty when it is unset or a placeholder left
// over from a config template.
func (c OpenAIConfig) Key() string {
	if strings.HasPrefix(c.APIKey, "<") {
		return ""
	}
	return c.APIKey
}

// AudioConfig holds transcoding settings.
type AudioConfig struct {
	// FFmpegBinary is the ffmpeg executable name or path.
	FFmpegBinary string `mapstructure:"ffmpeg_binary"`
}

// Config aggregates all service configuration sections.
type Config struct {
	Logger   logger.Config              `mapstructure:"logger"`
	Server   server.Config              `mapstructure:"server"`
	Database database.Config            `mapstructure:"database"`
	Storage  storage.Config             `mapstructure:"storage"`
	OpenAI   OpenAIConfig               `mapstructure:"openai"`
	Audio    AudioConfig                `mapstructure:"audio"`
	Worker   worker.Config              `mapstructure:"worker"`
	Tracing  observability.TracerConfig `mapstructure:"tracing"`
}

// LoadService loads, defaults, and validates the full service configuration.
func LoadService(opts ...LoaderOption) (*Config, error) {
	var cfg Config
	if err := Load(ServiceName, &cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills every section's defaults.
func (c *Config) ApplyDefaults() {
	c.Logger.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Database.ApplyDefaults()
	c.Storage.ApplyDefaults()
	c.Worker.ApplyDefaults()
	c.Tracing.ApplyDefaults()
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = ServiceName
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "whisper-1"
	}
	if c.Audio.FFmpegBinary == "" {
		c.Audio.FFmpegBinary = "ffmpeg"
	}
	if c.Database.DSN == "" {
		c.Database.DSN = "kikitori.db"
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Logger.Validate(); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	return nil
}
