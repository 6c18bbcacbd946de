package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	cfgFile := writeFile(t, dir, "config.yml", `
server:
  port: 9090
database:
  dsn: /tmp/test.db
worker:
  max_attempts: 2
  initial_backoff: 5s
openai:
  model: whisper-1
`)

	var cfg Config
	if err := Load(ServiceName, &cfg, WithConfigFile(cfgFile)); err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.DSN != "/tmp/test.db" {
		t.Errorf("dsn = %q", cfg.Database.DSN)
	}
	if cfg.Worker.MaxAttempts != 2 {
		t.Errorf("max_attempts = %d", cfg.Worker.MaxAttempts)
	}
	if cfg.Worker.InitialBackoff != 5*time.Second {
		t.Errorf("initial_backoff = %v", cfg.Worker.InitialBackoff)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	cfgFile := writeFile(t, dir, "config.yml", `
openai:
  api_key: from-yaml
`)
	t.Setenv("OPENAI_API_KEY", "from-env")

	var cfg Config
	if err := Load(ServiceName, &cfg, WithConfigFile(cfgFile)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.OpenAI.APIKey != "from-env" {
		t.Errorf("api_key = %q, want env value", cfg.OpenAI.APIKey)
	}
}

func TestPlaceholderKeyTreatedAsUnset(t *testing.T) {
	c := OpenAIConfig{APIKey: "<your-api-key-here>"}
	if c.Key() != "" {
		t.Errorf("placeholder key should resolve to empty, got %q", c.Key())
	}
	c.APIKey = "sk-real"
	if c.Key() != "sk-real" {
		t.Errorf("real key should pass through, got %q", c.Key())
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.OpenAI.Model != "whisper-1" {
		t.Errorf("model = %q", cfg.OpenAI.Model)
	}
	if cfg.Audio.FFmpegBinary != "ffmpeg" {
		t.Errorf("ffmpeg binary = %q", cfg.Audio.FFmpegBinary)
	}
	if cfg.Worker.MaxAttempts != 4 {
		t.Errorf("max_attempts = %d, want 4", cfg.Worker.MaxAttempts)
	}
	if cfg.Tracing.ServiceName != ServiceName {
		t.Errorf("tracing service = %q", cfg.Tracing.ServiceName)
	}
}
