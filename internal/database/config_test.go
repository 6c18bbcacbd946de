package database

import "testing"

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.MaxOpenConns != 25 {
		t.Errorf("MaxOpenConns = %d, want 25", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns != 5 {
		t.Errorf("MaxIdleConns = %d, want 5", cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime != "1h" {
		t.Errorf("ConnMaxLifetime = %q, want 1h", cfg.ConnMaxLifetime)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.MaxRetries)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing dsn", func(c *Config) { c.DSN = "" }, true},
		{"idle exceeds open", func(c *Config) { c.MaxIdleConns = 50 }, true},
		{"bad lifetime", func(c *Config) { c.ConnMaxLifetime = "soon" }, true},
		{"bad slow threshold", func(c *Config) { c.SlowQueryThreshold = "fast" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{DSN: "postgres://localhost/jobs"}
			cfg.ApplyDefaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDialectorSelection(t *testing.T) {
	if d := dialectorFor("postgres://user@host/db"); d.Name() != "postgres" {
		t.Errorf("postgres DSN resolved to %q", d.Name())
	}
	if d := dialectorFor("/var/lib/kikitori/jobs.db"); d.Name() != "sqlite" {
		t.Errorf("sqlite DSN resolved to %q", d.Name())
	}
}
