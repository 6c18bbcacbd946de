package storage

import (
	"errors"
	"fmt"
	"strings"
)

// Provider constants for supported storage backends.
const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
)

// Default configuration values.
const (
	DefaultBasePath = "./uploads"
	DefaultRegion   = "auto"
)

// Config holds blob store configuration.
type Config struct {
	// Provider selects the backend: "local" or "s3". When empty, the
	// backend is resolved from the credential fields at startup.
	Provider string `yaml:"provider" mapstructure:"provider"`

	// BasePath is the root directory for local storage.
	BasePath string `yaml:"base_path" mapstructure:"base_path"`

	// Bucket is the object store bucket name.
	Bucket string `yaml:"bucket" mapstructure:"bucket"`

	// AccountID identifies the R2 account; it is part of the endpoint and
	// of every public object URL.
	AccountID string `yaml:"account_id" mapstructure:"account_id"`

	// AccessKey is the S3-compatible access key ID.
	AccessKey string `yaml:"access_key" mapstructure:"access_key"`

	// SecretKey is the S3-compatible secret access key.
	SecretKey string `yaml:"secret_key" mapstructure:"secret_key"`

	// Region is the bucket region ("auto" for R2).
	Region string `yaml:"region" mapstructure:"region"`

	// Endpoint overrides the derived S3 endpoint (e.g. MinIO in dev).
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
}

// ApplyDefaults fills in zero-valued fields and resolves the backend when the
// provider was not set explicitly: remote object storage is used only when
// credentials are present and not left as template placeholders, otherwise
// the service falls back to the local directory store.
func (c *Config) ApplyDefaults() {
	if c.BasePath == "" {
		c.BasePath = DefaultBasePath
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.Provider == "" {
		if c.remoteConfigured() {
			c.Provider = ProviderS3
		} else {
			c.Provider = ProviderLocal
		}
	}
}

func (c *Config) remoteConfigured() bool {
	return credentialSet(c.AccountID) && credentialSet(c.AccessKey)
}

// credentialSet reports whether a credential field holds a real value rather
// than an unfilled "<...>" template placeholder.
func credentialSet(v string) bool {
	return v != "" && !strings.HasPrefix(v, "<")
}

// Validate checks that the configuration is valid for the selected backend.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderLocal:
		if c.BasePath == "" {
			return errors.New("storage: base_path is required for local provider")
		}
	case ProviderS3:
		var errs []error
		if c.Bucket == "" {
			errs = append(errs, errors.New("storage: bucket is required for s3 provider"))
		}
		if !credentialSet(c.AccessKey) {
			errs = append(errs, errors.New("storage: access_key is required for s3 provider"))
		}
		if c.SecretKey == "" {
			errs = append(errs, errors.New("storage: secret_key is required for s3 provider"))
		}
		if c.Endpoint == "" && !credentialSet(c.AccountID) {
			errs = append(errs, errors.New("storage: account_id or endpoint is required for s3 provider"))
		}
		if len(errs) > 0 {
			return fmt.Errorf("storage: invalid s3 config: %w", errors.Join(errs...))
		}
	default:
		return fmt.Errorf("storage: unsupported provider %q", c.Provider)
	}
	return nil
}
