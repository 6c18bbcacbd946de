// Package openai implements transcription.Provider using the OpenAI audio
// transcription API (Whisper).
package openai

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/kbukum/kikitori/internal/transcription"
)

// ProviderName is the registered name for the OpenAI provider.
const ProviderName = "openai-whisper"

// ErrAPIKeyNotSet is returned when the provider is constructed without a key.
var ErrAPIKeyNotSet = errors.New("openai: API key not set")

// Config holds configuration for the OpenAI transcription provider.
type Config struct {
	// APIKey is the OpenAI API key.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	// Model is the transcription model (default whisper-1).
	Model string `yaml:"model" mapstructure:"model"`
	// BaseURL overrides the API endpoint (Azure, proxies).
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// Provider implements transcription.Provider against the OpenAI API.
type Provider struct {
	client openai.Client
	model  string
}

// NewProvider creates an OpenAI transcription provider.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	if cfg.Model == "" {
		cfg.Model = string(openai.AudioModelWhisper1)
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Provider{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// Transcribe sends the audio bytes to the API requesting plain-text output.
// The payload must already be under the API's 25 MiB request ceiling; the
// worker's size gate guarantees that.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	params := openai.AudioTranscriptionNewParams{
		File:           openai.File(bytes.NewReader(req.Audio), req.Filename, contentTypeFor(req.Filename)),
		Model:          openai.AudioModel(p.model),
		ResponseFormat: openai.AudioResponseFormatText,
	}
	if req.Language != "" {
		params.Language = openai.String(req.Language)
	}

	// With response_format=text the API returns the raw transcript body
	// instead of JSON, so decode into a plain string.
	var text string
	_, err := p.client.Audio.Transcriptions.New(ctx, params, option.WithResponseBodyInto(&text))
	if err != nil {
		return nil, err
	}

	return &transcription.Response{Text: strings.TrimSpace(text)}, nil
}

// contentTypeFor maps a filename extension to the upload MIME type.
func contentTypeFor(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return "application/octet-stream"
	}
	switch strings.ToLower(filename[idx:]) {
	case ".mp3", ".mpeg":
		return "audio/mpeg"
	case ".mp4", ".m4a":
		return "audio/mp4"
	case ".wav":
		return "audio/wav"
	case ".webm":
		return "video/webm"
	case ".mov":
		return "video/quicktime"
	default:
		return "application/octet-stream"
	}
}

var _ transcription.Provider = (*Provider)(nil)
