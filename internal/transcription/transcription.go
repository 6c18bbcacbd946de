// Package transcription defines the speech-to-text provider interface and
// common types for interacting with transcription backends.
package transcription

import "context"

// Provider is the interface transcription backends must implement.
type Provider interface {
	// Name returns the provider name for logs.
	Name() string

	// Transcribe sends audio for transcription and returns the result.
	// Latency is dominated by the provider; callers treat this as a
	// blocking call bounded only by ctx.
	Transcribe(ctx context.Context, req Request) (*Response, error)
}

// Request holds parameters for a transcription call.
type Request struct {
	// Audio is the raw (possibly re-encoded) media content.
	Audio []byte
	// Filename carries the original name; providers use its extension as
	// a container format hint.
	Filename string
	// Language is the expected language of the audio (e.g. "ja").
	Language string
}

// Response holds the result of a transcription call.
type Response struct {
	// Text is the full transcript.
	Text string
	// Duration is the audio duration in seconds, when the provider
	// reports it (0 otherwise).
	Duration float64
}
