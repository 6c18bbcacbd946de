// Package audio provides the compression capability used to bring oversized
// uploads under the transcription provider's request ceiling.
package audio

import "context"

// Compressor re-encodes media for speech transcription.
type Compressor interface {
	// Compress re-encodes data (format hint = original file extension,
	// e.g. ".wav") into mono reduced-bitrate MP3 and returns the new
	// bytes. One pass only; there is no iterative quality search.
	Compress(ctx context.Context, data []byte, format string) ([]byte, error)
}
