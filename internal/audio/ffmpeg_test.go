package audio

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/kbukum/kikitori/internal/logger"
)

// fakeRunner records the invocation and writes canned output where ffmpeg
// would have.
type fakeRunner struct {
	name   string
	args   []string
	output []byte
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	f.name = name
	f.args = args
	if f.err != nil {
		return commandResult{ExitCode: 1, Stderr: []byte("boom")}, f.err
	}
	// last argument is the output path
	outPath := args[len(args)-1]
	if err := os.WriteFile(outPath, f.output, 0o600); err != nil {
		return commandResult{ExitCode: -1}, err
	}
	return commandResult{}, nil
}

func newTestCompressor(r commandRunner) *FFmpegCompressor {
	c := NewFFmpegCompressor("ffmpeg", logger.NewDefault("test"))
	c.runner = r
	return c
}

func argsContainPair(args []string, flag, value string) bool {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}

func TestCompressInvokesSinglePassMono64k(t *testing.T) {
	runner := &fakeRunner{output: []byte("compressed")}
	c := newTestCompressor(runner)

	out, err := c.Compress(context.Background(), []byte("big wav content"), ".wav")
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if string(out) != "compressed" {
		t.Errorf("got %q", out)
	}

	if runner.name != "ffmpeg" {
		t.Errorf("expected ffmpeg, got %q", runner.name)
	}
	if !argsContainPair(runner.args, "-ac", "1") {
		t.Errorf("expected mono flag in %v", runner.args)
	}
	if !argsContainPair(runner.args, "-b:a", "64k") {
		t.Errorf("expected 64k bitrate in %v", runner.args)
	}
	if !argsContainPair(runner.args, "-f", "mp3") {
		t.Errorf("expected mp3 output format in %v", runner.args)
	}
}

func TestCompressFailurePropagates(t *testing.T) {
	runner := &fakeRunner{err: errors.New("codec not found")}
	c := newTestCompressor(runner)

	_, err := c.Compress(context.Background(), []byte("x"), "wav")
	if err == nil {
		t.Fatal("expected error from failed ffmpeg run")
	}
}

func TestCompressRejectsEmptyOutput(t *testing.T) {
	runner := &fakeRunner{output: nil}
	c := newTestCompressor(runner)

	_, err := c.Compress(context.Background(), []byte("x"), ".mp4")
	if err == nil {
		t.Fatal("expected error for empty ffmpeg output")
	}
}

func TestNormalizeExt(t *testing.T) {
	cases := map[string]string{
		"wav":   ".wav",
		".WAV":  ".wav",
		"":      ".bin",
		".mp3":  ".mp3",
		" m4a ": ".m4a",
	}
	for in, want := range cases {
		if got := normalizeExt(in); got != want {
			t.Errorf("normalizeExt(%q) = %q, want %q", in, got, want)
		}
	}
}
