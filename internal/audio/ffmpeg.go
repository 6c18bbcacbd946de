package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/kbukum/kikitori/internal/logger"
)

const (
	// speechBitrate is the target bitrate, tuned for speech intelligibility.
	speechBitrate = "64k"

	defaultFFmpegBinary = "ffmpeg"
	defaultGracePeriod  = 5 * time.Second
)

// commandResult captures one external command invocation.
type commandResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

// execRunner executes commands via os/exec, sending SIGTERM on context
// cancellation and SIGKILL after the grace period.
type execRunner struct {
	gracePeriod time.Duration
}

func (r *execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = r.gracePeriod

	err := cmd.Run()
	result := commandResult{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: 0,
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}
	return result, nil
}

// FFmpegCompressor implements Compressor by shelling out to ffmpeg.
type FFmpegCompressor struct {
	binary string
	runner commandRunner
	log    *logger.Logger
}

// NewFFmpegCompressor creates a compressor using the ffmpeg binary resolved
// via PATH (or an absolute path from config).
func NewFFmpegCompressor(binary string, log *logger.Logger) *FFmpegCompressor {
	if binary == "" {
		binary = defaultFFmpegBinary
	}
	return &FFmpegCompressor{
		binary: binary,
		runner: &execRunner{gracePeriod: defaultGracePeriod},
		log:    log.WithComponent("compressor"),
	}
}

// Compress re-encodes data to mono 64 kbps MP3 in a single ffmpeg pass.
// ffmpeg needs seekable input for several container formats, so the content
// goes through a temporary workspace.
func (c *FFmpegCompressor) Compress(ctx context.Context, data []byte, format string) ([]byte, error) {
	tempDir, err := os.MkdirTemp("", "kikitori-compress-*")
	if err != nil {
		return nil, fmt.Errorf("audio: create temp workspace: %w", err)
	}
	defer os.RemoveAll(tempDir)

	inPath := filepath.Join(tempDir, "input"+normalizeExt(format))
	outPath := filepath.Join(tempDir, "output.mp3")

	if err := os.WriteFile(inPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("audio: write input: %w", err)
	}

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-y",
		"-i", inPath,
		"-ac", "1", // force mono
		"-b:a", speechBitrate,
		"-f", "mp3",
		outPath,
	}

	start := time.Now()
	result, runErr := c.runner.Run(ctx, c.binary, args...)
	if runErr != nil {
		c.log.Error("ffmpeg re-encode failed", map[string]interface{}{
			"exit_code":          result.ExitCode,
			"stderr":             strings.TrimSpace(string(result.Stderr)),
			logger.FieldDuration: time.Since(start).Milliseconds(),
		})
		return nil, fmt.Errorf("audio: ffmpeg exit %d: %w", result.ExitCode, runErr)
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("audio: read output: %w", err)
	}
	if len(out) == 0 {
		return nil, errors.New("audio: ffmpeg produced empty output")
	}

	c.log.Info("compressed audio", map[string]interface{}{
		"input_bytes":        len(data),
		"output_bytes":       len(out),
		logger.FieldDuration: time.Since(start).Milliseconds(),
	})
	return out, nil
}

// normalizeExt turns a format hint ("wav", ".WAV") into a usable extension.
func normalizeExt(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		return ".bin"
	}
	if !strings.HasPrefix(format, ".") {
		format = "." + format
	}
	return format
}

var _ Compressor = (*FFmpegCompressor)(nil)
