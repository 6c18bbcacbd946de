// Package worker runs the background transcription pipeline: download the
// uploaded blob, compress it when it exceeds the provider size ceiling, call
// the transcription provider, and persist the outcome with bounded retry.
package worker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/kikitori/internal/apperrors"
	"github.com/kbukum/kikitori/internal/audio"
	"github.com/kbukum/kikitori/internal/job"
	"github.com/kbukum/kikitori/internal/logger"
	"github.com/kbukum/kikitori/internal/observability"
	"github.com/kbukum/kikitori/internal/resilience"
	"github.com/kbukum/kikitori/internal/storage"
	"github.com/kbukum/kikitori/internal/transcription"
)

// errJobVanished signals that the job record disappeared between dispatch and
// processing (deleted by the caller). The worker drops the job silently.
var errJobVanished = errors.New("job record no longer exists")

// Config tunes the pipeline's retry policy and provider limits.
type Config struct {
	// MaxAttempts is the total number of pipeline attempts per job,
	// the first run plus retries.
	MaxAttempts int `mapstructure:"max_attempts"`

	// InitialBackoff is the delay before the first retry; each further
	// retry doubles it.
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`

	// ProviderSizeLimit is the byte ceiling above which audio is
	// compressed before the provider call.
	ProviderSizeLimit int64 `mapstructure:"provider_size_limit"`

	// AttemptTimeout bounds a single pipeline attempt end to end.
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
}

// ApplyDefaults sets the standard pipeline policy for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 4
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 60 * time.Second
	}
	if c.ProviderSizeLimit <= 0 {
		c.ProviderSizeLimit = 25 << 20 // 25 MiB
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = time.Hour
	}
}

// Worker processes transcription jobs.
type Worker struct {
	cfg        Config
	repo       job.Repository
	blobs      storage.ByteClient
	provider   transcription.Provider
	compressor audio.Compressor
	log        *logger.Logger
}

// New wires a pipeline worker.
func New(cfg Config, repo job.Repository, blobs storage.ByteClient, provider transcription.Provider, compressor audio.Compressor, log *logger.Logger) *Worker {
	cfg.ApplyDefaults()
	return &Worker{
		cfg:        cfg,
		repo:       repo,
		blobs:      blobs,
		provider:   provider,
		compressor: compressor,
		log:        log.WithComponent("worker"),
	}
}

// Process runs the pipeline for one job with the configured retry policy.
// Every failed attempt persists a failed snapshot before the retry wait, so
// a poll during backoff observes failed rather than a stale processing
// state. A job deleted mid-flight is dropped without error.
func (w *Worker) Process(ctx context.Context, id uuid.UUID) error {
	jobLog := w.log.WithFields(map[string]interface{}{logger.FieldJobID: id.String()})

	attempt := 0
	err := resilience.RetryFunc(ctx, resilience.RetryConfig{
		MaxAttempts:    w.cfg.MaxAttempts,
		InitialBackoff: w.cfg.InitialBackoff,
		BackoffFactor:  2.0,
		RetryIf: func(err error) bool {
			if errors.Is(err, errJobVanished) {
				return false
			}
			// per-attempt timeouts stay retryable, so classify before
			// the generic context check
			if appErr, ok := apperrors.AsAppError(err); ok {
				return appErr.Retryable
			}
			return resilience.DefaultRetryIf(err)
		},
		OnRetry: func(n int, err error, backoff time.Duration) {
			jobLog.Warn("Pipeline attempt failed, retrying", map[string]interface{}{
				logger.FieldAttempt: n,
				logger.FieldError:   err.Error(),
				"backoff":           backoff.String(),
			})
		},
	}, func() error {
		attempt++
		attemptCtx, cancel := context.WithTimeout(ctx, w.cfg.AttemptTimeout)
		defer cancel()

		err := w.attempt(attemptCtx, id, jobLog)
		if err != nil && !errors.Is(err, errJobVanished) && ctx.Err() == nil {
			w.persistFailure(ctx, id, err, jobLog)
		}
		return err
	})

	if errors.Is(err, errJobVanished) {
		jobLog.Warn("Job record missing, dropping", nil)
		return nil
	}
	if err != nil {
		jobLog.Error("Pipeline failed permanently", map[string]interface{}{
			logger.FieldAttempt: attempt,
			logger.FieldError:   err.Error(),
		})
		return err
	}
	return nil
}

// attempt executes one pass of the pipeline.
func (w *Worker) attempt(ctx context.Context, id uuid.UUID, jobLog *logger.Logger) (err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanPipelineAttempt,
		trace.WithAttributes(attribute.String("job.id", id.String())))
	defer func() {
		if err != nil {
			observability.SetSpanError(ctx, err)
		}
		span.End()
	}()

	j, err := w.repo.Get(ctx, id)
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.CodeNotFound {
			return errJobVanished
		}
		return err
	}

	key := storage.ObjectKey(j.FileURL)
	dlCtx, dlSpan := observability.StartSpan(ctx, observability.SpanBlobDownload)
	data, err := w.blobs.Download(dlCtx, key)
	dlSpan.End()
	if err != nil {
		return apperrors.Storage("download", err)
	}

	compressed := false
	if int64(len(data)) > w.cfg.ProviderSizeLimit {
		jobLog.Info("Compressing audio for provider size limit", map[string]interface{}{
			"original_size": len(data),
			"limit":         w.cfg.ProviderSizeLimit,
		})
		cmpCtx, cmpSpan := observability.StartSpan(ctx, observability.SpanCompress)
		shrunk, err := w.compressor.Compress(cmpCtx, data, extensionOf(j.OriginalFilename))
		cmpSpan.End()
		if err != nil {
			return apperrors.Transcode(err)
		}
		data = shrunk
		compressed = true
	}

	trCtx, trSpan := observability.StartSpan(ctx, observability.SpanTranscribe,
		trace.WithAttributes(attribute.Int("audio.bytes", len(data))))
	result, err := w.provider.Transcribe(trCtx, transcription.Request{
		Audio:    data,
		Filename: providerFilename(j.OriginalFilename, compressed),
		Language: j.Language,
	})
	trSpan.End()
	if err != nil {
		return apperrors.Provider(err)
	}

	now := time.Now().UTC()
	j.TranscriptionText = &result.Text
	j.Status = job.StatusCompleted
	j.ErrorMessage = nil
	j.CompletedAt = &now
	j.UpdatedAt = now
	if result.Duration > 0 {
		d := result.Duration
		j.Duration = &d
	}
	if err := w.repo.Update(ctx, j); err != nil {
		return err
	}

	jobLog.Info("Transcription completed", map[string]interface{}{
		"text_length": len(result.Text),
	})
	return nil
}

// persistFailure writes a failed snapshot so status polls observe the error.
// Snapshot write failures are logged, not surfaced, the pipeline error is
// what drives the retry decision.
func (w *Worker) persistFailure(ctx context.Context, id uuid.UUID, cause error, jobLog *logger.Logger) {
	j, err := w.repo.Get(ctx, id)
	if err != nil {
		jobLog.Warn("Could not load job for failure snapshot", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
		return
	}

	msg := cause.Error()
	j.Status = job.StatusFailed
	j.ErrorMessage = &msg
	j.TranscriptionText = nil
	j.UpdatedAt = time.Now().UTC()
	if err := w.repo.Update(ctx, j); err != nil {
		jobLog.Warn("Could not persist failure snapshot", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
	}
}

// extensionOf returns the lowercase extension of filename.
func extensionOf(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// providerFilename is the filename handed to the provider. Compressed audio
// is always MP3 regardless of what was uploaded.
func providerFilename(original string, compressed bool) string {
	if !compressed {
		return original
	}
	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	return fmt.Sprintf("%s_compressed.mp3", base)
}
