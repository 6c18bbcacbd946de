package job

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/kikitori/internal/apperrors"
	"github.com/kbukum/kikitori/internal/logger"
	"github.com/kbukum/kikitori/internal/storage"
)

// MaxUploadSize is the upload ceiling, checked before any blob write.
const MaxUploadSize = 2 << 30 // 2 GiB

// allowedExtensions are the audio/video container formats accepted for upload.
var allowedExtensions = map[string]bool{
	".mp3":  true,
	".mp4":  true,
	".wav":  true,
	".m4a":  true,
	".mov":  true,
	".webm": true,
	".mpeg": true,
}

// allowedContentTypes mirrors allowedExtensions. Both checks must pass; a
// missing or generic Content-Type is treated as an unsupported file type.
var allowedContentTypes = map[string]bool{
	"audio/mpeg":      true,
	"audio/mp4":       true,
	"audio/wav":       true,
	"audio/x-m4a":     true,
	"video/mp4":       true,
	"video/quicktime": true,
	"video/webm":      true,
	"video/mpeg":      true,
}

// DefaultLanguage is the transcription language applied at submission.
const DefaultLanguage = "ja"

// BackfillRequest imports an externally-known transcript as a completed job.
type BackfillRequest struct {
	ID                uuid.UUID `json:"id" binding:"required"`
	OriginalFilename  string    `json:"originalFilename" binding:"required,max=255"`
	TranscriptionText string    `json:"transcriptionText" binding:"required"`
	CreatedAt         time.Time `json:"createdAt" binding:"required"`
	FileSize          int64     `json:"fileSize"`
	Duration          *float64  `json:"duration"`
}

// Service implements submission, retrieval, deletion, and history over the
// job repository and the blob store.
type Service struct {
	repo  Repository
	blobs storage.ByteClient
	log   *logger.Logger
}

// NewService wires a job service.
func NewService(repo Repository, blobs storage.ByteClient, log *logger.Logger) *Service {
	return &Service{repo: repo, blobs: blobs, log: log.WithComponent("job-service")}
}

// Submit validates the upload, writes it to the blob store, and creates the
// job record in processing status. The blob is written first so a failed
// write never leaves a record pointing at a missing object; if the record
// insert fails instead, the freshly written blob is removed best-effort.
func (s *Service) Submit(ctx context.Context, data []byte, filename, contentType string) (*TranscriptionJob, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return nil, apperrors.FileType(fmt.Sprintf("file type %s is not supported", ext))
	}
	if !allowedContentTypes[strings.ToLower(contentType)] {
		return nil, apperrors.FileType(fmt.Sprintf("content type %q is not supported", contentType))
	}
	if len(data) == 0 {
		return nil, apperrors.InvalidInput("uploaded file is empty")
	}
	if int64(len(data)) > MaxUploadSize {
		return nil, apperrors.FileSize(fmt.Sprintf("file size %d exceeds the %d byte limit", len(data), MaxUploadSize))
	}

	id := uuid.New()
	key := id.String() + ext

	if err := s.blobs.Upload(ctx, key, data); err != nil {
		return nil, apperrors.Storage("upload", err)
	}
	fileURL, err := s.blobs.URL(ctx, key)
	if err != nil {
		return nil, apperrors.Storage("url", err)
	}

	j := &TranscriptionJob{
		ID:               id,
		OriginalFilename: filename,
		FileURL:          fileURL,
		FileSize:         int64(len(data)),
		Language:         DefaultLanguage,
		Status:           StatusProcessing,
	}
	if err := s.repo.Create(ctx, j); err != nil {
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			s.log.Warn("Failed to clean up blob after record insert failure", map[string]interface{}{
				logger.FieldObjectKey: key,
				logger.FieldError:     delErr.Error(),
			})
		}
		return nil, err
	}

	s.log.Info("Transcription job submitted", map[string]interface{}{
		logger.FieldJobID:     j.ID.String(),
		logger.FieldObjectKey: key,
		"file_size":           j.FileSize,
	})
	return j, nil
}

// Get returns the job record by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*TranscriptionJob, error) {
	return s.repo.Get(ctx, id)
}

// Delete removes the job record and then its blob. The record delete is
// authoritative; a blob delete failure is logged and does not fail the call.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	j, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if key := storage.ObjectKey(j.FileURL); key != "" {
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.log.Warn("Blob delete failed after record removal", map[string]interface{}{
				logger.FieldJobID:     id.String(),
				logger.FieldObjectKey: key,
				logger.FieldError:     err.Error(),
			})
		}
	}

	s.log.Info("Transcription job deleted", map[string]interface{}{
		logger.FieldJobID: id.String(),
	})
	return nil
}

// History lists completed jobs newest-first, each with a transcript preview.
func (s *Service) History(ctx context.Context) ([]HistoryEntry, error) {
	jobs, err := s.repo.ListByStatus(ctx, StatusCompleted)
	if err != nil {
		return nil, err
	}
	entries := make([]HistoryEntry, 0, len(jobs))
	for i := range jobs {
		entries = append(entries, jobs[i].HistoryEntry())
	}
	return entries, nil
}

// HistoryDetail returns the history projection of a single job.
func (s *Service) HistoryDetail(ctx context.Context, id uuid.UUID) (*HistoryEntry, error) {
	j, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	entry := j.HistoryEntry()
	return &entry, nil
}

// DeleteHistory removes the job record only; any blob stays in place. Used
// by history sync clients that manage their own copies of the audio.
func (s *Service) DeleteHistory(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("Transcription history deleted", map[string]interface{}{
		logger.FieldJobID: id.String(),
	})
	return nil
}

// Backfill creates a completed job record directly, bypassing the worker
// pipeline. Idempotent on id: an existing record is left untouched and the
// call still succeeds. Returns true when a new record was created.
func (s *Service) Backfill(ctx context.Context, req BackfillRequest) (bool, error) {
	if req.ID == uuid.Nil {
		return false, apperrors.InvalidInput("id is required")
	}

	now := time.Now().UTC()
	completedAt := req.CreatedAt
	text := req.TranscriptionText
	j := &TranscriptionJob{
		ID:                req.ID,
		OriginalFilename:  req.OriginalFilename,
		FileURL:           "",
		FileSize:          req.FileSize,
		Duration:          req.Duration,
		Language:          DefaultLanguage,
		TranscriptionText: &text,
		Status:            StatusCompleted,
		CreatedAt:         req.CreatedAt,
		UpdatedAt:         now,
		CompletedAt:       &completedAt,
	}

	created, err := s.repo.CreateIfAbsent(ctx, j)
	if err != nil {
		return false, err
	}
	if !created {
		s.log.Debug("Backfill skipped, record already exists", map[string]interface{}{
			logger.FieldJobID: req.ID.String(),
		})
	}
	return created, nil
}
