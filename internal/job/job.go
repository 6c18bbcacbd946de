// Package job holds the transcription job model, its repository, and the
// service that drives submission, retrieval, deletion, and history.
package job

import (
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/kikitori/internal/util"
)

// Status is the lifecycle state of a transcription job.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// previewRunes is how many characters of the transcript a history entry shows.
const previewRunes = 100

// TranscriptionJob is a single transcription request and its outcome.
// Created with StatusProcessing at submission; the worker moves it to
// exactly one terminal status.
type TranscriptionJob struct {
	ID                uuid.UUID  `gorm:"type:varchar(36);primaryKey" json:"id"`
	OriginalFilename  string     `gorm:"size:255;not null" json:"original_filename"`
	FileURL           string     `gorm:"size:1024;not null" json:"file_url"`
	FileSize          int64      `json:"file_size"`
	Duration          *float64   `json:"duration,omitempty"`
	Language          string     `gorm:"size:10;not null;default:ja" json:"language"`
	TranscriptionText *string    `json:"transcription_text,omitempty"`
	Status            Status     `gorm:"size:20;not null;default:processing" json:"status"`
	ErrorMessage      *string    `json:"error_message,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

// TableName fixes the table name instead of GORM's pluralized default.
func (TranscriptionJob) TableName() string { return "transcription_jobs" }

// HistoryEntry is a completed job annotated with a transcript preview.
// Field names are camelCase to match the history sync clients.
type HistoryEntry struct {
	ID                uuid.UUID `json:"id"`
	OriginalFilename  string    `json:"originalFilename"`
	TranscriptionText string    `json:"transcriptionText"`
	CreatedAt         time.Time `json:"createdAt"`
	PreviewText       string    `json:"previewText,omitempty"`
	FileSize          int64     `json:"fileSize,omitempty"`
	Duration          *float64  `json:"duration,omitempty"`
}

// HistoryEntry projects a completed job onto its history shape.
func (j *TranscriptionJob) HistoryEntry() HistoryEntry {
	var text string
	if j.TranscriptionText != nil {
		text = *j.TranscriptionText
	}
	return HistoryEntry{
		ID:                j.ID,
		OriginalFilename:  j.OriginalFilename,
		TranscriptionText: text,
		CreatedAt:         j.CreatedAt,
		PreviewText:       util.Truncate(text, previewRunes),
		FileSize:          j.FileSize,
		Duration:          j.Duration,
	}
}
