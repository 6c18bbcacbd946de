package job

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/kikitori/internal/apperrors"
	"github.com/kbukum/kikitori/internal/database"
	"github.com/kbukum/kikitori/internal/logger"
)

func newTestRepo(t *testing.T) Repository {
	t.Helper()

	cfg := database.Config{
		DSN:          filepath.Join(t.TempDir(), "jobs.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		MaxRetries:   1,
		LogLevel:     "silent",
	}
	db, err := database.Open(context.Background(), cfg, logger.NewDefault("test"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.MigrateUp())
	return NewRepository(db)
}

func completedJob(createdAt time.Time, text string) *TranscriptionJob {
	now := createdAt
	return &TranscriptionJob{
		ID:                uuid.New(),
		OriginalFilename:  "meeting.mp3",
		FileURL:           "file:///tmp/meeting.mp3",
		FileSize:          1024,
		Language:          "ja",
		TranscriptionText: &text,
		Status:            StatusCompleted,
		CreatedAt:         createdAt,
		UpdatedAt:         createdAt,
		CompletedAt:       &now,
	}
}

func TestRepositoryCreateAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	j := &TranscriptionJob{
		ID:               uuid.New(),
		OriginalFilename: "interview.wav",
		FileURL:          "file:///tmp/interview.wav",
		FileSize:         2048,
		Language:         "ja",
		Status:           StatusProcessing,
	}
	require.NoError(t, repo.Create(ctx, j))

	got, err := repo.Get(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, j.ID, got.ID)
	assert.Equal(t, "interview.wav", got.OriginalFilename)
	assert.Equal(t, StatusProcessing, got.Status)
	assert.Nil(t, got.TranscriptionText)
	assert.Nil(t, got.CompletedAt)
}

func TestRepositoryGetMissing(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Get(context.Background(), uuid.New())
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
}

func TestRepositoryUpdateTerminalState(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	j := &TranscriptionJob{
		ID:               uuid.New(),
		OriginalFilename: "talk.mp4",
		FileURL:          "file:///tmp/talk.mp4",
		FileSize:         4096,
		Language:         "ja",
		Status:           StatusProcessing,
	}
	require.NoError(t, repo.Create(ctx, j))

	text := "こんにちは"
	now := time.Now().UTC()
	j.TranscriptionText = &text
	j.Status = StatusCompleted
	j.CompletedAt = &now
	require.NoError(t, repo.Update(ctx, j))

	got, err := repo.Get(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	require.NotNil(t, got.TranscriptionText)
	assert.Equal(t, "こんにちは", *got.TranscriptionText)
	assert.NotNil(t, got.CompletedAt)
}

func TestRepositoryListByStatusOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	oldest := completedJob(base, "first")
	middle := completedJob(base.Add(time.Hour), "second")
	newest := completedJob(base.Add(2*time.Hour), "third")

	// insert out of order
	for _, j := range []*TranscriptionJob{middle, oldest, newest} {
		require.NoError(t, repo.Create(ctx, j))
	}
	require.NoError(t, repo.Create(ctx, &TranscriptionJob{
		ID:               uuid.New(),
		OriginalFilename: "pending.mp3",
		FileURL:          "file:///tmp/pending.mp3",
		FileSize:         10,
		Language:         "ja",
		Status:           StatusProcessing,
		CreatedAt:        base.Add(3 * time.Hour),
	}))

	jobs, err := repo.ListByStatus(ctx, StatusCompleted)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, newest.ID, jobs[0].ID)
	assert.Equal(t, middle.ID, jobs[1].ID)
	assert.Equal(t, oldest.ID, jobs[2].ID)
}

func TestRepositoryCreateIfAbsent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	j := completedJob(time.Now().UTC(), "imported transcript")
	created, err := repo.CreateIfAbsent(ctx, j)
	require.NoError(t, err)
	assert.True(t, created)

	// same id again, different text: must be a no-op
	dup := *j
	other := "different text"
	dup.TranscriptionText = &other
	created, err = repo.CreateIfAbsent(ctx, &dup)
	require.NoError(t, err)
	assert.False(t, created)

	got, err := repo.Get(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, "imported transcript", *got.TranscriptionText)
}

func TestRepositoryDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	j := completedJob(time.Now().UTC(), "to be removed")
	require.NoError(t, repo.Create(ctx, j))
	require.NoError(t, repo.Delete(ctx, j.ID))

	_, err := repo.Get(ctx, j.ID)
	require.Error(t, err)

	err = repo.Delete(ctx, j.ID)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
}
