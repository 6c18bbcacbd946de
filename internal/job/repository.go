package job

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kbukum/kikitori/internal/apperrors"
	"github.com/kbukum/kikitori/internal/database"
)

// Repository persists transcription jobs.
type Repository interface {
	// Create inserts a new job record.
	Create(ctx context.Context, j *TranscriptionJob) error

	// CreateIfAbsent inserts the job unless a record with its id already
	// exists. Returns true when a row was inserted.
	CreateIfAbsent(ctx context.Context, j *TranscriptionJob) (bool, error)

	// Get fetches a job by id. Missing jobs return a not-found AppError.
	Get(ctx context.Context, id uuid.UUID) (*TranscriptionJob, error)

	// ListByStatus returns jobs in the given status, newest first.
	ListByStatus(ctx context.Context, status Status) ([]TranscriptionJob, error)

	// Update writes the job's current field values back to the store.
	Update(ctx context.Context, j *TranscriptionJob) error

	// Delete removes the job record. Missing jobs return a not-found AppError.
	Delete(ctx context.Context, id uuid.UUID) error
}

type gormRepository struct {
	db *database.DB
}

// NewRepository returns a Repository backed by the relational job store.
func NewRepository(db *database.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, j *TranscriptionJob) error {
	if err := r.db.WithContext(ctx).Create(j).Error; err != nil {
		return apperrors.Database(err)
	}
	return nil
}

func (r *gormRepository) CreateIfAbsent(ctx context.Context, j *TranscriptionJob) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(j)
	if res.Error != nil {
		return false, apperrors.Database(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *gormRepository) Get(ctx context.Context, id uuid.UUID) (*TranscriptionJob, error) {
	var j TranscriptionJob
	err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("transcription job", id.String())
		}
		return nil, apperrors.Database(err)
	}
	return &j, nil
}

func (r *gormRepository) ListByStatus(ctx context.Context, status Status) ([]TranscriptionJob, error) {
	var jobs []TranscriptionJob
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return jobs, nil
}

func (r *gormRepository) Update(ctx context.Context, j *TranscriptionJob) error {
	if err := r.db.WithContext(ctx).Save(j).Error; err != nil {
		return apperrors.Database(err)
	}
	return nil
}

func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&TranscriptionJob{}, "id = ?", id)
	if res.Error != nil {
		return apperrors.Database(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("transcription job", id.String())
	}
	return nil
}
