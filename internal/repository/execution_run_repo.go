package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/models"
)

// ExecutionRunRepository persists orchestrated run attempts.
type ExecutionRunRepository interface {
	Create(ctx context.Context, run *models.ExecutionRun) error
	LatestForSubmission(ctx context.Context, submissionID uint) (models.ExecutionRun, error)
	ListForSubmission(ctx context.Context, submissionID uint, limit int) ([]models.ExecutionRun, error)
}

// NewExecutionRunRepository constructs an execution run repository.
func NewExecutionRunRepository(db *gorm.DB) ExecutionRunRepository {
	return &executionRunRepository{db: db}
}

type executionRunRepository struct {
	db *gorm.DB
}

func (r *executionRunRepository) Create(ctx context.Context, run *models.ExecutionRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *executionRunRepository) LatestForSubmission(ctx context.Context, submissionID uint) (models.ExecutionRun, error) {
	var run models.ExecutionRun
	err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("created_at DESC, id DESC").
		First(&run).Error
	if err != nil {
		return models.ExecutionRun{}, err
	}
	return run, nil
}

func (r *executionRunRepository) ListForSubmission(ctx context.Context, submissionID uint, limit int) ([]models.ExecutionRun, error) {
	if limit <= 0 {
		limit = 20
	}

	var runs []models.ExecutionRun
	err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}
