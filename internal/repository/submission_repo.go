package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/models"
)

// SubmissionFilter allows narrowing submission queries.
type SubmissionFilter struct {
	AssignmentID *uint
	StudentID    *uint
	Status       *string
}

// EvaluationUpdate groups the fields written when a submission is graded.
type EvaluationUpdate struct {
	Marks           float64
	Feedback        string
	PlagiarismScore float64
	EvaluatedBy     uint
	EvaluatedAt     time.Time
}

// SubmissionRepository defines data operations for submissions. The
// conditional updates return whether a row matched so callers can turn a
// lost race into a state-conflict error instead of a silent overwrite.
type SubmissionRepository interface {
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	SaveDraftContent(ctx context.Context, id uint, content string, savedAt time.Time) (bool, error)
	MarkSubmitted(ctx context.Context, id uint, submittedAt time.Time) (bool, error)
	ApplyEvaluation(ctx context.Context, id uint, update EvaluationUpdate) (bool, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Assignment").
		Preload("Student")
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	query := r.baseQuery(ctx)

	if filter.AssignmentID != nil {
		query = query.Where("assignment_id = ?", *filter.AssignmentID)
	}

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var submissions []models.Submission
	if err := query.Order("created_at DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).
		Where("assignment_id = ?", assignmentID).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

// SaveDraftContent rewrites the draft body. The status predicate keeps a
// concurrent submit from resurrecting draft edits.
func (r *submissionRepository) SaveDraftContent(ctx context.Context, id uint, content string, savedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ? AND status = ?", id, models.SubmissionStatusDraft).
		Updates(map[string]interface{}{
			"content":       content,
			"last_saved_at": savedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// MarkSubmitted performs the draft -> submitted transition. Exactly one of
// two racing submits observes a matched row.
func (r *submissionRepository) MarkSubmitted(ctx context.Context, id uint, submittedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ? AND status = ?", id, models.SubmissionStatusDraft).
		Updates(map[string]interface{}{
			"status":       models.SubmissionStatusSubmitted,
			"submitted_at": submittedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ApplyEvaluation grades a submission. The predicate admits re-grading an
// already evaluated record but never touches drafts.
func (r *submissionRepository) ApplyEvaluation(ctx context.Context, id uint, update EvaluationUpdate) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ? AND status IN ?", id, []string{models.SubmissionStatusSubmitted, models.SubmissionStatusEvaluated}).
		Updates(map[string]interface{}{
			"status":           models.SubmissionStatusEvaluated,
			"marks":            update.Marks,
			"feedback":         update.Feedback,
			"plagiarism_score": update.PlagiarismScore,
			"evaluated_by":     update.EvaluatedBy,
			"evaluated_at":     update.EvaluatedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
