package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/models"
)

// SubjectRepository exposes subject lookups and staff assignment checks.
type SubjectRepository interface {
	GetByID(ctx context.Context, id uint) (models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	TeacherOwnsSubject(ctx context.Context, teacherID, subjectID uint) (bool, error)
}

// NewSubjectRepository constructs a subject repository.
func NewSubjectRepository(db *gorm.DB) SubjectRepository {
	return &subjectRepository{db: db}
}

type subjectRepository struct {
	db *gorm.DB
}

func (r *subjectRepository) GetByID(ctx context.Context, id uint) (models.Subject, error) {
	var subject models.Subject
	if err := r.db.WithContext(ctx).First(&subject, id).Error; err != nil {
		return models.Subject{}, err
	}
	return subject, nil
}

func (r *subjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	return r.db.WithContext(ctx).Create(subject).Error
}

func (r *subjectRepository) TeacherOwnsSubject(ctx context.Context, teacherID, subjectID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Subject{}).
		Where("id = ? AND teacher_id = ?", subjectID, teacherID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
