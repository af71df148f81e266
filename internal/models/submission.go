package models

import "time"

// Submission lifecycle states. Transitions only ever move forward.
const (
	SubmissionStatusDraft     = "draft"
	SubmissionStatusSubmitted = "submitted"
	SubmissionStatusEvaluated = "evaluated"
)

// Submission represents a student's answer to an assignment.
type Submission struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	AssignmentID    uint       `gorm:"not null;index:idx_assignment_student" json:"assignment_id"`
	StudentID       uint       `gorm:"not null;index:idx_assignment_student" json:"student_id"`
	Content         string     `gorm:"type:text" json:"content"`
	Status          string     `gorm:"size:32;not null;default:draft" json:"status"`
	SubmittedAt     *time.Time `json:"submitted_at"`
	LastSavedAt     time.Time  `gorm:"not null" json:"last_saved_at"`
	Marks           *float64   `json:"marks"`
	Feedback        *string    `gorm:"type:text" json:"feedback"`
	PlagiarismScore float64    `gorm:"default:0" json:"plagiarism_score"`
	EvaluatedBy     *uint      `json:"evaluated_by"`
	EvaluatedAt     *time.Time `json:"evaluated_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Assignment      Assignment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignment"`
	Student         Profile    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
}

// IsDraft reports whether the submission is still editable by its owner.
func (s Submission) IsDraft() bool {
	return s.Status == SubmissionStatusDraft
}

// IsEvaluated reports whether the submission carries final marks.
func (s Submission) IsEvaluated() bool {
	return s.Status == SubmissionStatusEvaluated
}
