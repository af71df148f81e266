package models

import "time"

// Assignment kinds.
const (
	AssignmentTypeTheory    = "theory"
	AssignmentTypePractical = "practical"
)

// Assignment represents a piece of work set for a subject.
type Assignment struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	SubjectID           uint      `gorm:"not null" json:"subject_id"`
	Title               string    `gorm:"size:255;not null" json:"title"`
	Description         string    `gorm:"type:text" json:"description"`
	Type                string    `gorm:"size:32;not null" json:"type"`
	ProgrammingLanguage string    `gorm:"size:32" json:"programming_language"`
	Deadline            time.Time `gorm:"not null" json:"deadline"`
	MaxMarks            float64   `gorm:"not null" json:"max_marks"`
	AttachmentURL       string    `gorm:"size:512" json:"attachment_url"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
	Subject             Subject   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"subject"`
	Submissions         []Submission
}

// IsPractical reports whether submissions are executed against the code backend.
func (a Assignment) IsPractical() bool {
	return a.Type == AssignmentTypePractical
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.Deadline)
}
