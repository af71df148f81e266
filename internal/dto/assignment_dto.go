package dto

import (
	"time"

	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/models"
)

// AssignmentCreateRequest authors a new assignment.
type AssignmentCreateRequest struct {
	SubjectID           uint      `json:"subject_id" form:"subject_id" validate:"required,gt=0"`
	Title               string    `json:"title" form:"title" validate:"required,min=3,max=255"`
	Description         string    `json:"description" form:"description"`
	Type                string    `json:"type" form:"type" validate:"required,oneof=theory practical"`
	ProgrammingLanguage string    `json:"programming_language" form:"programming_language"`
	Deadline            time.Time `json:"deadline" form:"deadline" validate:"required"`
	MaxMarks            float64   `json:"max_marks" form:"max_marks" validate:"required,gt=0"`
}

// AssignmentUpdateRequest edits an existing assignment.
type AssignmentUpdateRequest struct {
	Title               *string    `json:"title" validate:"omitempty,min=3,max=255"`
	Description         *string    `json:"description"`
	ProgrammingLanguage *string    `json:"programming_language"`
	Deadline            *time.Time `json:"deadline"`
	MaxMarks            *float64   `json:"max_marks" validate:"omitempty,gt=0"`
}

// AssignmentFilter describes listing options passed through to the repository.
type AssignmentFilter struct {
	SubjectID *uint   `query:"subject_id"`
	Type      *string `query:"type" validate:"omitempty,oneof=theory practical"`
	Search    string  `query:"search"`
	Sort      string  `query:"sort"`
	Page      int     `query:"page"`
	PageSize  int     `query:"page_size"`
}

// AssignmentResponse serializes an assignment for API clients.
type AssignmentResponse struct {
	ID                  uint      `json:"id"`
	SubjectID           uint      `json:"subject_id"`
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	Type                string    `json:"type"`
	ProgrammingLanguage string    `json:"programming_language,omitempty"`
	Deadline            time.Time `json:"deadline"`
	MaxMarks            float64   `json:"max_marks"`
	AttachmentURL       string    `json:"attachment_url,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// NewAssignmentResponse converts an Assignment model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:                  model.ID,
		SubjectID:           model.SubjectID,
		Title:               model.Title,
		Description:         model.Description,
		Type:                model.Type,
		ProgrammingLanguage: model.ProgrammingLanguage,
		Deadline:            model.Deadline,
		MaxMarks:            model.MaxMarks,
		AttachmentURL:       model.AttachmentURL,
		CreatedAt:           model.CreatedAt,
		UpdatedAt:           model.UpdatedAt,
	}
}

// NewAssignmentResponseSlice converts a slice of models.
func NewAssignmentResponseSlice(models []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(models))
	for _, model := range models {
		responses = append(responses, NewAssignmentResponse(model))
	}
	return responses
}
