package dto

import (
	"time"

	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/models"
)

// SaveDraftRequest carries a draft autosave.
type SaveDraftRequest struct {
	AssignmentID uint   `json:"assignment_id" validate:"required,gt=0"`
	Content      string `json:"content"`
}

// EvaluateRequest grades a submitted answer.
type EvaluateRequest struct {
	Marks           float64 `json:"marks" validate:"gte=0"`
	Feedback        string  `json:"feedback"`
	PlagiarismScore float64 `json:"plagiarism_score" validate:"gte=0,lte=1"`
}

// SubmissionFilter describes query string filters for listing submissions.
type SubmissionFilter struct {
	AssignmentID *uint   `query:"assignment_id"`
	StudentID    *uint   `query:"student_id"`
	Status       *string `query:"status" validate:"omitempty,oneof=draft submitted evaluated"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID              uint           `json:"id"`
	AssignmentID    uint           `json:"assignment_id"`
	StudentID       uint           `json:"student_id"`
	Content         string         `json:"content,omitempty"`
	Status          string         `json:"status"`
	SubmittedAt     *time.Time     `json:"submitted_at"`
	LastSavedAt     time.Time      `json:"last_saved_at"`
	Marks           *float64       `json:"marks"`
	Feedback        *string        `json:"feedback"`
	PlagiarismScore float64        `json:"plagiarism_score"`
	EvaluatedBy     *uint          `json:"evaluated_by"`
	EvaluatedAt     *time.Time     `json:"evaluated_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Assignment      AssignmentLite `json:"assignment"`
	Student         ProfileLite    `json:"student"`
}

// AssignmentLite summarizes an assignment in submission responses.
type AssignmentLite struct {
	ID       uint      `json:"id"`
	Title    string    `json:"title"`
	Type     string    `json:"type"`
	Deadline time.Time `json:"deadline"`
	MaxMarks float64   `json:"max_marks"`
}

// ProfileLite summarizes a user without exposing full profile data.
type ProfileLite struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:              model.ID,
		AssignmentID:    model.AssignmentID,
		StudentID:       model.StudentID,
		Content:         model.Content,
		Status:          model.Status,
		SubmittedAt:     model.SubmittedAt,
		LastSavedAt:     model.LastSavedAt,
		Marks:           model.Marks,
		Feedback:        model.Feedback,
		PlagiarismScore: model.PlagiarismScore,
		EvaluatedBy:     model.EvaluatedBy,
		EvaluatedAt:     model.EvaluatedAt,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}

	if model.Assignment.ID != 0 {
		response.Assignment = AssignmentLite{
			ID:       model.Assignment.ID,
			Title:    model.Assignment.Title,
			Type:     model.Assignment.Type,
			Deadline: model.Assignment.Deadline,
			MaxMarks: model.Assignment.MaxMarks,
		}
	}

	if model.Student.ID != 0 {
		response.Student = ProfileLite{
			ID:    model.Student.ID,
			Name:  model.Student.Name,
			Email: model.Student.Email,
		}
	}

	return response
}

// NewSubmissionResponseSlice converts a slice of models.
func NewSubmissionResponseSlice(models []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(models))
	for _, model := range models {
		responses = append(responses, NewSubmissionResponse(model))
	}
	return responses
}
