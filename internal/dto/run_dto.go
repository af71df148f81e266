package dto

import (
	"time"

	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/execution"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/models"
)

// RunRequest is an ad-hoc editor run. It never mutates submission state.
type RunRequest struct {
	SubmissionID uint   `json:"submission_id" validate:"required,gt=0"`
	LanguageID   string `json:"language_id" validate:"required"`
	Source       string `json:"source" validate:"required"`
	Stdin        string `json:"stdin"`
}

// RunResponse carries the normalized execution result back to the editor.
type RunResponse struct {
	Outcome    string `json:"outcome"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ExitCode   *int   `json:"exit_code"`
	DurationMs int64  `json:"duration_ms"`
}

// NewRunResponse converts an execution result into a DTO.
func NewRunResponse(result execution.Result) RunResponse {
	return RunResponse{
		Outcome:    string(result.Outcome),
		Stdout:     result.Stdout,
		Stderr:     result.Stderr,
		ExitCode:   result.ExitCode,
		DurationMs: result.DurationMs,
	}
}

// ExecutionRunResponse serializes a persisted run attempt.
type ExecutionRunResponse struct {
	ID           uint      `json:"id"`
	SubmissionID uint      `json:"submission_id"`
	LanguageID   string    `json:"language_id"`
	Outcome      string    `json:"outcome"`
	DurationMs   int64     `json:"duration_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewExecutionRunResponse converts an ExecutionRun model into a DTO.
func NewExecutionRunResponse(model models.ExecutionRun) ExecutionRunResponse {
	return ExecutionRunResponse{
		ID:           model.ID,
		SubmissionID: model.SubmissionID,
		LanguageID:   model.LanguageID,
		Outcome:      model.Outcome,
		DurationMs:   model.DurationMs,
		CreatedAt:    model.CreatedAt,
	}
}
