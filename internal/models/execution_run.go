package models

import (
	"time"

	"gorm.io/datatypes"
)

// Execution outcomes recorded for a run attempt.
const (
	ExecutionOutcomeSuccess            = "success"
	ExecutionOutcomeCompileError       = "compile_error"
	ExecutionOutcomeRuntimeError       = "runtime_error"
	ExecutionOutcomeTimedOut           = "timed_out"
	ExecutionOutcomeBackendUnavailable = "backend_unavailable"
	ExecutionOutcomeRejected           = "rejected"
)

// ExecutionRun records one orchestrated execution attempt for a submission.
// Ad-hoc editor runs are persisted here too; the most recent row gates
// practical submits.
type ExecutionRun struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	SubmissionID uint              `gorm:"not null;index" json:"submission_id"`
	StudentID    uint              `gorm:"not null" json:"student_id"`
	LanguageID   string            `gorm:"size:32;not null" json:"language_id"`
	Outcome      string            `gorm:"size:32;not null" json:"outcome"`
	DurationMs   int64             `gorm:"default:0" json:"duration_ms"`
	Details      datatypes.JSONMap `json:"details"`
	CreatedAt    time.Time         `json:"created_at"`
	Submission   Submission        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"submission"`
}

// BlocksSubmit reports whether this run outcome prevents a practical submit.
// Only local validation failures block; a program that fails at runtime is
// still a submittable answer.
func (r ExecutionRun) BlocksSubmit() bool {
	return r.Outcome == ExecutionOutcomeRejected
}
