// Package events emits submission lifecycle events for external
// collaborators (notification fan-out, plagiarism scanning) over NATS.
package events

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/models"
)

// Publisher sends lifecycle events. A nil connection disables publishing
// so the core flows never depend on the broker being up.
type Publisher struct {
	conn    *nats.Conn
	prefix  string
	logger  zerolog.Logger
	enabled bool
}

// SubmissionEvent is the wire payload for lifecycle notifications.
type SubmissionEvent struct {
	SubmissionID uint      `json:"submission_id"`
	AssignmentID uint      `json:"assignment_id"`
	StudentID    uint      `json:"student_id"`
	Status       string    `json:"status"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// NewPublisher constructs a lifecycle event publisher.
func NewPublisher(conn *nats.Conn, prefix string, logger zerolog.Logger) *Publisher {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = "acadflow"
	}

	return &Publisher{
		conn:    conn,
		prefix:  prefix,
		logger:  logger.With().Str("component", "event_publisher").Logger(),
		enabled: conn != nil,
	}
}

// SubmissionSubmitted announces a draft -> submitted transition.
func (p *Publisher) SubmissionSubmitted(submission models.Submission) {
	p.publish("submission.submitted", submission)
}

// SubmissionEvaluated announces a submitted -> evaluated transition or a regrade.
func (p *Publisher) SubmissionEvaluated(submission models.Submission) {
	p.publish("submission.evaluated", submission)
}

func (p *Publisher) publish(kind string, submission models.Submission) {
	if p == nil || !p.enabled {
		return
	}

	event := SubmissionEvent{
		SubmissionID: submission.ID,
		AssignmentID: submission.AssignmentID,
		StudentID:    submission.StudentID,
		Status:       submission.Status,
		OccurredAt:   time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Str("event", kind).Msg("failed to encode lifecycle event")
		return
	}

	subject := p.prefix + "." + kind
	if err := p.conn.Publish(subject, payload); err != nil {
		p.logger.Warn().Err(err).Str("subject", subject).Msg("failed to publish lifecycle event")
	}
}
