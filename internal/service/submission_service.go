package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/dto"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/events"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/execution"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/guard"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/models"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/repository"
)

// ErrSubmissionNotFound indicates a submission could not be found.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrAssignmentNotFound indicates the referenced assignment does not exist.
var ErrAssignmentNotFound = errors.New("assignment not found")

// ErrDeadlinePassed indicates a submit attempted after the assignment deadline.
var ErrDeadlinePassed = errors.New("assignment deadline has passed")

// ErrStateConflict indicates an illegal lifecycle transition; the record is
// left untouched.
var ErrStateConflict = errors.New("submission state conflict")

// ErrMarksOutOfRange indicates marks outside [0, assignment.MaxMarks].
var ErrMarksOutOfRange = errors.New("marks out of range")

// ErrUnsupportedLanguageRun blocks practical submits whose latest recorded
// run was rejected before reaching the backend.
var ErrUnsupportedLanguageRun = errors.New("latest run used an unsupported language")

// SubmissionService owns the draft -> submitted -> evaluated lifecycle.
type SubmissionService interface {
	SaveDraft(ctx context.Context, session guard.Session, payload dto.SaveDraftRequest) (dto.SubmissionResponse, error)
	Submit(ctx context.Context, session guard.Session, submissionID uint) (dto.SubmissionResponse, error)
	Evaluate(ctx context.Context, session guard.Session, submissionID uint, payload dto.EvaluateRequest) (dto.SubmissionResponse, error)
	Get(ctx context.Context, session guard.Session, submissionID uint) (dto.SubmissionResponse, error)
	List(ctx context.Context, session guard.Session, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions  repository.SubmissionRepository
	assignments  repository.AssignmentRepository
	subjects     repository.SubjectRepository
	runs         repository.ExecutionRunRepository
	orchestrator *execution.Orchestrator
	publisher    *events.Publisher
	validator    *validator.Validate
	sanitizer    *bluemonday.Policy
	tracer       trace.Tracer
	logger       zerolog.Logger
	now          func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(
	submissionRepo repository.SubmissionRepository,
	assignmentRepo repository.AssignmentRepository,
	subjectRepo repository.SubjectRepository,
	runRepo repository.ExecutionRunRepository,
	orchestrator *execution.Orchestrator,
	publisher *events.Publisher,
	validate *validator.Validate,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		submissions:  submissionRepo,
		assignments:  assignmentRepo,
		subjects:     subjectRepo,
		runs:         runRepo,
		orchestrator: orchestrator,
		publisher:    publisher,
		validator:    validate,
		sanitizer:    bluemonday.StrictPolicy(),
		tracer:       otel.Tracer("github.com/kc-conquers-code11/AcadFlow-sub001/internal/service/submission"),
		logger:       logger.With().Str("component", "submission_service").Logger(),
		now:          time.Now,
	}
}

// SaveDraft upserts the student's draft for an assignment. The first save
// creates the record; later saves only rewrite content and lastSavedAt.
func (s *submissionService) SaveDraft(ctx context.Context, session guard.Session, payload dto.SaveDraftRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, payload.AssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	existing, err := s.submissions.GetByAssignmentAndStudent(ctx, assignment.ID, session.Actor.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SubmissionResponse{}, err
	}

	isNew := errors.Is(err, gorm.ErrRecordNotFound)
	ownerID := session.Actor.ID
	if !isNew {
		ownerID = existing.StudentID
	}

	if decision := guard.Authorize(session, guard.ActionSaveDraft, guard.Resource{Exists: true, OwnerID: ownerID}); !decision.Allowed {
		return dto.SubmissionResponse{}, denied(decision)
	}

	if isNew {
		submission := models.Submission{
			AssignmentID: assignment.ID,
			StudentID:    session.Actor.ID,
			Content:      payload.Content,
			Status:       models.SubmissionStatusDraft,
			LastSavedAt:  s.now(),
		}
		if err := s.submissions.Create(ctx, &submission); err != nil {
			return dto.SubmissionResponse{}, err
		}

		created, err := s.submissions.GetByID(ctx, submission.ID)
		if err != nil {
			return dto.SubmissionResponse{}, err
		}
		s.logger.Info().Uint("submission_id", created.ID).Msg("draft created")
		return dto.NewSubmissionResponse(created), nil
	}

	if !existing.IsDraft() {
		return dto.SubmissionResponse{}, ErrStateConflict
	}

	ok, err := s.submissions.SaveDraftContent(ctx, existing.ID, payload.Content, s.now())
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if !ok {
		// A concurrent submit won the record between our read and write.
		return dto.SubmissionResponse{}, ErrStateConflict
	}

	saved, err := s.submissions.GetByID(ctx, existing.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(saved), nil
}

// Submit performs the draft -> submitted transition for the owning student.
func (s *submissionService) Submit(ctx context.Context, session guard.Session, submissionID uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if decision := guard.Authorize(session, guard.ActionSubmit, guard.Resource{Exists: true, OwnerID: submission.StudentID}); !decision.Allowed {
		return dto.SubmissionResponse{}, denied(decision)
	}

	if !submission.IsDraft() {
		return dto.SubmissionResponse{}, ErrStateConflict
	}

	now := s.now()
	if submission.Assignment.IsPastDue(now) {
		return dto.SubmissionResponse{}, ErrDeadlinePassed
	}

	if submission.Assignment.IsPractical() {
		latest, err := s.runs.LatestForSubmission(ctx, submission.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, err
		}
		if err == nil && latest.BlocksSubmit() {
			return dto.SubmissionResponse{}, ErrUnsupportedLanguageRun
		}
	}

	ok, err := s.submissions.MarkSubmitted(ctx, submission.ID, now)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if !ok {
		return dto.SubmissionResponse{}, ErrStateConflict
	}

	submitted, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if submitted.Assignment.IsPractical() {
		s.recordGradedRun(ctx, submitted)
	}

	s.publisher.SubmissionSubmitted(submitted)
	s.logger.Info().
		Uint("submission_id", submitted.ID).
		Uint("assignment_id", submitted.AssignmentID).
		Msg("submission submitted")

	return dto.NewSubmissionResponse(submitted), nil
}

// recordGradedRun executes the submitted code with the graded deadline and
// persists the attempt. The transition already happened; a backend outage
// here is recorded, not rolled back.
func (s *submissionService) recordGradedRun(ctx context.Context, submission models.Submission) {
	if s.orchestrator == nil {
		return
	}

	result, err := s.orchestrator.Run(ctx, execution.Request{
		LanguageID: submission.Assignment.ProgrammingLanguage,
		Source:     submission.Content,
		Graded:     true,
	})

	run := models.ExecutionRun{
		SubmissionID: submission.ID,
		StudentID:    submission.StudentID,
		LanguageID:   submission.Assignment.ProgrammingLanguage,
	}

	if err != nil {
		run.Outcome = models.ExecutionOutcomeRejected
		run.Details = map[string]interface{}{"error": err.Error()}
	} else {
		run.Outcome = string(result.Outcome)
		run.DurationMs = result.DurationMs
		run.Details = runDetails(result)
	}

	if err := s.runs.Create(ctx, &run); err != nil {
		s.logger.Error().Err(err).Uint("submission_id", submission.ID).Msg("failed to record graded run")
	}
}

// Evaluate grades a submitted answer; regrading an evaluated record is
// allowed and overwrites marks without changing status.
func (s *submissionService) Evaluate(ctx context.Context, session guard.Session, submissionID uint, payload dto.EvaluateRequest) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.evaluate", trace.WithAttributes(
		attribute.Int64("submission.id", int64(submissionID)),
		attribute.Int64("evaluator.id", int64(session.Actor.ID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	access, err := staffSubjectAccess(ctx, s.subjects, session, submission.Assignment.SubjectID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if decision := guard.Authorize(session, guard.ActionEvaluate, guard.Resource{Exists: true, OwnerID: submission.StudentID, SubjectAccess: access}); !decision.Allowed {
		span.SetStatus(codes.Error, "access_denied")
		return dto.SubmissionResponse{}, denied(decision)
	}

	if submission.IsDraft() {
		span.SetStatus(codes.Error, "state_conflict")
		return dto.SubmissionResponse{}, ErrStateConflict
	}

	if payload.Marks > submission.Assignment.MaxMarks {
		span.SetStatus(codes.Error, "marks_out_of_range")
		return dto.SubmissionResponse{}, ErrMarksOutOfRange
	}

	update := repository.EvaluationUpdate{
		Marks:           payload.Marks,
		Feedback:        s.sanitizer.Sanitize(strings.TrimSpace(payload.Feedback)),
		PlagiarismScore: payload.PlagiarismScore,
		EvaluatedBy:     session.Actor.ID,
		EvaluatedAt:     s.now(),
	}

	ok, err := s.submissions.ApplyEvaluation(ctx, submission.ID, update)
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}
	if !ok {
		span.SetStatus(codes.Error, "state_conflict")
		return dto.SubmissionResponse{}, ErrStateConflict
	}

	evaluated, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.publisher.SubmissionEvaluated(evaluated)
	span.SetAttributes(attribute.Float64("submission.marks", payload.Marks))

	return dto.NewSubmissionResponse(evaluated), nil
}

// Get returns a submission if the caller owns it or oversees its subject.
func (s *submissionService) Get(ctx context.Context, session guard.Session, submissionID uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	access, err := staffSubjectAccess(ctx, s.subjects, session, submission.Assignment.SubjectID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if decision := guard.Authorize(session, guard.ActionViewSubmission, guard.Resource{Exists: true, OwnerID: submission.StudentID, SubjectAccess: access}); !decision.Allowed {
		return dto.SubmissionResponse{}, denied(decision)
	}

	return dto.NewSubmissionResponse(submission), nil
}

// List returns submissions visible to the caller. Students are pinned to
// their own records regardless of the requested filter.
func (s *submissionService) List(ctx context.Context, session guard.Session, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	if session.State != guard.SessionAuthenticated {
		return nil, denied(guard.Authorize(session, guard.ActionViewSubmission, guard.Resource{Exists: true}))
	}

	repoFilter := repository.SubmissionFilter{
		AssignmentID: filter.AssignmentID,
		StudentID:    filter.StudentID,
		Status:       filter.Status,
	}

	if session.Actor.Role == models.RoleStudent {
		own := session.Actor.ID
		repoFilter.StudentID = &own
	}

	submissions, err := s.submissions.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	if session.Actor.Role != models.RoleStudent {
		filtered := submissions[:0]
		for _, submission := range submissions {
			access, err := staffSubjectAccess(ctx, s.subjects, session, submission.Assignment.SubjectID)
			if err != nil {
				return nil, err
			}
			if access {
				filtered = append(filtered, submission)
			}
		}
		submissions = filtered
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func runDetails(result execution.Result) map[string]interface{} {
	details := map[string]interface{}{
		"stdout": truncate(result.Stdout, 4096),
		"stderr": truncate(result.Stderr, 4096),
	}
	if result.ExitCode != nil {
		details["exit_code"] = *result.ExitCode
	}
	return details
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit]
}
