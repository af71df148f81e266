package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/dto"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/execution"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/guard"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/language"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/models"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/repository"
)

// ErrRunUnsupportedLanguage surfaces a registry miss on an ad-hoc run.
var ErrRunUnsupportedLanguage = errors.New("unsupported language")

// RunService executes editor code on demand without touching submission
// state beyond the recorded run history.
type RunService interface {
	Run(ctx context.Context, session guard.Session, payload dto.RunRequest) (dto.RunResponse, error)
	History(ctx context.Context, session guard.Session, submissionID uint, limit int) ([]dto.ExecutionRunResponse, error)
}

type runService struct {
	submissions  repository.SubmissionRepository
	runs         repository.ExecutionRunRepository
	orchestrator *execution.Orchestrator
	validator    *validator.Validate
	logger       zerolog.Logger
	now          func() time.Time
}

// NewRunService constructs a RunService instance.
func NewRunService(
	submissionRepo repository.SubmissionRepository,
	runRepo repository.ExecutionRunRepository,
	orchestrator *execution.Orchestrator,
	validate *validator.Validate,
	logger zerolog.Logger,
) RunService {
	return &runService{
		submissions:  submissionRepo,
		runs:         runRepo,
		orchestrator: orchestrator,
		validator:    validate,
		logger:       logger.With().Str("component", "run_service").Logger(),
		now:          time.Now,
	}
}

// Run orchestrates one execution for the owning student and records the
// attempt. A registry miss is recorded as a rejected run so a later
// practical submit can refuse it.
func (s *runService) Run(ctx context.Context, session guard.Session, payload dto.RunRequest) (dto.RunResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RunResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, payload.SubmissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RunResponse{}, ErrSubmissionNotFound
		}
		return dto.RunResponse{}, err
	}

	if decision := guard.Authorize(session, guard.ActionRunCode, guard.Resource{Exists: true, OwnerID: submission.StudentID}); !decision.Allowed {
		return dto.RunResponse{}, denied(decision)
	}

	result, runErr := s.orchestrator.Run(ctx, execution.Request{
		LanguageID: payload.LanguageID,
		Source:     payload.Source,
		Stdin:      payload.Stdin,
	})

	run := models.ExecutionRun{
		SubmissionID: submission.ID,
		StudentID:    session.Actor.ID,
		LanguageID:   payload.LanguageID,
	}

	switch {
	case runErr == nil:
		run.Outcome = string(result.Outcome)
		run.DurationMs = result.DurationMs
		run.Details = runDetails(result)
	case errors.Is(runErr, language.ErrUnsupportedLanguage):
		run.Outcome = models.ExecutionOutcomeRejected
		run.Details = map[string]interface{}{"error": runErr.Error()}
	case errors.Is(runErr, context.Canceled):
		// Caller walked away; nothing to record, nothing to report.
		return dto.RunResponse{}, runErr
	default:
		run.Outcome = models.ExecutionOutcomeRejected
		run.Details = map[string]interface{}{"error": runErr.Error()}
	}

	if err := s.runs.Create(ctx, &run); err != nil {
		s.logger.Error().Err(err).Uint("submission_id", submission.ID).Msg("failed to record run")
	}

	if runErr != nil {
		if errors.Is(runErr, language.ErrUnsupportedLanguage) {
			return dto.RunResponse{}, ErrRunUnsupportedLanguage
		}
		return dto.RunResponse{}, runErr
	}

	return dto.NewRunResponse(result), nil
}

// History lists recent run attempts for a submission the caller owns.
func (s *runService) History(ctx context.Context, session guard.Session, submissionID uint, limit int) ([]dto.ExecutionRunResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}

	if decision := guard.Authorize(session, guard.ActionViewSubmission, guard.Resource{Exists: true, OwnerID: submission.StudentID}); !decision.Allowed {
		return nil, denied(decision)
	}

	runs, err := s.runs.ListForSubmission(ctx, submissionID, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ExecutionRunResponse, 0, len(runs))
	for _, run := range runs {
		responses = append(responses, dto.NewExecutionRunResponse(run))
	}
	return responses, nil
}
