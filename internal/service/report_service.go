package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/dto"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/guard"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/models"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/repository"
)

// plagiarismCutoff is the score above which a submission counts as flagged
// in assignment reports.
const plagiarismCutoff = 0.8

// ReportService aggregates evaluated submissions into typed reports.
type ReportService interface {
	AssignmentReport(ctx context.Context, session guard.Session, assignmentID uint) (dto.AssignmentReport, error)
}

type reportService struct {
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	subjects    repository.SubjectRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// NewReportService constructs a ReportService with an optional Redis cache.
func NewReportService(
	assignmentRepo repository.AssignmentRepository,
	submissionRepo repository.SubmissionRepository,
	subjectRepo repository.SubjectRepository,
	cache *redis.Client,
	ttl time.Duration,
	logger zerolog.Logger,
) ReportService {
	return &reportService{
		assignments: assignmentRepo,
		submissions: submissionRepo,
		subjects:    subjectRepo,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "report_service").Logger(),
	}
}

// AssignmentReport reduces the assignment's evaluated submissions into a
// typed aggregate. Staff only, scoped to their subjects.
func (s *reportService) AssignmentReport(ctx context.Context, session guard.Session, assignmentID uint) (dto.AssignmentReport, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentReport{}, ErrAssignmentNotFound
		}
		return dto.AssignmentReport{}, err
	}

	access, err := staffSubjectAccess(ctx, s.subjects, session, assignment.SubjectID)
	if err != nil {
		return dto.AssignmentReport{}, err
	}
	if decision := guard.Authorize(session, guard.ActionEvaluate, guard.Resource{Exists: true, SubjectAccess: access}); !decision.Allowed {
		return dto.AssignmentReport{}, denied(decision)
	}

	cacheKey := fmt.Sprintf("report:assignment:%d", assignmentID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var report dto.AssignmentReport
			if unmarshalErr := json.Unmarshal([]byte(cached), &report); unmarshalErr == nil {
				s.logger.Debug().Uint("assignment_id", assignmentID).Msg("report cache hit")
				return report, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read report cache")
		}
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{AssignmentID: &assignmentID})
	if err != nil {
		return dto.AssignmentReport{}, err
	}

	report := buildAssignmentReport(assignment, submissions)

	if s.cache != nil {
		if payload, err := json.Marshal(report); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store report cache")
			}
		}
	}

	return report, nil
}

func buildAssignmentReport(assignment models.Assignment, submissions []models.Submission) dto.AssignmentReport {
	report := dto.AssignmentReport{
		AssignmentID:     assignment.ID,
		Title:            assignment.Title,
		MaxMarks:         assignment.MaxMarks,
		PlagiarismCutoff: plagiarismCutoff,
	}

	var total float64
	for _, submission := range submissions {
		switch submission.Status {
		case models.SubmissionStatusSubmitted:
			report.SubmittedCount++
		case models.SubmissionStatusEvaluated:
			report.SubmittedCount++
			report.EvaluatedCount++

			marks := 0.0
			if submission.Marks != nil {
				marks = *submission.Marks
			}
			total += marks
			if report.EvaluatedCount == 1 || marks > report.HighestMarks {
				report.HighestMarks = marks
			}
			if report.EvaluatedCount == 1 || marks < report.LowestMarks {
				report.LowestMarks = marks
			}
			if submission.PlagiarismScore >= plagiarismCutoff {
				report.PlagiarismFlags++
			}
		}
	}

	if report.EvaluatedCount > 0 {
		report.MeanMarks = total / float64(report.EvaluatedCount)
	}

	return report
}
