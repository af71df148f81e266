package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/dto"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/guard"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/language"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/models"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/repository"
)

// ErrSubjectNotFound indicates the referenced subject does not exist.
var ErrSubjectNotFound = errors.New("subject not found")

// ErrUnknownAssignmentLanguage rejects practical assignments naming a
// language the registry cannot resolve. Validated at authoring time so a
// registry change surfaces at edit, never silently at submit.
var ErrUnknownAssignmentLanguage = errors.New("assignment language not in registry")

// FileUploader abstracts uploading binary data and returning a URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// AssignmentService exposes assignment authoring use cases.
type AssignmentService interface {
	List(ctx context.Context, filter dto.AssignmentFilter) ([]dto.AssignmentResponse, int64, error)
	Get(ctx context.Context, id uint) (dto.AssignmentResponse, error)
	Create(ctx context.Context, session guard.Session, payload dto.AssignmentCreateRequest, attachment *multipart.FileHeader) (dto.AssignmentResponse, error)
	Update(ctx context.Context, session guard.Session, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, session guard.Session, id uint) error
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	subjects    repository.SubjectRepository
	registry    *language.Registry
	validator   *validator.Validate
	uploader    FileUploader
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAssignmentService builds a new assignment service.
func NewAssignmentService(
	assignmentRepo repository.AssignmentRepository,
	subjectRepo repository.SubjectRepository,
	registry *language.Registry,
	validate *validator.Validate,
	uploader FileUploader,
	logger zerolog.Logger,
) AssignmentService {
	return &assignmentService{
		assignments: assignmentRepo,
		subjects:    subjectRepo,
		registry:    registry,
		validator:   validate,
		uploader:    uploader,
		logger:      logger.With().Str("component", "assignment_service").Logger(),
		now:         time.Now,
	}
}

func (s *assignmentService) List(ctx context.Context, filter dto.AssignmentFilter) ([]dto.AssignmentResponse, int64, error) {
	assignments, total, err := s.assignments.List(ctx, repository.AssignmentFilter{
		SubjectID: filter.SubjectID,
		Type:      filter.Type,
		Search:    filter.Search,
		Sort:      filter.Sort,
		Page:      filter.Page,
		PageSize:  filter.PageSize,
	})
	if err != nil {
		return nil, 0, err
	}

	return dto.NewAssignmentResponseSlice(assignments), total, nil
}

func (s *assignmentService) Get(ctx context.Context, id uint) (dto.AssignmentResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Create(ctx context.Context, session guard.Session, payload dto.AssignmentCreateRequest, attachment *multipart.FileHeader) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	if _, err := s.subjects.GetByID(ctx, payload.SubjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrSubjectNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	access, err := staffSubjectAccess(ctx, s.subjects, session, payload.SubjectID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}
	if decision := guard.Authorize(session, guard.ActionAuthorAssignment, guard.Resource{Exists: true, SubjectAccess: access}); !decision.Allowed {
		return dto.AssignmentResponse{}, denied(decision)
	}

	languageID := strings.ToLower(strings.TrimSpace(payload.ProgrammingLanguage))
	if payload.Type == models.AssignmentTypePractical {
		if languageID == "" {
			return dto.AssignmentResponse{}, ErrUnknownAssignmentLanguage
		}
		if _, err := s.registry.Resolve(languageID); err != nil {
			return dto.AssignmentResponse{}, ErrUnknownAssignmentLanguage
		}
	}

	assignment := models.Assignment{
		SubjectID:           payload.SubjectID,
		Title:               payload.Title,
		Description:         payload.Description,
		Type:                payload.Type,
		ProgrammingLanguage: languageID,
		Deadline:            payload.Deadline,
		MaxMarks:            payload.MaxMarks,
	}

	if attachment != nil {
		url, err := s.uploadAttachment(ctx, attachment)
		if err != nil {
			return dto.AssignmentResponse{}, err
		}
		assignment.AttachmentURL = url
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Str("type", assignment.Type).Msg("assignment created")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Update(ctx context.Context, session guard.Session, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	access, err := staffSubjectAccess(ctx, s.subjects, session, assignment.SubjectID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}
	if decision := guard.Authorize(session, guard.ActionAuthorAssignment, guard.Resource{Exists: true, SubjectAccess: access}); !decision.Allowed {
		return dto.AssignmentResponse{}, denied(decision)
	}

	if payload.Title != nil {
		assignment.Title = *payload.Title
	}
	if payload.Description != nil {
		assignment.Description = *payload.Description
	}
	if payload.Deadline != nil {
		assignment.Deadline = *payload.Deadline
	}
	if payload.MaxMarks != nil {
		assignment.MaxMarks = *payload.MaxMarks
	}
	if payload.ProgrammingLanguage != nil {
		languageID := strings.ToLower(strings.TrimSpace(*payload.ProgrammingLanguage))
		if assignment.IsPractical() {
			if _, err := s.registry.Resolve(languageID); err != nil {
				return dto.AssignmentResponse{}, ErrUnknownAssignmentLanguage
			}
		}
		assignment.ProgrammingLanguage = languageID
	}

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Delete(ctx context.Context, session guard.Session, id uint) error {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	access, err := staffSubjectAccess(ctx, s.subjects, session, assignment.SubjectID)
	if err != nil {
		return err
	}
	if decision := guard.Authorize(session, guard.ActionAuthorAssignment, guard.Resource{Exists: true, SubjectAccess: access}); !decision.Allowed {
		return denied(decision)
	}

	return s.assignments.Delete(ctx, id)
}

func (s *assignmentService) uploadAttachment(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if s.uploader == nil {
		return "", fmt.Errorf("attachment uploads are not configured")
	}

	if err := validateAttachmentType(file); err != nil {
		return "", err
	}

	reader, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open attachment: %w", err)
	}
	defer reader.Close()

	url, err := s.uploader.Upload(ctx, file.Filename, reader)
	if err != nil {
		return "", fmt.Errorf("failed to upload attachment: %w", err)
	}

	return url, nil
}

func validateAttachmentType(file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open attachment: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect attachment type: %w", err)
	}

	allowed := []string{"application/pdf", "application/zip", "application/x-zip-compressed", "text/plain"}
	for _, a := range allowed {
		if mime.Is(a) {
			return nil
		}
	}

	return fmt.Errorf("unsupported attachment type: %s", mime.String())
}
