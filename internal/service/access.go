package service

import (
	"context"
	"errors"

	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/guard"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/models"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/repository"
)

// ErrAccessDenied is matched by errors.Is against any denial; the concrete
// reason travels on AccessDeniedError for handlers that branch on it.
var ErrAccessDenied = errors.New("access denied")

// AccessDeniedError carries the guard's denial reason to the transport layer.
type AccessDeniedError struct {
	Reason guard.Reason
}

func (e *AccessDeniedError) Error() string {
	return "access denied: " + string(e.Reason)
}

// Is makes errors.Is(err, ErrAccessDenied) hold for every denial.
func (e *AccessDeniedError) Is(target error) bool {
	return target == ErrAccessDenied
}

func denied(decision guard.Decision) error {
	return &AccessDeniedError{Reason: decision.Reason}
}

// staffSubjectAccess resolves the boolean subject capability the guard
// consumes. HODs oversee every subject; teachers only their own.
func staffSubjectAccess(ctx context.Context, subjects repository.SubjectRepository, session guard.Session, subjectID uint) (bool, error) {
	if session.State != guard.SessionAuthenticated {
		return false, nil
	}

	switch session.Actor.Role {
	case models.RoleHOD:
		return true, nil
	case models.RoleTeacher:
		return subjects.TeacherOwnsSubject(ctx, session.Actor.ID, subjectID)
	default:
		return false, nil
	}
}
