package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/guard"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/models"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/repository"
)

// ErrProfileNotFound indicates the authenticated user has no profile row.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileService resolves the calling user's profile.
type ProfileService interface {
	Current(ctx context.Context, session guard.Session) (models.Profile, error)
}

type profileService struct {
	profiles repository.ProfileRepository
	logger   zerolog.Logger
}

// NewProfileService constructs a ProfileService instance.
func NewProfileService(profileRepo repository.ProfileRepository, logger zerolog.Logger) ProfileService {
	return &profileService{
		profiles: profileRepo,
		logger:   logger.With().Str("component", "profile_service").Logger(),
	}
}

func (s *profileService) Current(ctx context.Context, session guard.Session) (models.Profile, error) {
	switch session.State {
	case guard.SessionResolving:
		return models.Profile{}, &AccessDeniedError{Reason: guard.ReasonSessionResolving}
	case guard.SessionUnauthenticated:
		return models.Profile{}, &AccessDeniedError{Reason: guard.ReasonUnauthenticated}
	}

	profile, err := s.profiles.GetByID(ctx, session.Actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Profile{}, ErrProfileNotFound
		}
		return models.Profile{}, err
	}

	return profile, nil
}
