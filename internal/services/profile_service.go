package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/carebridge/portal-api/internal/dto"
	"github.com/carebridge/portal-api/internal/identity"
	"github.com/carebridge/portal-api/internal/models"
	"github.com/carebridge/portal-api/internal/repository"
	"github.com/carebridge/portal-api/internal/validate"
)

type ProfileService struct {
	users repository.UserRepository
}

func NewProfileService(users repository.UserRepository) *ProfileService {
	return &ProfileService{users: users}
}

// UpdateProviderProfile applies req to the caller's user row and provider
// sub-profile. Only providers may call it, and the new email must not belong
// to another user.
func (s *ProfileService) UpdateProviderProfile(ctx context.Context, caller *identity.Identity, req *dto.ProfileUpdateRequest) (*identity.Identity, error) {
	if !caller.HasRole(models.RoleProvider) {
		return nil, ErrForbidden
	}

	changes, err := validateProfile(req)
	if err != nil {
		return nil, err
	}

	taken, err := s.users.EmailTakenByOther(ctx, changes.Email, caller.UserID())
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	if err := s.users.UpdateProfile(ctx, caller.UserID(), changes); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrEmailTaken
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	user, err := s.users.FindByID(ctx, caller.UserID())
	if err != nil {
		return nil, err
	}
	slog.Info("profile updated", "action", "profile.update", "user_id", user.ID.String())
	return identity.FromUser(user), nil
}

func validateProfile(req *dto.ProfileUpdateRequest) (repository.ProfileChanges, error) {
	var errs validate.Errors

	first, ok := validate.Name(req.FirstName)
	if !ok {
		errs.Add("firstName must be 1-100 characters")
	}
	last, ok := validate.Name(req.LastName)
	if !ok {
		errs.Add("lastName must be 1-100 characters")
	}
	email, ok := validate.Email(req.Email)
	if !ok {
		errs.Add("email must be a valid email address")
	}
	phone, ok := validate.Phone(req.Phone)
	if !ok {
		errs.Add("phone must contain only digits, spaces and ()+-")
	}
	specialty := strings.TrimSpace(req.Specialty)
	if len(specialty) > 100 {
		errs.Add("specialty must be at most 100 characters")
	}

	if !errs.Empty() {
		return repository.ProfileChanges{}, &ValidationError{Messages: errs}
	}
	return repository.ProfileChanges{
		FirstName: first,
		LastName:  last,
		Email:     email,
		Phone:     phone,
		Specialty: &specialty,
	}, nil
}
