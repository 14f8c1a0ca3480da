package services

import (
	"context"
	"sort"
	"strings"

	"github.com/carebridge/portal-api/internal/identity"
	"github.com/carebridge/portal-api/internal/models"
	"github.com/carebridge/portal-api/internal/repository"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type UserService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// ListUsers returns users, optionally filtered by role, ordered by role
// (PATIENT, PROVIDER, ADMIN) then first name then last name. Patients may not list users.
func (s *UserService) ListUsers(ctx context.Context, caller *identity.Identity, roleFilter string) ([]models.User, error) {
	if !caller.HasRole(models.RoleProvider, models.RoleAdmin) {
		return nil, ErrForbidden
	}

	var role models.Role
	if roleFilter = strings.ToUpper(strings.TrimSpace(roleFilter)); roleFilter != "" {
		r, ok := models.ParseRole(roleFilter)
		if !ok {
			return nil, &ValidationError{Messages: []string{"role must be one of PATIENT, PROVIDER, ADMIN"}}
		}
		role = r
	}

	users, err := s.users.List(ctx, role)
	if err != nil {
		return nil, err
	}
	SortUsers(users)
	return users, nil
}

// SortUsers orders users by role, first name, last name. Names compare with
// case-insensitive collation so the order does not depend on the database's
// collation settings.
func SortUsers(users []models.User) {
	col := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(users, func(i, j int) bool {
		a, b := users[i], users[j]
		if ra, rb := a.Role.Rank(), b.Role.Rank(); ra != rb {
			return ra < rb
		}
		if c := col.CompareString(a.FirstName, b.FirstName); c != 0 {
			return c < 0
		}
		return col.CompareString(a.LastName, b.LastName) < 0
	})
}
