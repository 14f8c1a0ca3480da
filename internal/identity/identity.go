// Package identity models the resolved caller of a request: an active user
// plus the sub-profile that matches its role.
package identity

import (
	"github.com/carebridge/portal-api/internal/models"
	"github.com/google/uuid"
)

// Profile is the role-specific part of an identity. Exactly one variant is
// populated, chosen by the user's role.
type Profile interface {
	Role() models.Role
	isProfile()
}

type PatientProfile struct {
	Patient *models.Patient
}

func (PatientProfile) Role() models.Role { return models.RolePatient }
func (PatientProfile) isProfile()        {}

type ProviderProfile struct {
	Provider *models.Provider
}

func (ProviderProfile) Role() models.Role { return models.RoleProvider }
func (ProviderProfile) isProfile()        {}

type AdminProfile struct{}

func (AdminProfile) Role() models.Role { return models.RoleAdmin }
func (AdminProfile) isProfile()        {}

type Identity struct {
	User    *models.User
	Profile Profile
}

// FromUser builds the identity of u. A PATIENT or PROVIDER whose sub-profile
// row is missing still resolves, with a nil sub-profile pointer.
func FromUser(u *models.User) *Identity {
	id := &Identity{User: u}
	switch u.Role {
	case models.RolePatient:
		id.Profile = PatientProfile{Patient: u.Patient}
	case models.RoleProvider:
		id.Profile = ProviderProfile{Provider: u.Provider}
	default:
		id.Profile = AdminProfile{}
	}
	return id
}

func (i *Identity) Role() models.Role { return i.User.Role }

func (i *Identity) UserID() uuid.UUID { return i.User.ID }

// HasRole reports whether the identity holds any of roles.
func (i *Identity) HasRole(roles ...models.Role) bool {
	for _, r := range roles {
		if i.User.Role == r {
			return true
		}
	}
	return false
}

// ProviderID returns the provider sub-profile id when the identity is a
// provider with a profile row.
func (i *Identity) ProviderID() (uuid.UUID, bool) {
	p, ok := i.Profile.(ProviderProfile)
	if !ok || p.Provider == nil {
		return uuid.Nil, false
	}
	return p.Provider.ID, true
}
