package dto

import (
	"time"

	"github.com/carebridge/portal-api/internal/identity"
	"github.com/carebridge/portal-api/internal/models"
	"github.com/google/uuid"
)

type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	TwoFAToken string `json:"twoFAToken,omitempty"`
}

type LoginResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

type ProfileUpdateRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Specialty string `json:"specialty"`
}

// UserResponse is the public view of a user. At most one of Patient and
// Provider is set, matching Role; the password hash is never included.
type UserResponse struct {
	ID               uuid.UUID         `json:"id"`
	Email            string            `json:"email"`
	FirstName        string            `json:"firstName"`
	LastName         string            `json:"lastName"`
	Role             models.Role       `json:"role"`
	Phone            string            `json:"phone"`
	ProfileImage     string            `json:"profileImage"`
	IsActive         bool              `json:"isActive"`
	TwoFactorEnabled bool              `json:"twoFactorEnabled"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
	Patient          *PatientResponse  `json:"patient,omitempty"`
	Provider         *ProviderResponse `json:"provider,omitempty"`
}

type PatientResponse struct {
	ID                uuid.UUID  `json:"id"`
	DateOfBirth       *time.Time `json:"dateOfBirth,omitempty"`
	Gender            string     `json:"gender"`
	InsuranceProvider string     `json:"insuranceProvider"`
	InsuranceNumber   string     `json:"insuranceNumber"`
	EmergencyContact  string     `json:"emergencyContact"`
}

type ProviderResponse struct {
	ID            uuid.UUID `json:"id"`
	Specialty     string    `json:"specialty"`
	Department    string    `json:"department"`
	LicenseNumber string    `json:"licenseNumber"`
}

func NewUserResponse(id *identity.Identity) UserResponse {
	u := id.User
	resp := UserResponse{
		ID:               u.ID,
		Email:            u.Email,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Role:             u.Role,
		Phone:            u.Phone,
		ProfileImage:     u.ProfileImage,
		IsActive:         u.IsActive,
		TwoFactorEnabled: u.TwoFactorEnabled,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}

	switch p := id.Profile.(type) {
	case identity.PatientProfile:
		if p.Patient != nil {
			resp.Patient = &PatientResponse{
				ID:                p.Patient.ID,
				DateOfBirth:       p.Patient.DateOfBirth,
				Gender:            p.Patient.Gender,
				InsuranceProvider: p.Patient.InsuranceProvider,
				InsuranceNumber:   p.Patient.InsuranceNumber,
				EmergencyContact:  p.Patient.EmergencyContact,
			}
		}
	case identity.ProviderProfile:
		if p.Provider != nil {
			resp.Provider = &ProviderResponse{
				ID:            p.Provider.ID,
				Specialty:     p.Provider.Specialty,
				Department:    p.Provider.Department,
				LicenseNumber: p.Provider.LicenseNumber,
			}
		}
	}
	return resp
}

func NewUserList(users []models.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(identity.FromUser(&users[i])))
	}
	return out
}
