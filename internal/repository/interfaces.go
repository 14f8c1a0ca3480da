package repository

import (
	"context"
	"errors"
	"time"

	"github.com/carebridge/portal-api/internal/models"
	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// ProfileChanges is the set of columns a profile update may touch.
// Specialty applies to the provider sub-profile only.
type ProfileChanges struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Specialty *string
}

type UserRepository interface {
	// FindByEmail and FindByID load the patient and provider relations.
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	EmailTakenByOther(ctx context.Context, email string, userID uuid.UUID) (bool, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, changes ProfileChanges) error
	// List returns users with the given role, or all users when role is empty.
	List(ctx context.Context, role models.Role) ([]models.User, error)
}

type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error)
	DeleteByTokenHash(ctx context.Context, tokenHash string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type MedicalRecordRepository interface {
	// FindForReport loads the record with patient, provider (both with their
	// users) and appointment.
	FindForReport(ctx context.Context, id uuid.UUID) (*models.MedicalRecord, error)
}
