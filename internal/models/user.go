package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the access tier of a user. A user holds exactly one role.
type Role string

const (
	RolePatient  Role = "PATIENT"
	RoleProvider Role = "PROVIDER"
	RoleAdmin    Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleProvider, RoleAdmin:
		return true
	}
	return false
}

// Rank is the role's position in declaration order: PATIENT, PROVIDER, ADMIN.
// Unknown roles sort last.
func (r Role) Rank() int {
	switch r {
	case RolePatient:
		return 0
	case RoleProvider:
		return 1
	case RoleAdmin:
		return 2
	}
	return 3
}

// RoleRankSQL orders rows by Rank inside the database.
const RoleRankSQL = "CASE role WHEN 'PATIENT' THEN 0 WHEN 'PROVIDER' THEN 1 WHEN 'ADMIN' THEN 2 ELSE 3 END"

// ParseRole validates a role string.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

type User struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email            string    `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Password         string    `gorm:"not null" json:"-"`
	FirstName        string    `gorm:"size:100;not null" json:"firstName"`
	LastName         string    `gorm:"size:100;not null" json:"lastName"`
	Role             Role      `gorm:"size:20;not null;index" json:"role"`
	Phone            string    `gorm:"size:30" json:"phone"`
	ProfileImage     string    `gorm:"size:500" json:"profileImage"`
	IsActive         bool      `gorm:"not null" json:"isActive"`
	TwoFactorEnabled bool      `gorm:"not null" json:"twoFactorEnabled"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
	Patient          *Patient  `gorm:"foreignKey:UserID" json:"-"`
	Provider         *Provider `gorm:"foreignKey:UserID" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
