package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Patient is the one-to-one sub-profile of a PATIENT user.
type Patient struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"userId"`
	DateOfBirth       *time.Time `json:"dateOfBirth,omitempty"`
	Gender            string     `gorm:"size:20" json:"gender,omitempty"`
	InsuranceProvider string     `gorm:"size:255" json:"insuranceProvider,omitempty"`
	InsuranceNumber   string     `gorm:"size:100" json:"insuranceNumber,omitempty"`
	EmergencyContact  string     `gorm:"size:255" json:"emergencyContact,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
	User              *User      `gorm:"foreignKey:UserID" json:"-"`
}

func (p *Patient) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Provider is the one-to-one sub-profile of a PROVIDER user.
type Provider struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"userId"`
	Specialty     string    `gorm:"size:100" json:"specialty"`
	Department    string    `gorm:"size:100" json:"department,omitempty"`
	LicenseNumber string    `gorm:"size:100" json:"licenseNumber,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	User          *User     `gorm:"foreignKey:UserID" json:"-"`
}

func (p *Provider) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
