package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Appointment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PatientID   uuid.UUID `gorm:"type:uuid;not null;index" json:"patientId"`
	ProviderID  uuid.UUID `gorm:"type:uuid;not null;index" json:"providerId"`
	ScheduledAt time.Time `gorm:"not null" json:"scheduledAt"`
	Status      string    `gorm:"size:20;not null" json:"status"`
	Reason      string    `gorm:"size:500" json:"reason"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// MedicalRecord is attributed to exactly one provider; only that provider
// (or an admin) may generate its report.
type MedicalRecord struct {
	ID            uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	PatientID     uuid.UUID    `gorm:"type:uuid;not null;index" json:"patientId"`
	ProviderID    uuid.UUID    `gorm:"type:uuid;not null;index" json:"providerId"`
	AppointmentID *uuid.UUID   `gorm:"type:uuid" json:"appointmentId,omitempty"`
	VisitDate     time.Time    `gorm:"not null" json:"visitDate"`
	Diagnosis     string       `gorm:"type:text" json:"diagnosis"`
	Symptoms      string       `gorm:"type:text" json:"symptoms"`
	Treatment     string       `gorm:"type:text" json:"treatment"`
	Prescription  string       `gorm:"type:text" json:"prescription"`
	Notes         string       `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
	Patient       *Patient     `gorm:"foreignKey:PatientID" json:"-"`
	Provider      *Provider    `gorm:"foreignKey:ProviderID" json:"-"`
	Appointment   *Appointment `gorm:"foreignKey:AppointmentID" json:"-"`
}

func (m *MedicalRecord) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
