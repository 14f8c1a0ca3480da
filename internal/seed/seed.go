// Package seed loads YAML fixtures of users, profiles, appointments and
// medical records into the database.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/carebridge/portal-api/internal/models"
	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Fixture struct {
	Users   []UserFixture   `yaml:"users"`
	Records []RecordFixture `yaml:"records"`
}

type UserFixture struct {
	Email     string           `yaml:"email"`
	Password  string           `yaml:"password"`
	FirstName string           `yaml:"firstName"`
	LastName  string           `yaml:"lastName"`
	Role      string           `yaml:"role"`
	Phone     string           `yaml:"phone"`
	Active    *bool            `yaml:"active"`
	TwoFactor bool             `yaml:"twoFactor"`
	Patient   *PatientFixture  `yaml:"patient"`
	Provider  *ProviderFixture `yaml:"provider"`
}

type PatientFixture struct {
	DateOfBirth       string `yaml:"dateOfBirth"`
	Gender            string `yaml:"gender"`
	InsuranceProvider string `yaml:"insuranceProvider"`
	InsuranceNumber   string `yaml:"insuranceNumber"`
	EmergencyContact  string `yaml:"emergencyContact"`
}

type ProviderFixture struct {
	Specialty     string `yaml:"specialty"`
	Department    string `yaml:"department"`
	LicenseNumber string `yaml:"licenseNumber"`
}

// RecordFixture refers to its patient and provider by user email.
type RecordFixture struct {
	Patient      string              `yaml:"patient"`
	Provider     string              `yaml:"provider"`
	VisitDate    string              `yaml:"visitDate"`
	Diagnosis    string              `yaml:"diagnosis"`
	Symptoms     string              `yaml:"symptoms"`
	Treatment    string              `yaml:"treatment"`
	Prescription string              `yaml:"prescription"`
	Notes        string              `yaml:"notes"`
	Appointment  *AppointmentFixture `yaml:"appointment"`
}

type AppointmentFixture struct {
	ScheduledAt string `yaml:"scheduledAt"`
	Status      string `yaml:"status"`
	Reason      string `yaml:"reason"`
}

type Result struct {
	UsersCreated   int
	UsersSkipped   int
	RecordsCreated int
}

func LoadFile(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return &f, nil
}

// Apply writes f in one transaction. Users whose email already exists are
// left untouched, so re-running a fixture is safe.
func Apply(ctx context.Context, db *gorm.DB, f *Fixture, bcryptCost int) (Result, error) {
	var res Result
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		patients := make(map[string]uuid.UUID)
		providers := make(map[string]uuid.UUID)

		for i, uf := range f.Users {
			u, created, err := applyUser(tx, uf, bcryptCost)
			if err != nil {
				return fmt.Errorf("user %d (%s): %w", i, uf.Email, err)
			}
			if created {
				res.UsersCreated++
			} else {
				res.UsersSkipped++
			}
			if u.Patient != nil {
				patients[u.Email] = u.Patient.ID
			}
			if u.Provider != nil {
				providers[u.Email] = u.Provider.ID
			}
		}

		for i, rf := range f.Records {
			if err := applyRecord(tx, rf, patients, providers); err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
			res.RecordsCreated++
		}
		return nil
	})
	return res, err
}

func applyUser(tx *gorm.DB, uf UserFixture, cost int) (*models.User, bool, error) {
	email := strings.ToLower(strings.TrimSpace(uf.Email))
	role, ok := models.ParseRole(strings.ToUpper(uf.Role))
	if email == "" || !ok {
		return nil, false, errors.New("email and a valid role are required")
	}

	var existing models.User
	err := tx.Preload("Patient").Preload("Provider").Where("email = ?", email).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	if uf.Password == "" {
		return nil, false, errors.New("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(uf.Password), cost)
	if err != nil {
		return nil, false, err
	}

	u := &models.User{
		Email:            email,
		Password:         string(hash),
		FirstName:        uf.FirstName,
		LastName:         uf.LastName,
		Role:             role,
		Phone:            uf.Phone,
		IsActive:         uf.Active == nil || *uf.Active,
		TwoFactorEnabled: uf.TwoFactor,
	}
	if err := tx.Create(u).Error; err != nil {
		return nil, false, err
	}

	switch role {
	case models.RolePatient:
		p := &models.Patient{UserID: u.ID}
		if pf := uf.Patient; pf != nil {
			if pf.DateOfBirth != "" {
				dob, err := time.Parse("2006-01-02", pf.DateOfBirth)
				if err != nil {
					return nil, false, fmt.Errorf("dateOfBirth: %w", err)
				}
				p.DateOfBirth = &dob
			}
			p.Gender = pf.Gender
			p.InsuranceProvider = pf.InsuranceProvider
			p.InsuranceNumber = pf.InsuranceNumber
			p.EmergencyContact = pf.EmergencyContact
		}
		if err := tx.Create(p).Error; err != nil {
			return nil, false, err
		}
		u.Patient = p
	case models.RoleProvider:
		p := &models.Provider{UserID: u.ID}
		if pf := uf.Provider; pf != nil {
			p.Specialty = pf.Specialty
			p.Department = pf.Department
			p.LicenseNumber = pf.LicenseNumber
		}
		if err := tx.Create(p).Error; err != nil {
			return nil, false, err
		}
		u.Provider = p
	}
	return u, true, nil
}

func applyRecord(tx *gorm.DB, rf RecordFixture, patients, providers map[string]uuid.UUID) error {
	patientID, ok := patients[strings.ToLower(rf.Patient)]
	if !ok {
		return fmt.Errorf("unknown patient %q", rf.Patient)
	}
	providerID, ok := providers[strings.ToLower(rf.Provider)]
	if !ok {
		return fmt.Errorf("unknown provider %q", rf.Provider)
	}
	visit, err := parseTime(rf.VisitDate)
	if err != nil {
		return fmt.Errorf("visitDate: %w", err)
	}

	rec := &models.MedicalRecord{
		PatientID:    patientID,
		ProviderID:   providerID,
		VisitDate:    visit,
		Diagnosis:    rf.Diagnosis,
		Symptoms:     rf.Symptoms,
		Treatment:    rf.Treatment,
		Prescription: rf.Prescription,
		Notes:        rf.Notes,
	}

	if af := rf.Appointment; af != nil {
		at, err := parseTime(af.ScheduledAt)
		if err != nil {
			return fmt.Errorf("appointment scheduledAt: %w", err)
		}
		status := af.Status
		if status == "" {
			status = "COMPLETED"
		}
		appt := &models.Appointment{
			PatientID:   patientID,
			ProviderID:  providerID,
			ScheduledAt: at,
			Status:      status,
			Reason:      af.Reason,
		}
		if err := tx.Create(appt).Error; err != nil {
			return err
		}
		rec.AppointmentID = &appt.ID
	}
	return tx.Create(rec).Error
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse("2006-01-02", s)
}
