package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/carebridge/portal-api/internal/identity"
	"github.com/carebridge/portal-api/internal/metrics"
	"github.com/carebridge/portal-api/internal/models"
	"github.com/carebridge/portal-api/internal/report"
	"github.com/carebridge/portal-api/internal/repository"
	"github.com/google/uuid"
)

const reportDateLayout = "January 2, 2006"

type ReportService struct {
	records   repository.MedicalRecordRepository
	sanitizer *report.Sanitizer
	metrics   metrics.Recorder
	now       func() time.Time
}

func NewReportService(records repository.MedicalRecordRepository, rec metrics.Recorder) *ReportService {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &ReportService{
		records:   records,
		sanitizer: report.NewSanitizer(),
		metrics:   rec,
		now:       time.Now,
	}
}

// BuildMedicalRecordReport loads a record for the caller and flattens it
// into a report view. Admins may report on any record; providers only on
// records attributed to them.
func (s *ReportService) BuildMedicalRecordReport(ctx context.Context, caller *identity.Identity, recordID uuid.UUID) (*report.View, error) {
	if !caller.HasRole(models.RoleProvider, models.RoleAdmin) {
		return nil, ErrForbidden
	}

	record, err := s.records.FindForReport(ctx, recordID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	if caller.HasRole(models.RoleProvider) {
		providerID, ok := caller.ProviderID()
		if !ok || providerID != record.ProviderID {
			slog.Warn("report denied for unattributed provider",
				"action", "report.denied",
				"user_id", caller.UserID().String(),
				"record_id", recordID.String(),
			)
			return nil, ErrForbidden
		}
	}

	view := s.flatten(record)
	s.metrics.RecordReportGenerated()
	slog.Info("medical record report generated",
		"action", "report.generate",
		"user_id", caller.UserID().String(),
		"record_id", recordID.String(),
	)
	return view, nil
}

func (s *ReportService) flatten(r *models.MedicalRecord) *report.View {
	v := &report.View{
		RecordID:     r.ID.String(),
		GeneratedAt:  s.now().UTC().Format(time.RFC1123),
		VisitDate:    r.VisitDate.Format(reportDateLayout),
		Diagnosis:    orDash(r.Diagnosis),
		Symptoms:     orDash(r.Symptoms),
		Treatment:    orDash(r.Treatment),
		Prescription: orDash(r.Prescription),
		Notes:        s.sanitizer.Notes(r.Notes),
	}

	if p := r.Patient; p != nil {
		if p.User != nil {
			v.PatientName = p.User.FullName()
			v.PatientEmail = p.User.Email
		}
		if p.DateOfBirth != nil {
			v.DateOfBirth = p.DateOfBirth.Format(reportDateLayout)
		}
		v.Gender = p.Gender
		v.InsuranceProvider = p.InsuranceProvider
		v.InsuranceNumber = p.InsuranceNumber
	}

	if p := r.Provider; p != nil {
		if p.User != nil {
			v.ProviderName = p.User.FullName()
		}
		v.Specialty = p.Specialty
		v.Department = p.Department
		v.LicenseNumber = p.LicenseNumber
	}

	if a := r.Appointment; a != nil {
		v.AppointmentAt = a.ScheduledAt.Format(reportDateLayout + " 15:04")
		v.AppointmentStatus = a.Status
		v.AppointmentReason = a.Reason
	}
	return v
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
