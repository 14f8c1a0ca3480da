package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/carebridge/portal-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GormMedicalRecordRepo struct {
	db *gorm.DB
}

func NewMedicalRecordRepo(db *gorm.DB) *GormMedicalRecordRepo {
	return &GormMedicalRecordRepo{db: db}
}

func (r *GormMedicalRecordRepo) FindForReport(ctx context.Context, id uuid.UUID) (*models.MedicalRecord, error) {
	var record models.MedicalRecord
	err := r.db.WithContext(ctx).
		Preload("Patient.User").
		Preload("Provider.User").
		Preload("Appointment").
		Where("id = ?", id).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find medical record: %w", err)
	}
	return &record, nil
}

var _ MedicalRecordRepository = (*GormMedicalRecordRepo)(nil)
