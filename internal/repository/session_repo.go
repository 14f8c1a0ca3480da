package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carebridge/portal-api/internal/models"
	"gorm.io/gorm"
)

type GormSessionRepo struct {
	db *gorm.DB
}

func NewSessionRepo(db *gorm.DB) *GormSessionRepo {
	return &GormSessionRepo{db: db}
}

func (r *GormSessionRepo) Create(ctx context.Context, session *models.Session) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindByTokenHash returns the row regardless of expiry; callers decide
// liveness against their own clock.
func (r *GormSessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error) {
	var session models.Session
	err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return &session, nil
}

func (r *GormSessionRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) (int64, error) {
	result := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).Delete(&models.Session{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete session: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *GormSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.Session{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

var _ SessionRepository = (*GormSessionRepo)(nil)
