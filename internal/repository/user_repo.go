package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/carebridge/portal-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GormUserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *GormUserRepo {
	return &GormUserRepo{db: db}
}

func (r *GormUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *GormUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *GormUserRepo) findOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("Patient").
		Preload("Provider").
		Where(query, arg).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (r *GormUserRepo) EmailTakenByOther(ctx context.Context, email string, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ? AND id <> ?", email, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}

func (r *GormUserRepo) UpdateProfile(ctx context.Context, userID uuid.UUID, changes ProfileChanges) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.User{}).
			Where("id = ?", userID).
			Updates(map[string]interface{}{
				"first_name": changes.FirstName,
				"last_name":  changes.LastName,
				"email":      changes.Email,
				"phone":      changes.Phone,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		if changes.Specialty != nil {
			if err := tx.Model(&models.Provider{}).
				Where("user_id = ?", userID).
				Update("specialty", *changes.Specialty).Error; err != nil {
				return err
			}
		}
		return nil
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return fmt.Errorf("failed to update profile: %w", err)
	}
}

func (r *GormUserRepo) List(ctx context.Context, role models.Role) ([]models.User, error) {
	query := r.db.WithContext(ctx).Model(&models.User{}).Preload("Patient").Preload("Provider")
	if role != "" {
		query = query.Where("role = ?", role)
	}

	var users []models.User
	if err := query.Order(models.RoleRankSQL + ", first_name ASC, last_name ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

var _ UserRepository = (*GormUserRepo)(nil)
