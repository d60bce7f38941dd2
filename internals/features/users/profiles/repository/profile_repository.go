package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wasitku_backend/internals/features/users/profiles/model"
)

type ProfileRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.ProfileModel, error)
	// UsernameTaken compares case-insensitively and ignores the profile exceptID.
	UsernameTaken(ctx context.Context, username string, exceptID uuid.UUID) (bool, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) error
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type GormProfileRepository struct {
	DB *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *GormProfileRepository {
	return &GormProfileRepository{DB: db}
}

func (r *GormProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ProfileModel, error) {
	var p model.ProfileModel
	if err := r.DB.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormProfileRepository) UsernameTaken(ctx context.Context, username string, exceptID uuid.UUID) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).
		Model(&model.ProfileModel{}).
		Where("LOWER(username) = ? AND id <> ?", strings.ToLower(username), exceptID).
		Count(&n).Error
	return n > 0, err
}

func (r *GormProfileRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	fields["updated_at"] = time.Now()
	res := r.DB.WithContext(ctx).
		Model(&model.ProfileModel{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TouchLastLogin skips the updated_at hook; a login is not a profile edit.
func (r *GormProfileRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.DB.WithContext(ctx).
		Model(&model.ProfileModel{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}
