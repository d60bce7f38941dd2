package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserModel is the credential owner. Display data lives in profiles.
type UserModel struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email            string         `gorm:"size:255;not null;uniqueIndex:uq_users_email" json:"email"`
	Password         string         `gorm:"not null" json:"-"`
	GoogleID         *string        `gorm:"size:255;uniqueIndex:uq_users_google_id" json:"-"`
	IsActive         bool           `gorm:"not null;default:true" json:"is_active"`
	EmailConfirmedAt *time.Time     `gorm:"type:timestamptz" json:"email_confirmed_at,omitempty"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (UserModel) TableName() string {
	return "users"
}

func (u *UserModel) IsEmailConfirmed() bool {
	return u.EmailConfirmedAt != nil
}
