package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	PurposeEmailConfirmation = "email_confirmation"
	PurposePasswordRecovery  = "password_recovery"
)

// OneTimeTokenModel backs email confirmation and password recovery links.
type OneTimeTokenModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Purpose   string     `gorm:"type:varchar(32);not null" json:"purpose"`
	TokenHash []byte     `gorm:"type:bytea;not null;uniqueIndex" json:"-"`
	ExpiresAt time.Time  `gorm:"type:timestamptz;not null" json:"expires_at"`
	UsedAt    *time.Time `gorm:"type:timestamptz" json:"used_at,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (OneTimeTokenModel) TableName() string {
	return "auth_one_time_tokens"
}

func (t *OneTimeTokenModel) Usable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}
