package model

import (
	"time"

	"github.com/google/uuid"
)

// ProfileModel shares its id with users.id and is created in the same transaction.
type ProfileModel struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Username           string     `gorm:"size:30;not null" json:"username"`
	UsernameCustomized bool       `gorm:"not null;default:false" json:"username_customized"`
	Name               *string    `gorm:"size:100" json:"name"`
	Email              *string    `gorm:"size:255" json:"email"`
	PhotoURL           *string    `gorm:"column:photo_url" json:"photo_url"`
	Role               string     `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	LastLoginAt        *time.Time `gorm:"type:timestamptz" json:"last_login_at"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ProfileModel) TableName() string {
	return "profiles"
}

// IsComplete: a custom username has been chosen and a display name is set.
func (p *ProfileModel) IsComplete() bool {
	return p != nil && p.UsernameCustomized && p.Name != nil
}
