package dto

import (
	"time"

	"github.com/google/uuid"

	"wasitku_backend/internals/features/users/profiles/model"
)

type UpdateProfileRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=100"`
	PhotoURL *string `json:"photo_url" validate:"omitempty,url"`
	Username *string `json:"username" validate:"omitempty,username"`
}

type SetUsernameRequest struct {
	Username string `json:"username" validate:"required,username"`
}

type ProfileResponse struct {
	ID                 uuid.UUID  `json:"id"`
	Username           string     `json:"username"`
	UsernameCustomized bool       `json:"username_customized"`
	Name               *string    `json:"name"`
	Email              *string    `json:"email"`
	PhotoURL           *string    `json:"photo_url"`
	Role               string     `json:"role"`
	LastLoginAt        *time.Time `json:"last_login_at"`
	IsComplete         bool       `json:"is_complete"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func FromProfileModel(m *model.ProfileModel) ProfileResponse {
	return ProfileResponse{
		ID:                 m.ID,
		Username:           m.Username,
		UsernameCustomized: m.UsernameCustomized,
		Name:               m.Name,
		Email:              m.Email,
		PhotoURL:           m.PhotoURL,
		Role:               m.Role,
		LastLoginAt:        m.LastLoginAt,
		IsComplete:         m.IsComplete(),
		UpdatedAt:          m.UpdatedAt,
	}
}
