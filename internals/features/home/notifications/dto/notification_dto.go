package dto

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"wasitku_backend/internals/features/home/notifications/model"
)

// Admin push of a system notification to one user.
type CreateNotificationRequest struct {
	UserID  uuid.UUID      `json:"user_id" validate:"required"`
	Type    string         `json:"type" validate:"omitempty,oneof=system test_result profile_incomplete"`
	Title   string         `json:"title" validate:"required,max=255"`
	Message string         `json:"message" validate:"max=2000"`
	Data    map[string]any `json:"data"`
}

type NotificationResponse struct {
	ID                   uuid.UUID      `json:"id"`
	Type                 string         `json:"type"`
	Title                string         `json:"title"`
	Message              string         `json:"message"`
	Data                 datatypes.JSON `json:"data,omitempty"`
	Read                 bool           `json:"read"`
	DismissedPermanently bool           `json:"dismissed_permanently"`
	NextReminderAt       *time.Time     `json:"next_reminder_at"`
	CreatedAt            time.Time      `json:"created_at"`
}

func ToNotificationResponse(m *model.NotificationModel) NotificationResponse {
	return NotificationResponse{
		ID:                   m.ID,
		Type:                 m.Type,
		Title:                m.Title,
		Message:              m.Message,
		Data:                 m.Data,
		Read:                 m.Read,
		DismissedPermanently: m.DismissedPermanently,
		NextReminderAt:       m.NextReminderAt,
		CreatedAt:            m.CreatedAt,
	}
}

func ToNotificationResponseList(rows []model.NotificationModel) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(rows))
	for i := range rows {
		out = append(out, ToNotificationResponse(&rows[i]))
	}
	return out
}
