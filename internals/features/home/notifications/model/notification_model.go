package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type NotificationModel struct {
	ID                   uuid.UUID      `gorm:"column:id;primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID               uuid.UUID      `gorm:"column:user_id;type:uuid;not null;index:idx_notifications_user_created,priority:1" json:"user_id"`
	Type                 string         `gorm:"column:type;type:varchar(50);not null" json:"type"`
	Title                string         `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Message              string         `gorm:"column:message;type:text" json:"message"`
	Data                 datatypes.JSON `gorm:"column:data;type:jsonb" json:"data,omitempty"`
	Read                 bool           `gorm:"column:read;not null;default:false" json:"read"`
	DismissedPermanently bool           `gorm:"column:dismissed_permanently;not null;default:false" json:"dismissed_permanently"`
	NextReminderAt       *time.Time     `gorm:"column:next_reminder_at;type:timestamptz" json:"next_reminder_at"`
	CreatedAt            time.Time      `gorm:"column:created_at;autoCreateTime;index:idx_notifications_user_created,priority:2,sort:desc" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (NotificationModel) TableName() string {
	return "notifications"
}

// VisibleAt: never after a permanent dismissal, and not before a pending reminder time.
func (n *NotificationModel) VisibleAt(now time.Time) bool {
	if n.DismissedPermanently {
		return false
	}
	return n.NextReminderAt == nil || !n.NextReminderAt.After(now)
}
