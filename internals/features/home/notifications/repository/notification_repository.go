package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wasitku_backend/internals/constants"
	"wasitku_backend/internals/features/home/notifications/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.NotificationModel) error
	// ListByUser pages the full history, newest first, and returns the total.
	ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]model.NotificationModel, int64, error)
	ListActive(ctx context.Context, userID uuid.UUID, now time.Time) ([]model.NotificationModel, error)
	CountUnread(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)
	// UpdateOwned returns the number of rows touched; 0 means not found for this user.
	UpdateOwned(ctx context.Context, userID, id uuid.UUID, fields map[string]any) (int64, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteByType(ctx context.Context, userID uuid.UUID, kind string) (int64, error)
	ExistsOfType(ctx context.Context, userID uuid.UUID, kind string) (bool, error)

	// sweep
	ResurfaceDue(ctx context.Context, now time.Time) (int64, error)
	CreateMissingProfileReminders(ctx context.Context, title, message string) (int64, error)
}

type GormNotificationRepository struct {
	DB *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{DB: db}
}

func (r *GormNotificationRepository) Create(ctx context.Context, n *model.NotificationModel) error {
	return r.DB.WithContext(ctx).Create(n).Error
}

func (r *GormNotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]model.NotificationModel, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.NotificationModel{}).Where("user_id = ?", userID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.NotificationModel
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&rows).Error
	return rows, total, err
}

func (r *GormNotificationRepository) visible(ctx context.Context, userID uuid.UUID, now time.Time) *gorm.DB {
	return r.DB.WithContext(ctx).
		Model(&model.NotificationModel{}).
		Where("user_id = ?", userID).
		Where("dismissed_permanently = ?", false).
		Where("(next_reminder_at IS NULL OR next_reminder_at <= ?)", now)
}

func (r *GormNotificationRepository) ListActive(ctx context.Context, userID uuid.UUID, now time.Time) ([]model.NotificationModel, error) {
	var rows []model.NotificationModel
	err := r.visible(ctx, userID, now).Order("created_at DESC").Find(&rows).Error
	return rows, err
}

func (r *GormNotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	var n int64
	err := r.visible(ctx, userID, now).Where("read = ?", false).Count(&n).Error
	return n, err
}

func (r *GormNotificationRepository) UpdateOwned(ctx context.Context, userID, id uuid.UUID, fields map[string]any) (int64, error) {
	fields["updated_at"] = time.Now()
	res := r.DB.WithContext(ctx).
		Model(&model.NotificationModel{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(fields)
	return res.RowsAffected, res.Error
}

func (r *GormNotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.DB.WithContext(ctx).
		Model(&model.NotificationModel{}).
		Where("user_id = ? AND read = ?", userID, false).
		Updates(map[string]any{"read": true, "updated_at": time.Now()})
	return res.RowsAffected, res.Error
}

func (r *GormNotificationRepository) DeleteByType(ctx context.Context, userID uuid.UUID, kind string) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("user_id = ? AND type = ?", userID, kind).
		Delete(&model.NotificationModel{})
	return res.RowsAffected, res.Error
}

func (r *GormNotificationRepository) ExistsOfType(ctx context.Context, userID uuid.UUID, kind string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).
		Model(&model.NotificationModel{}).
		Where("user_id = ? AND type = ?", userID, kind).
		Limit(1).
		Count(&n).Error
	return n > 0, err
}

// ResurfaceDue turns postponed reminders back into unread ones.
func (r *GormNotificationRepository) ResurfaceDue(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).
		Model(&model.NotificationModel{}).
		Where("dismissed_permanently = ?", false).
		Where("next_reminder_at IS NOT NULL AND next_reminder_at <= ?", now).
		Updates(map[string]any{
			"read":             false,
			"next_reminder_at": nil,
			"updated_at":       now,
		})
	return res.RowsAffected, res.Error
}

// CreateMissingProfileReminders inserts one profile_incomplete row for every
// incomplete profile that has never had one. A dismissed reminder still counts.
func (r *GormNotificationRepository) CreateMissingProfileReminders(ctx context.Context, title, message string) (int64, error) {
	res := r.DB.WithContext(ctx).Exec(`
		INSERT INTO notifications (user_id, type, title, message, read, dismissed_permanently, created_at, updated_at)
		SELECT p.id, ?, ?, ?, false, false, NOW(), NOW()
		FROM profiles p
		WHERE (p.username_customized = false OR p.name IS NULL)
		  AND NOT EXISTS (
		    SELECT 1 FROM notifications n
		    WHERE n.user_id = p.id AND n.type = ?
		  )`,
		constants.NotificationProfileIncomplete, title, message, constants.NotificationProfileIncomplete)
	return res.RowsAffected, res.Error
}
