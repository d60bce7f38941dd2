package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"wasitku_backend/internals/constants"
	"wasitku_backend/internals/features/home/notifications/model"
	"wasitku_backend/internals/features/home/notifications/repository"
)

var ErrNotificationNotFound = errors.New("notification not found")

const (
	ProfileReminderTitle   = "Complete your profile"
	ProfileReminderMessage = "Pick a username and add your name to finish setting up your account."
)

type NotificationService struct {
	Repo repository.NotificationRepository
	Loc  *time.Location
	Now  func() time.Time
}

func NewNotificationService(repo repository.NotificationRepository, loc *time.Location) *NotificationService {
	if loc == nil {
		loc = time.UTC
	}
	return &NotificationService{Repo: repo, Loc: loc, Now: time.Now}
}

func (s *NotificationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// NextReminderAt is 09:00 on the calendar day after now, in loc.
func NextReminderAt(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day()+1, constants.RemindLaterHour, 0, 0, 0, loc)
}

// Notify stores a new unread notification. data may be nil.
func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, kind, title, message string, data map[string]any) error {
	n := &model.NotificationModel{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
	}
	if data != nil {
		raw, err := sonic.Marshal(data)
		if err != nil {
			return err
		}
		n.Data = datatypes.JSON(raw)
	}
	return s.Repo.Create(ctx, n)
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, offset, limit int) ([]model.NotificationModel, int64, error) {
	return s.Repo.ListByUser(ctx, userID, offset, limit)
}

func (s *NotificationService) Active(ctx context.Context, userID uuid.UUID) ([]model.NotificationModel, error) {
	return s.Repo.ListActive(ctx, userID, s.now())
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.Repo.CountUnread(ctx, userID, s.now())
}

func (s *NotificationService) update(ctx context.Context, userID, id uuid.UUID, fields map[string]any) error {
	n, err := s.Repo.UpdateOwned(ctx, userID, id, fields)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.update(ctx, userID, id, map[string]any{"read": true})
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.Repo.MarkAllRead(ctx, userID)
}

// RemindLater hides the notification until tomorrow morning.
func (s *NotificationService) RemindLater(ctx context.Context, userID, id uuid.UUID) (time.Time, error) {
	at := NextReminderAt(s.now(), s.Loc)
	err := s.update(ctx, userID, id, map[string]any{
		"read":             true,
		"next_reminder_at": at,
	})
	return at, err
}

func (s *NotificationService) Dismiss(ctx context.Context, userID, id uuid.UUID) error {
	return s.update(ctx, userID, id, map[string]any{
		"read":                  true,
		"dismissed_permanently": true,
	})
}

// DeleteProfileReminder is idempotent.
func (s *NotificationService) DeleteProfileReminder(ctx context.Context, userID uuid.UUID) error {
	n, err := s.Repo.DeleteByType(ctx, userID, constants.NotificationProfileIncomplete)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("[Service] removed profile reminder user=%s", userID)
	}
	return nil
}

// EnsureProfileReminder adds the onboarding reminder unless one already exists.
func (s *NotificationService) EnsureProfileReminder(ctx context.Context, userID uuid.UUID) error {
	exists, err := s.Repo.ExistsOfType(ctx, userID, constants.NotificationProfileIncomplete)
	if err != nil || exists {
		return err
	}
	return s.Notify(ctx, userID, constants.NotificationProfileIncomplete, ProfileReminderTitle, ProfileReminderMessage, nil)
}

// Sweep is the periodic job body.
func (s *NotificationService) Sweep(ctx context.Context) (resurfaced, created int64, err error) {
	resurfaced, err = s.Repo.ResurfaceDue(ctx, s.now())
	if err != nil {
		return 0, 0, err
	}
	created, err = s.Repo.CreateMissingProfileReminders(ctx, ProfileReminderTitle, ProfileReminderMessage)
	return resurfaced, created, err
}
