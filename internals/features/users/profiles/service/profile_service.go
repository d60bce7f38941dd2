package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wasitku_backend/internals/features/realtime/authevents"
	"wasitku_backend/internals/features/users/profiles/model"
	"wasitku_backend/internals/features/users/profiles/repository"
	helper "wasitku_backend/internals/helpers"
)

var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrUsernameTaken    = errors.New("username is already taken")
	ErrInvalidUsername  = errors.New("username must be 3-30 characters of a-z, 0-9 or _")
	ErrNothingToUpdate  = errors.New("nothing to update")
	UsernameConstraints = []string{"uq_profiles_username_ci"}
)

// ReminderRemover drops the onboarding reminder once a profile is complete.
type ReminderRemover interface {
	DeleteProfileReminder(ctx context.Context, userID uuid.UUID) error
}

type ProfileService struct {
	Repo      repository.ProfileRepository
	Reminders ReminderRemover
	Events    authevents.Publisher
	Now       func() time.Time
}

func NewProfileService(repo repository.ProfileRepository, reminders ReminderRemover, events authevents.Publisher) *ProfileService {
	if events == nil {
		events = authevents.NopPublisher{}
	}
	return &ProfileService{Repo: repo, Reminders: reminders, Events: events, Now: time.Now}
}

// UpdateInput: nil leaves a field untouched; an empty Name or PhotoURL clears it.
type UpdateInput struct {
	Name     *string
	PhotoURL *string
	Username *string
}

func (s *ProfileService) Get(ctx context.Context, userID uuid.UUID) (*model.ProfileModel, error) {
	p, err := s.Repo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	return p, err
}

func (s *ProfileService) UsernameAvailable(ctx context.Context, userID uuid.UUID, username string) (bool, error) {
	username = helper.NormalizeUsername(username)
	if !helper.IsValidUsername(username) {
		return false, ErrInvalidUsername
	}
	taken, err := s.Repo.UsernameTaken(ctx, username, userID)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

func (s *ProfileService) SetUsername(ctx context.Context, userID uuid.UUID, username string) (*model.ProfileModel, error) {
	return s.Update(ctx, userID, UpdateInput{Username: &username})
}

func (s *ProfileService) Update(ctx context.Context, userID uuid.UUID, in UpdateInput) (*model.ProfileModel, error) {
	before, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.Username != nil {
		u := helper.NormalizeUsername(*in.Username)
		if !helper.IsValidUsername(u) {
			return nil, ErrInvalidUsername
		}
		fields["username"] = u
		fields["username_customized"] = true
	}
	if in.Name != nil {
		fields["name"] = nullIfBlank(*in.Name)
	}
	if in.PhotoURL != nil {
		fields["photo_url"] = nullIfBlank(*in.PhotoURL)
	}
	if len(fields) == 0 {
		return nil, ErrNothingToUpdate
	}

	if err := s.Repo.Update(ctx, userID, fields); err != nil {
		if helper.IsUniqueViolation(err, UsernameConstraints...) {
			return nil, ErrUsernameTaken
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	after, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !before.IsComplete() && after.IsComplete() && s.Reminders != nil {
		if err := s.Reminders.DeleteProfileReminder(ctx, userID); err != nil {
			log.Printf("[Service] remove profile reminder user=%s: %v", userID, err)
		}
	}
	s.Events.Publish(userID, authevents.UserUpdated)
	return after, nil
}

func (s *ProfileService) RecordLastLogin(ctx context.Context, userID uuid.UUID) error {
	return s.Repo.TouchLastLogin(ctx, userID, s.Now())
}

func nullIfBlank(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
