package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusInProgress = "in_progress"
	StatusSubmitted  = "submitted"
)

// Name of the partial unique index that keeps at most one in_progress
// attempt per (user, test). Created in database.Migrate.
const UniqueInProgressIndex = "uq_test_attempts_one_in_progress"

type TestAttemptModel struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_test_attempts_user_test,priority:1" json:"user_id"`
	TestID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_test_attempts_user_test,priority:2" json:"test_id"`
	Status       string     `gorm:"type:varchar(20);not null;default:'in_progress'" json:"status"`
	StartedAt    time.Time  `gorm:"type:timestamptz;not null;autoCreateTime" json:"started_at"`
	SubmittedAt  *time.Time `gorm:"type:timestamptz" json:"submitted_at"`
	ScoreCorrect *int       `json:"score_correct"`
	ScoreTotal   *int       `json:"score_total"`
	ScorePercent *int       `json:"score_percent"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (TestAttemptModel) TableName() string {
	return "test_attempts"
}

func (a *TestAttemptModel) IsSubmitted() bool {
	return a.Status == StatusSubmitted
}
