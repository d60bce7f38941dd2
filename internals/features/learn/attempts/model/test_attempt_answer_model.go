package model

import (
	"time"

	"github.com/google/uuid"
)

type TestAttemptAnswerModel struct {
	ID                     uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AttemptID              uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_attempt_answers_attempt_question,priority:1" json:"attempt_id"`
	QuestionID             uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_attempt_answers_attempt_question,priority:2" json:"question_id"`
	SelectedOption         string     `gorm:"type:char(1);not null" json:"selected_option"`
	IsCorrect              *bool      `json:"is_correct"`
	ConfirmedAt            time.Time  `gorm:"type:timestamptz;not null" json:"confirmed_at"`
	AIExplanation          *string    `gorm:"column:ai_explanation;type:text" json:"ai_explanation"`
	AIExplanationCreatedAt *time.Time `gorm:"column:ai_explanation_created_at;type:timestamptz" json:"ai_explanation_created_at"`
}

func (TestAttemptAnswerModel) TableName() string {
	return "test_attempt_answers"
}
