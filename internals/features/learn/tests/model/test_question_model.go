package model

import (
	"time"

	"github.com/google/uuid"
)

var OptionLetters = []string{"A", "B", "C", "D"}

type TestQuestionModel struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TestID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_test_questions_order,priority:1" json:"test_id"`
	OrderIndex    int       `gorm:"not null;uniqueIndex:uq_test_questions_order,priority:2" json:"order_index"`
	QuestionText  string    `gorm:"type:text;not null" json:"question_text"`
	OptionA       string    `gorm:"column:option_a;type:text;not null" json:"option_a"`
	OptionB       string    `gorm:"column:option_b;type:text;not null" json:"option_b"`
	OptionC       string    `gorm:"column:option_c;type:text;not null" json:"option_c"`
	OptionD       string    `gorm:"column:option_d;type:text;not null" json:"option_d"`
	CorrectOption string    `gorm:"type:char(1);not null;check:correct_option IN ('A','B','C','D')" json:"correct_option"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (TestQuestionModel) TableName() string {
	return "test_questions"
}

func IsOptionLetter(s string) bool {
	for _, l := range OptionLetters {
		if l == s {
			return true
		}
	}
	return false
}
