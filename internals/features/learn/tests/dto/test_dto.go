package dto

import (
	"time"

	"github.com/google/uuid"

	"wasitku_backend/internals/features/learn/tests/model"
)

type TestResponse struct {
	ID        uuid.UUID `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	IsActive  bool      `json:"is_active"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updated_at"`
}

func FromTestModel(m *model.TestModel) TestResponse {
	tags := []string(m.Tags)
	if tags == nil {
		tags = []string{}
	}
	return TestResponse{
		ID:        m.ID,
		Slug:      m.Slug,
		Title:     m.Title,
		IsActive:  m.IsActive,
		Tags:      tags,
		UpdatedAt: m.UpdatedAt,
	}
}

func FromTestModels(rows []model.TestModel) []TestResponse {
	out := make([]TestResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromTestModel(&rows[i]))
	}
	return out
}

// QuestionResponse never carries the answer key; see attempts review for that.
type QuestionResponse struct {
	ID           uuid.UUID `json:"id"`
	TestID       uuid.UUID `json:"test_id"`
	OrderIndex   int       `json:"order_index"`
	QuestionText string    `json:"question_text"`
	OptionA      string    `json:"option_a"`
	OptionB      string    `json:"option_b"`
	OptionC      string    `json:"option_c"`
	OptionD      string    `json:"option_d"`
}

func FromQuestionModels(rows []model.TestQuestionModel) []QuestionResponse {
	out := make([]QuestionResponse, 0, len(rows))
	for _, q := range rows {
		out = append(out, QuestionResponse{
			ID:           q.ID,
			TestID:       q.TestID,
			OrderIndex:   q.OrderIndex,
			QuestionText: q.QuestionText,
			OptionA:      q.OptionA,
			OptionB:      q.OptionB,
			OptionC:      q.OptionC,
			OptionD:      q.OptionD,
		})
	}
	return out
}
