package dto

import (
	"time"

	"github.com/google/uuid"

	"wasitku_backend/internals/features/learn/attempts/model"
	"wasitku_backend/internals/features/learn/attempts/service"
)

type UpsertAnswerRequest struct {
	SelectedOption string `json:"selected_option" validate:"required,option_letter"`
}

type AttemptResponse struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	TestID       uuid.UUID  `json:"test_id"`
	Status       string     `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	SubmittedAt  *time.Time `json:"submitted_at"`
	ScoreCorrect *int       `json:"score_correct"`
	ScoreTotal   *int       `json:"score_total"`
	ScorePercent *int       `json:"score_percent"`
}

func FromAttemptModel(m *model.TestAttemptModel) AttemptResponse {
	return AttemptResponse{
		ID:           m.ID,
		UserID:       m.UserID,
		TestID:       m.TestID,
		Status:       m.Status,
		StartedAt:    m.StartedAt,
		SubmittedAt:  m.SubmittedAt,
		ScoreCorrect: m.ScoreCorrect,
		ScoreTotal:   m.ScoreTotal,
		ScorePercent: m.ScorePercent,
	}
}

func FromAttemptModels(rows []model.TestAttemptModel) []AttemptResponse {
	out := make([]AttemptResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromAttemptModel(&rows[i]))
	}
	return out
}

type AnswerResponse struct {
	ID             uuid.UUID `json:"id"`
	AttemptID      uuid.UUID `json:"attempt_id"`
	QuestionID     uuid.UUID `json:"question_id"`
	SelectedOption string    `json:"selected_option"`
	IsCorrect      *bool     `json:"is_correct"`
	ConfirmedAt    time.Time `json:"confirmed_at"`
}

func FromAnswerModel(m *model.TestAttemptAnswerModel) AnswerResponse {
	return AnswerResponse{
		ID:             m.ID,
		AttemptID:      m.AttemptID,
		QuestionID:     m.QuestionID,
		SelectedOption: m.SelectedOption,
		IsCorrect:      m.IsCorrect,
		ConfirmedAt:    m.ConfirmedAt,
	}
}

func FromAnswerModels(rows []model.TestAttemptAnswerModel) []AnswerResponse {
	out := make([]AnswerResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromAnswerModel(&rows[i]))
	}
	return out
}

// ReviewItemResponse exposes the answer key; only built for submitted attempts.
type ReviewItemResponse struct {
	QuestionID     uuid.UUID `json:"question_id"`
	OrderIndex     int       `json:"order_index"`
	QuestionText   string    `json:"question_text"`
	OptionA        string    `json:"option_a"`
	OptionB        string    `json:"option_b"`
	OptionC        string    `json:"option_c"`
	OptionD        string    `json:"option_d"`
	CorrectOption  string    `json:"correct_option"`
	SelectedOption *string   `json:"selected_option"`
	IsCorrect      bool      `json:"is_correct"`
	AIExplanation  *string   `json:"ai_explanation,omitempty"`
}

func FromReviewItems(items []service.ReviewItem) []ReviewItemResponse {
	out := make([]ReviewItemResponse, 0, len(items))
	for _, it := range items {
		r := ReviewItemResponse{
			QuestionID:    it.Question.ID,
			OrderIndex:    it.Question.OrderIndex,
			QuestionText:  it.Question.QuestionText,
			OptionA:       it.Question.OptionA,
			OptionB:       it.Question.OptionB,
			OptionC:       it.Question.OptionC,
			OptionD:       it.Question.OptionD,
			CorrectOption: it.Question.CorrectOption,
		}
		if it.Answer != nil {
			sel := it.Answer.SelectedOption
			r.SelectedOption = &sel
			r.IsCorrect = it.Answer.IsCorrect != nil && *it.Answer.IsCorrect
			r.AIExplanation = it.Answer.AIExplanation
		}
		out = append(out, r)
	}
	return out
}
