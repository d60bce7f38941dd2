package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wasitku_backend/internals/constants"
	"wasitku_backend/internals/features/learn/attempts/model"
	"wasitku_backend/internals/features/learn/attempts/repository"
	testmodel "wasitku_backend/internals/features/learn/tests/model"
	testservice "wasitku_backend/internals/features/learn/tests/service"
	helper "wasitku_backend/internals/helpers"
)

var (
	ErrAttemptNotFound     = errors.New("attempt not found")
	ErrQuestionNotInTest   = errors.New("question does not belong to this test")
	ErrAttemptSubmitted    = errors.New("attempt already submitted")
	ErrAttemptNotSubmitted = errors.New("attempt not submitted yet")
	ErrInvalidOption       = errors.New("selected_option must be one of A, B, C, D")
	ErrInvalidStatus       = errors.New("status must be in_progress or submitted")
)

// Notifier receives a result summary after a submission. Optional.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, title, message string, data map[string]any) error
}

type AttemptService struct {
	Repo     repository.AttemptRepository
	Tests    *testservice.TestService
	Notifier Notifier
	Now      func() time.Time
}

func NewAttemptService(repo repository.AttemptRepository, tests *testservice.TestService, n Notifier) *AttemptService {
	return &AttemptService{Repo: repo, Tests: tests, Notifier: n, Now: time.Now}
}

func (s *AttemptService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ComputePercent rounds half away from zero; an empty attempt scores 0.
func ComputePercent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}

/* ==== Attempts ==== */

// GetOrCreateCurrent returns the caller's in_progress attempt for the test,
// creating it when absent. A concurrent creator losing the unique index race
// re-reads the winner's row, so repeated calls agree on one attempt id.
func (s *AttemptService) GetOrCreateCurrent(ctx context.Context, userID uuid.UUID, slug string) (*model.TestAttemptModel, *testmodel.TestModel, error) {
	t, err := s.Tests.ResolveActive(ctx, slug)
	if err != nil {
		return nil, nil, err
	}

	existing, err := s.Repo.FindInProgress(ctx, userID, t.ID)
	if err == nil {
		return existing, t, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	a := &model.TestAttemptModel{
		UserID:    userID,
		TestID:    t.ID,
		Status:    model.StatusInProgress,
		StartedAt: s.now(),
	}
	if err := s.Repo.Create(ctx, a); err != nil {
		if !helper.IsUniqueViolation(err, model.UniqueInProgressIndex) {
			return nil, nil, err
		}
		log.Printf("[Service] attempt create raced user=%s test=%s, re-reading", userID, t.ID)
		winner, rerr := s.Repo.FindInProgress(ctx, userID, t.ID)
		if rerr != nil {
			return nil, nil, rerr
		}
		return winner, t, nil
	}
	return a, t, nil
}

// Owned loads an attempt and hides attempts of other users behind not-found.
func (s *AttemptService) Owned(ctx context.Context, userID, attemptID uuid.UUID) (*model.TestAttemptModel, error) {
	a, err := s.Repo.FindByID(ctx, attemptID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAttemptNotFound
	}
	if err != nil {
		return nil, err
	}
	if a.UserID != userID {
		return nil, ErrAttemptNotFound
	}
	return a, nil
}

func (s *AttemptService) ListByStatus(ctx context.Context, userID uuid.UUID, slug, status string) ([]model.TestAttemptModel, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		status = model.StatusSubmitted
	}
	if status != model.StatusSubmitted && status != model.StatusInProgress {
		return nil, ErrInvalidStatus
	}
	t, err := s.Tests.ResolveActive(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.Repo.ListByStatus(ctx, userID, t.ID, status)
}

/* ==== Answers ==== */

func (s *AttemptService) ListAnswers(ctx context.Context, userID, attemptID uuid.UUID) ([]model.TestAttemptAnswerModel, error) {
	if _, err := s.Owned(ctx, userID, attemptID); err != nil {
		return nil, err
	}
	return s.Repo.ListAnswers(ctx, attemptID)
}

// UpsertAnswer records the selection for one question; re-selecting overwrites.
func (s *AttemptService) UpsertAnswer(ctx context.Context, userID, attemptID, questionID uuid.UUID, option string) (*model.TestAttemptAnswerModel, error) {
	option = strings.ToUpper(strings.TrimSpace(option))
	if !testmodel.IsOptionLetter(option) {
		return nil, ErrInvalidOption
	}
	a, err := s.Owned(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if a.IsSubmitted() {
		return nil, ErrAttemptSubmitted
	}
	if _, err := s.Tests.Repo.FindQuestion(ctx, a.TestID, questionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestionNotInTest
		}
		return nil, err
	}

	ans := &model.TestAttemptAnswerModel{
		AttemptID:      attemptID,
		QuestionID:     questionID,
		SelectedOption: option,
		ConfirmedAt:    s.now(),
	}
	if err := s.Repo.UpsertAnswer(ctx, ans); err != nil {
		return nil, err
	}
	return ans, nil
}

/* ==== Submit & review ==== */

// Submit scores every answer row against the answer key and closes the
// attempt, all under a row lock on the attempt.
func (s *AttemptService) Submit(ctx context.Context, userID, attemptID uuid.UUID) (*model.TestAttemptModel, error) {
	if _, err := s.Owned(ctx, userID, attemptID); err != nil {
		return nil, err
	}

	var out *model.TestAttemptModel
	err := s.Repo.Transaction(ctx, func(tx repository.AttemptRepository) error {
		a, err := tx.LockByID(ctx, attemptID)
		if err != nil {
			return err
		}
		if a.Status != model.StatusInProgress {
			return ErrAttemptSubmitted
		}

		questions, err := s.Tests.Repo.ListQuestions(ctx, a.TestID)
		if err != nil {
			return err
		}
		key := make(map[uuid.UUID]string, len(questions))
		for _, q := range questions {
			key[q.ID] = q.CorrectOption
		}

		answers, err := tx.ListAnswers(ctx, a.ID)
		if err != nil {
			return err
		}
		correct := 0
		for _, ans := range answers {
			ok := key[ans.QuestionID] == ans.SelectedOption
			if ok {
				correct++
			}
			if err := tx.MarkAnswer(ctx, ans.ID, ok); err != nil {
				return err
			}
		}

		total := len(answers)
		percent := ComputePercent(correct, total)
		now := s.now()
		a.Status = model.StatusSubmitted
		a.SubmittedAt = &now
		a.ScoreCorrect = &correct
		a.ScoreTotal = &total
		a.ScorePercent = &percent
		if err := tx.SaveResult(ctx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Service] attempt %s submitted: %d/%d (%d%%)", out.ID, *out.ScoreCorrect, *out.ScoreTotal, *out.ScorePercent)
	s.notifyResult(ctx, out)
	return out, nil
}

func (s *AttemptService) notifyResult(ctx context.Context, a *model.TestAttemptModel) {
	if s.Notifier == nil {
		return
	}
	title := "Test result"
	if t, err := s.Tests.Repo.FindByID(ctx, a.TestID); err == nil {
		title = t.Title
	}
	msg := fmt.Sprintf("You scored %d/%d (%d%%).", *a.ScoreCorrect, *a.ScoreTotal, *a.ScorePercent)
	err := s.Notifier.Notify(ctx, a.UserID, constants.NotificationTestResult, title, msg, map[string]any{
		"attempt_id": a.ID.String(),
		"test_id":    a.TestID.String(),
		"percent":    *a.ScorePercent,
	})
	if err != nil {
		log.Printf("[Service] result notification for attempt %s failed: %v", a.ID, err)
	}
}

// ReviewItem pairs a question with the user's answer once the key may be shown.
type ReviewItem struct {
	Question testmodel.TestQuestionModel
	Answer   *model.TestAttemptAnswerModel
}

func (s *AttemptService) Review(ctx context.Context, userID, attemptID uuid.UUID) (*model.TestAttemptModel, []ReviewItem, error) {
	a, err := s.Owned(ctx, userID, attemptID)
	if err != nil {
		return nil, nil, err
	}
	if !a.IsSubmitted() {
		return nil, nil, ErrAttemptNotSubmitted
	}
	questions, err := s.Tests.Repo.ListQuestions(ctx, a.TestID)
	if err != nil {
		return nil, nil, err
	}
	answers, err := s.Repo.ListAnswers(ctx, a.ID)
	if err != nil {
		return nil, nil, err
	}
	byQuestion := make(map[uuid.UUID]*model.TestAttemptAnswerModel, len(answers))
	for i := range answers {
		byQuestion[answers[i].QuestionID] = &answers[i]
	}
	items := make([]ReviewItem, 0, len(questions))
	for _, q := range questions {
		items = append(items, ReviewItem{Question: q, Answer: byQuestion[q.ID]})
	}
	return a, items, nil
}
