package attempt_test

import (
	"context"
	"errors"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"wasitku_backend/internals/client/gateway"
)

// fakeGateway keeps one user's tests, attempts and answers in memory and
// scores submissions the way the server does.
type fakeGateway struct {
	mu sync.Mutex

	test     gateway.Test
	qs       []gateway.Question
	key      map[uuid.UUID]string
	attempts []*gateway.Attempt
	answers  map[uuid.UUID]map[uuid.UUID]string

	upserts    int
	upsertErr  error
	upsertGate chan struct{}
}

func newFakeGateway(correct ...string) *fakeGateway {
	f := &fakeGateway{
		test:    gateway.Test{ID: uuid.New(), Slug: "offside-basics", Title: "Offside Basics", IsActive: true},
		key:     map[uuid.UUID]string{},
		answers: map[uuid.UUID]map[uuid.UUID]string{},
	}
	// stored out of order to check sorting
	for i := len(correct) - 1; i >= 0; i-- {
		q := gateway.Question{
			ID: uuid.New(), TestID: f.test.ID, OrderIndex: i + 1,
			QuestionText: "Q", OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d",
		}
		f.qs = append(f.qs, q)
		f.key[q.ID] = correct[i]
	}
	return f
}

func (f *fakeGateway) notFound() error {
	return &gateway.APIError{Status: http.StatusNotFound, Message: "Test not found"}
}

func (f *fakeGateway) GetTest(_ context.Context, slug string) (*gateway.Test, error) {
	if slug != f.test.Slug {
		return nil, f.notFound()
	}
	t := f.test
	return &t, nil
}

func (f *fakeGateway) ListQuestions(_ context.Context, slug string) ([]gateway.Question, error) {
	if slug != f.test.Slug {
		return nil, f.notFound()
	}
	return append([]gateway.Question(nil), f.qs...), nil
}

func (f *fakeGateway) CurrentAttempt(context.Context, string) (*gateway.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.attempts {
		if a.Status == gateway.StatusInProgress {
			cp := *a
			return &cp, nil
		}
	}
	a := &gateway.Attempt{ID: uuid.New(), TestID: f.test.ID, Status: gateway.StatusInProgress, StartedAt: time.Now()}
	f.attempts = append(f.attempts, a)
	f.answers[a.ID] = map[uuid.UUID]string{}
	cp := *a
	return &cp, nil
}

func (f *fakeGateway) ListAttempts(_ context.Context, _ string, status string) ([]gateway.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []gateway.Attempt
	for _, a := range f.attempts {
		if status == "" || a.Status == status {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeGateway) ListAnswers(_ context.Context, attemptID uuid.UUID) ([]gateway.Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []gateway.Answer
	for qid, o := range f.answers[attemptID] {
		out = append(out, gateway.Answer{AttemptID: attemptID, QuestionID: qid, SelectedOption: o})
	}
	return out, nil
}

func (f *fakeGateway) UpsertAnswer(_ context.Context, attemptID, questionID uuid.UUID, option string) (*gateway.Answer, error) {
	f.mu.Lock()
	gate := f.upsertGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	f.answers[attemptID][questionID] = option
	return &gateway.Answer{AttemptID: attemptID, QuestionID: questionID, SelectedOption: option}, nil
}

func (f *fakeGateway) SubmitAttempt(_ context.Context, attemptID uuid.UUID) (*gateway.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.attempts {
		if a.ID != attemptID {
			continue
		}
		if a.Status != gateway.StatusInProgress {
			return nil, &gateway.APIError{Status: http.StatusConflict, Message: "Attempt already submitted"}
		}
		correct, total := 0, 0
		for qid, o := range f.answers[a.ID] {
			total++
			if f.key[qid] == o {
				correct++
			}
		}
		pct := 0
		if total > 0 {
			pct = int(math.Round(100 * float64(correct) / float64(total)))
		}
		now := time.Now()
		a.Status, a.SubmittedAt = gateway.StatusSubmitted, &now
		a.ScoreCorrect, a.ScoreTotal, a.ScorePercent = &correct, &total, &pct
		cp := *a
		return &cp, nil
	}
	return nil, errors.New("no such attempt")
}

func (f *fakeGateway) ReviewAttempt(_ context.Context, attemptID uuid.UUID) ([]gateway.ReviewItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []gateway.ReviewItem
	for _, q := range f.qs {
		item := gateway.ReviewItem{QuestionID: q.ID, OrderIndex: q.OrderIndex, CorrectOption: f.key[q.ID]}
		if o, ok := f.answers[attemptID][q.ID]; ok {
			o := o
			item.SelectedOption = &o
			item.IsCorrect = o == f.key[q.ID]
		}
		out = append(out, item)
	}
	return out, nil
}

func (f *fakeGateway) saved(attemptID uuid.UUID) map[uuid.UUID]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[uuid.UUID]string{}
	for k, v := range f.answers[attemptID] {
		out[k] = v
	}
	return out
}
