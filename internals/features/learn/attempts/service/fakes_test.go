package service_test

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"wasitku_backend/internals/features/learn/attempts/model"
	"wasitku_backend/internals/features/learn/attempts/repository"
	testmodel "wasitku_backend/internals/features/learn/tests/model"
)

/* ==== tests ==== */

type fakeTestRepo struct {
	tests     []testmodel.TestModel
	questions []testmodel.TestQuestionModel
}

func (f *fakeTestRepo) ListActive(ctx context.Context) ([]testmodel.TestModel, error) {
	var out []testmodel.TestModel
	for _, t := range f.tests {
		if t.IsActive {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTestRepo) FindBySlug(ctx context.Context, slug string) (*testmodel.TestModel, error) {
	for i := range f.tests {
		if f.tests[i].Slug == slug {
			t := f.tests[i]
			return &t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTestRepo) FindByID(ctx context.Context, id uuid.UUID) (*testmodel.TestModel, error) {
	for i := range f.tests {
		if f.tests[i].ID == id {
			t := f.tests[i]
			return &t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTestRepo) ListQuestions(ctx context.Context, testID uuid.UUID) ([]testmodel.TestQuestionModel, error) {
	var out []testmodel.TestQuestionModel
	for _, q := range f.questions {
		if q.TestID == testID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (f *fakeTestRepo) FindQuestion(ctx context.Context, testID, questionID uuid.UUID) (*testmodel.TestQuestionModel, error) {
	for i := range f.questions {
		if f.questions[i].ID == questionID && f.questions[i].TestID == testID {
			q := f.questions[i]
			return &q, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// seedTest builds an active test whose questions are keyed by the given letters.
func seedTest(slug string, key ...string) *fakeTestRepo {
	t := testmodel.TestModel{ID: uuid.New(), Slug: slug, Title: "Offside basics", IsActive: true}
	repo := &fakeTestRepo{tests: []testmodel.TestModel{t}}
	for i, k := range key {
		repo.questions = append(repo.questions, testmodel.TestQuestionModel{
			ID:            uuid.New(),
			TestID:        t.ID,
			OrderIndex:    i + 1,
			QuestionText:  "Q",
			OptionA:       "a",
			OptionB:       "b",
			OptionC:       "c",
			OptionD:       "d",
			CorrectOption: k,
		})
	}
	return repo
}

/* ==== attempts ==== */

// fakeAttemptRepo enforces the one-in-progress rule like the partial unique index.
type fakeAttemptRepo struct {
	mu       sync.Mutex
	attempts map[uuid.UUID]*model.TestAttemptModel
	answers  map[uuid.UUID]*model.TestAttemptAnswerModel

	// beforeCreate lets a test slip a competing insert in first.
	beforeCreate func(a *model.TestAttemptModel)
	creates      int
}

func newFakeAttemptRepo() *fakeAttemptRepo {
	return &fakeAttemptRepo{
		attempts: map[uuid.UUID]*model.TestAttemptModel{},
		answers:  map[uuid.UUID]*model.TestAttemptAnswerModel{},
	}
}

var _ repository.AttemptRepository = (*fakeAttemptRepo)(nil)

func (f *fakeAttemptRepo) Transaction(ctx context.Context, fn func(tx repository.AttemptRepository) error) error {
	return fn(f)
}

func (f *fakeAttemptRepo) FindInProgress(ctx context.Context, userID, testID uuid.UUID) (*model.TestAttemptModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.attempts {
		if a.UserID == userID && a.TestID == testID && a.Status == model.StatusInProgress {
			cp := *a
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAttemptRepo) insert(a *model.TestAttemptModel) error {
	for _, other := range f.attempts {
		if other.UserID == a.UserID && other.TestID == a.TestID &&
			other.Status == model.StatusInProgress && a.Status == model.StatusInProgress {
			return &pgconn.PgError{Code: "23505", ConstraintName: model.UniqueInProgressIndex}
		}
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	cp := *a
	f.attempts[a.ID] = &cp
	return nil
}

func (f *fakeAttemptRepo) Create(ctx context.Context, a *model.TestAttemptModel) error {
	if f.beforeCreate != nil {
		hook := f.beforeCreate
		f.beforeCreate = nil
		hook(a)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	return f.insert(a)
}

func (f *fakeAttemptRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.TestAttemptModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAttemptRepo) LockByID(ctx context.Context, id uuid.UUID) (*model.TestAttemptModel, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeAttemptRepo) ListByStatus(ctx context.Context, userID, testID uuid.UUID, status string) ([]model.TestAttemptModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.TestAttemptModel
	for _, a := range f.attempts {
		if a.UserID == userID && a.TestID == testID && (status == "" || a.Status == status) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAttemptRepo) SaveResult(ctx context.Context, a *model.TestAttemptModel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *a
	f.attempts[a.ID] = &cp
	return nil
}

func (f *fakeAttemptRepo) ListAnswers(ctx context.Context, attemptID uuid.UUID) ([]model.TestAttemptAnswerModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.TestAttemptAnswerModel
	for _, a := range f.answers {
		if a.AttemptID == attemptID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConfirmedAt.Before(out[j].ConfirmedAt) })
	return out, nil
}

func (f *fakeAttemptRepo) UpsertAnswer(ctx context.Context, a *model.TestAttemptAnswerModel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.answers {
		if existing.AttemptID == a.AttemptID && existing.QuestionID == a.QuestionID {
			existing.SelectedOption = a.SelectedOption
			existing.ConfirmedAt = a.ConfirmedAt
			existing.IsCorrect = nil
			a.ID = existing.ID
			return nil
		}
	}
	a.ID = uuid.New()
	cp := *a
	f.answers[a.ID] = &cp
	return nil
}

func (f *fakeAttemptRepo) MarkAnswer(ctx context.Context, answerID uuid.UUID, correct bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.answers[answerID]; ok {
		a.IsCorrect = &correct
	}
	return nil
}

/* ==== notifier ==== */

type fakeNotifier struct {
	mu    sync.Mutex
	kinds []string
}

func (n *fakeNotifier) Notify(ctx context.Context, userID uuid.UUID, kind, title, message string, data map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.kinds = append(n.kinds, kind)
	return nil
}
