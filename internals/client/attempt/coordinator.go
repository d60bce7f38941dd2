package attempt

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"wasitku_backend/internals/client/gateway"
)

var (
	ErrTestNotFound     = errors.New("test not found")
	ErrAttemptSubmitted = errors.New("attempt already submitted")
	ErrNotSubmitted     = errors.New("attempt not submitted yet")
	ErrNotAllAnswered   = errors.New("answer every question before submitting")
	ErrUnknownQuestion  = errors.New("question is not part of this test")
	ErrInvalidOption    = errors.New("option must be one of A, B, C or D")
	ErrOutOfRange       = errors.New("question index out of range")
)

// Gateway is the part of gateway.Client the coordinator needs.
type Gateway interface {
	GetTest(ctx context.Context, slug string) (*gateway.Test, error)
	ListQuestions(ctx context.Context, slug string) ([]gateway.Question, error)
	CurrentAttempt(ctx context.Context, slug string) (*gateway.Attempt, error)
	ListAttempts(ctx context.Context, slug, status string) ([]gateway.Attempt, error)
	ListAnswers(ctx context.Context, attemptID uuid.UUID) ([]gateway.Answer, error)
	UpsertAnswer(ctx context.Context, attemptID, questionID uuid.UUID, option string) (*gateway.Answer, error)
	SubmitAttempt(ctx context.Context, attemptID uuid.UUID) (*gateway.Attempt, error)
	ReviewAttempt(ctx context.Context, attemptID uuid.UUID) ([]gateway.ReviewItem, error)
}

var _ Gateway = (*gateway.Client)(nil)

// Coordinator drives one user's pass through one test: it resumes or
// starts the attempt, keeps the selected options, saves them in the
// background and submits for scoring.
type Coordinator struct {
	gw Gateway

	mu        sync.Mutex
	test      gateway.Test
	questions []gateway.Question
	index     map[uuid.UUID]int
	attempt   gateway.Attempt
	answers   map[uuid.UUID]string
	current   int

	// saveMu orders remote writes so the last selection is the last sent
	saveMu sync.Mutex
	saves  sync.WaitGroup
}

// Open resolves the test by slug and resumes its in-progress attempt, or
// starts one. Saved answers are restored.
func Open(ctx context.Context, gw Gateway, slug string) (*Coordinator, error) {
	slug = strings.TrimSpace(slug)
	t, err := gw.GetTest(ctx, slug)
	if err != nil {
		if gateway.IsNotFound(err) {
			return nil, ErrTestNotFound
		}
		return nil, err
	}
	if t == nil || !t.IsActive {
		return nil, ErrTestNotFound
	}

	qs, err := gw.ListQuestions(ctx, t.Slug)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].OrderIndex < qs[j].OrderIndex })

	c := &Coordinator{
		gw:        gw,
		test:      *t,
		questions: qs,
		index:     make(map[uuid.UUID]int, len(qs)),
	}
	for i, q := range qs {
		c.index[q.ID] = i
	}
	if err := c.begin(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// begin fetches the current attempt and hydrates its answers.
func (c *Coordinator) begin(ctx context.Context) error {
	a, err := c.gw.CurrentAttempt(ctx, c.test.Slug)
	if err != nil {
		return err
	}
	saved, err := c.gw.ListAnswers(ctx, a.ID)
	if err != nil {
		return err
	}
	answers := make(map[uuid.UUID]string, len(saved))
	for _, ans := range saved {
		if _, ok := c.index[ans.QuestionID]; ok && validOption(ans.SelectedOption) {
			answers[ans.QuestionID] = ans.SelectedOption
		}
	}

	c.mu.Lock()
	c.attempt = *a
	c.answers = answers
	c.current = 0
	c.mu.Unlock()
	return nil
}

func validOption(o string) bool {
	switch o {
	case "A", "B", "C", "D":
		return true
	}
	return false
}

/* ==========================
   Read side
========================== */

func (c *Coordinator) Test() gateway.Test { return c.test }

func (c *Coordinator) Questions() []gateway.Question {
	return append([]gateway.Question(nil), c.questions...)
}

func (c *Coordinator) Attempt() gateway.Attempt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempt
}

func (c *Coordinator) Submitted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempt.Status == gateway.StatusSubmitted
}

// Selected returns the locally committed option for a question.
func (c *Coordinator) Selected(questionID uuid.UUID) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, ok := c.answers[questionID]
	return o, ok
}

func (c *Coordinator) AnsweredCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.answers)
}

func (c *Coordinator) AllAnswered() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.questions) > 0 && len(c.answers) == len(c.questions)
}

/* ==========================
   Navigation
========================== */

// Current returns the index and question being shown. ok is false for a
// test without questions.
func (c *Coordinator) Current() (int, gateway.Question, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.questions) == 0 {
		return 0, gateway.Question{}, false
	}
	return c.current, c.questions[c.current], true
}

func (c *Coordinator) Next() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current+1 >= len(c.questions) {
		return false
	}
	c.current++
	return true
}

func (c *Coordinator) Prev() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == 0 {
		return false
	}
	c.current--
	return true
}

func (c *Coordinator) Goto(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.questions) {
		return ErrOutOfRange
	}
	c.current = i
	return nil
}

/* ==========================
   Answering
========================== */

// Select commits the option locally and saves it in the background. A
// failed save is only logged; the local choice stays.
func (c *Coordinator) Select(questionID uuid.UUID, option string) error {
	option = strings.ToUpper(strings.TrimSpace(option))
	if !validOption(option) {
		return ErrInvalidOption
	}
	if _, ok := c.index[questionID]; !ok {
		return ErrUnknownQuestion
	}

	c.mu.Lock()
	if c.attempt.Status == gateway.StatusSubmitted {
		c.mu.Unlock()
		return ErrAttemptSubmitted
	}
	c.answers[questionID] = option
	attemptID := c.attempt.ID
	c.saves.Add(1)
	c.mu.Unlock()

	go c.save(attemptID, questionID)
	return nil
}

// SelectCurrent answers the question being shown.
func (c *Coordinator) SelectCurrent(option string) error {
	_, q, ok := c.Current()
	if !ok {
		return ErrOutOfRange
	}
	return c.Select(q.ID, option)
}

func (c *Coordinator) save(attemptID, questionID uuid.UUID) {
	defer c.saves.Done()
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.Lock()
	option, ok := c.answers[questionID]
	stale := c.attempt.ID != attemptID
	c.mu.Unlock()
	if !ok || stale {
		return
	}
	if _, err := c.gw.UpsertAnswer(context.Background(), attemptID, questionID, option); err != nil {
		log.Printf("[attempt] save answer %s for question %s failed: %v", option, questionID, err)
	}
}

// Flush waits for background answer saves.
func (c *Coordinator) Flush() { c.saves.Wait() }

/* ==========================
   Submission
========================== */

// Submit scores the attempt once every question has an answer.
func (c *Coordinator) Submit(ctx context.Context) (*gateway.Attempt, error) {
	c.mu.Lock()
	if c.attempt.Status == gateway.StatusSubmitted {
		c.mu.Unlock()
		return nil, ErrAttemptSubmitted
	}
	c.mu.Unlock()
	if !c.AllAnswered() {
		return nil, ErrNotAllAnswered
	}

	c.Flush()

	c.mu.Lock()
	id := c.attempt.ID
	c.mu.Unlock()
	a, err := c.gw.SubmitAttempt(ctx, id)
	if err != nil {
		if gateway.IsConflict(err) {
			c.mu.Lock()
			c.attempt.Status = gateway.StatusSubmitted
			c.mu.Unlock()
			return nil, ErrAttemptSubmitted
		}
		return nil, err
	}

	c.mu.Lock()
	c.attempt = *a
	c.mu.Unlock()
	return a, nil
}

// Redo starts a fresh attempt after submission. The submitted one stays in
// history.
func (c *Coordinator) Redo(ctx context.Context) error {
	if !c.Submitted() {
		return ErrNotSubmitted
	}
	c.Flush()
	return c.begin(ctx)
}

// Review lists each question with the chosen and correct option. The key
// is only revealed for a submitted attempt.
func (c *Coordinator) Review(ctx context.Context) ([]gateway.ReviewItem, error) {
	c.mu.Lock()
	a := c.attempt
	c.mu.Unlock()
	if a.Status != gateway.StatusSubmitted {
		return nil, ErrNotSubmitted
	}
	items, err := c.gw.ReviewAttempt(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].OrderIndex < items[j].OrderIndex })
	return items, nil
}

// History lists the user's submitted attempts for this test.
func (c *Coordinator) History(ctx context.Context) ([]gateway.Attempt, error) {
	return c.gw.ListAttempts(ctx, c.test.Slug, gateway.StatusSubmitted)
}
