package controller_test

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"wasitku_backend/internals/features/learn/tests/controller"
	"wasitku_backend/internals/features/learn/tests/model"
	"wasitku_backend/internals/features/learn/tests/service"
)

type stubRepo struct {
	test      model.TestModel
	questions []model.TestQuestionModel
}

func (s *stubRepo) ListActive(ctx context.Context) ([]model.TestModel, error) {
	if !s.test.IsActive {
		return nil, nil
	}
	return []model.TestModel{s.test}, nil
}

func (s *stubRepo) FindBySlug(ctx context.Context, slug string) (*model.TestModel, error) {
	if slug != s.test.Slug {
		return nil, gorm.ErrRecordNotFound
	}
	t := s.test
	return &t, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.TestModel, error) {
	if id != s.test.ID {
		return nil, gorm.ErrRecordNotFound
	}
	t := s.test
	return &t, nil
}

func (s *stubRepo) ListQuestions(ctx context.Context, testID uuid.UUID) ([]model.TestQuestionModel, error) {
	return s.questions, nil
}

func (s *stubRepo) FindQuestion(ctx context.Context, testID, questionID uuid.UUID) (*model.TestQuestionModel, error) {
	return nil, gorm.ErrRecordNotFound
}

func newApp(repo *stubRepo) *fiber.App {
	app := fiber.New(fiber.Config{JSONEncoder: sonic.Marshal, JSONDecoder: sonic.Unmarshal})
	ctl := controller.NewTestController(service.NewTestService(repo))
	app.Get("/tests", ctl.List)
	app.Get("/tests/:slug", ctl.GetBySlug)
	app.Get("/tests/:slug/questions", ctl.Questions)
	return app
}

func fixtureRepo() *stubRepo {
	id := uuid.New()
	return &stubRepo{
		test: model.TestModel{ID: id, Slug: "offside-basics", Title: "Offside basics", IsActive: true},
		questions: []model.TestQuestionModel{{
			ID: uuid.New(), TestID: id, OrderIndex: 1,
			QuestionText: "Is a player level with the second-last defender offside?",
			OptionA:      "Yes", OptionB: "No", OptionC: "Only in the penalty area", OptionD: "Only if the ball is played backwards",
			CorrectOption: "B",
		}},
	}
}

func TestQuestionsNeverExposeAnswerKey(t *testing.T) {
	g := NewWithT(t)
	app := newApp(fixtureRepo())

	resp, err := app.Test(httptest.NewRequest("GET", "/tests/offside-basics/questions", nil))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

	raw, _ := io.ReadAll(resp.Body)
	g.Expect(string(raw)).NotTo(ContainSubstring("correct_option"))

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Questions []map[string]any `json:"questions"`
		} `json:"data"`
	}
	g.Expect(sonic.Unmarshal(raw, &body)).To(Succeed())
	g.Expect(body.Success).To(BeTrue())
	g.Expect(body.Data.Questions).To(HaveLen(1))
	g.Expect(body.Data.Questions[0]).To(HaveKeyWithValue("option_b", "No"))
}

func TestInactiveTestIsNotFound(t *testing.T) {
	g := NewWithT(t)
	repo := fixtureRepo()
	repo.test.IsActive = false
	app := newApp(repo)

	resp, err := app.Test(httptest.NewRequest("GET", "/tests/offside-basics", nil))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))

	resp, err = app.Test(httptest.NewRequest("GET", "/tests/unknown/questions", nil))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
}
