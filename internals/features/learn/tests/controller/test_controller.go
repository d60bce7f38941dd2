package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"wasitku_backend/internals/features/learn/tests/dto"
	"wasitku_backend/internals/features/learn/tests/service"
	helper "wasitku_backend/internals/helpers"
)

type TestController struct {
	Svc *service.TestService
}

func NewTestController(svc *service.TestService) *TestController {
	return &TestController{Svc: svc}
}

// GET /api/u/tests
func (ctl *TestController) List(c *fiber.Ctx) error {
	rows, err := ctl.Svc.ListActive(c.UserContext())
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonList(c, "ok", dto.FromTestModels(rows), nil)
}

// GET /api/u/tests/:slug
func (ctl *TestController) GetBySlug(c *fiber.Ctx) error {
	t, err := ctl.Svc.ResolveActive(c.UserContext(), c.Params("slug"))
	if err != nil {
		return renderError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromTestModel(t))
}

// GET /api/u/tests/:slug/questions
func (ctl *TestController) Questions(c *fiber.Ctx) error {
	t, qs, err := ctl.Svc.Questions(c.UserContext(), c.Params("slug"))
	if err != nil {
		return renderError(c, err)
	}
	return helper.JsonOK(c, "ok", fiber.Map{
		"test":      dto.FromTestModel(t),
		"questions": dto.FromQuestionModels(qs),
	})
}

func renderError(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrTestNotFound) {
		return helper.JsonError(c, fiber.StatusNotFound, "Test not found")
	}
	return helper.FromFiberError(c, err)
}
