package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"wasitku_backend/internals/features/learn/attempts/dto"
	"wasitku_backend/internals/features/learn/attempts/service"
	testdto "wasitku_backend/internals/features/learn/tests/dto"
	testservice "wasitku_backend/internals/features/learn/tests/service"
	helper "wasitku_backend/internals/helpers"
)

type AttemptController struct {
	Svc *service.AttemptService
}

func NewAttemptController(svc *service.AttemptService) *AttemptController {
	return &AttemptController{Svc: svc}
}

/* ============================================================
   Per test: /api/u/tests/:slug/attempts
============================================================ */

// POST /api/u/tests/:slug/attempts/current
func (ctl *AttemptController) Current(c *fiber.Ctx) error {
	userID, err := helper.GetUserUUID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	a, t, err := ctl.Svc.GetOrCreateCurrent(c.UserContext(), userID, c.Params("slug"))
	if err != nil {
		return renderError(c, err)
	}
	return helper.JsonOK(c, "ok", fiber.Map{
		"attempt": dto.FromAttemptModel(a),
		"test":    testdto.FromTestModel(t),
	})
}

// GET /api/u/tests/:slug/attempts?status=submitted
func (ctl *AttemptController) ListForTest(c *fiber.Ctx) error {
	userID, err := helper.GetUserUUID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	rows, err := ctl.Svc.ListByStatus(c.UserContext(), userID, c.Params("slug"), c.Query("status"))
	if err != nil {
		return renderError(c, err)
	}
	return helper.JsonList(c, "ok", dto.FromAttemptModels(rows), nil)
}

/* ============================================================
   Per attempt: /api/u/attempts/:id
============================================================ */

// GET /api/u/attempts/:id/answers
func (ctl *AttemptController) ListAnswers(c *fiber.Ctx) error {
	userID, err := helper.GetUserUUID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	attemptID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid attempt id")
	}
	rows, err := ctl.Svc.ListAnswers(c.UserContext(), userID, attemptID)
	if err != nil {
		return renderError(c, err)
	}
	return helper.JsonList(c, "ok", dto.FromAnswerModels(rows), nil)
}

// PUT /api/u/attempts/:id/answers/:question_id
func (ctl *AttemptController) UpsertAnswer(c *fiber.Ctx) error {
	userID, err := helper.GetUserUUID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	attemptID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid attempt id")
	}
	questionID, err := helper.ParseUUIDParam(c, "question_id")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid question id")
	}

	var req dto.UpsertAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := helper.Validate.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	ans, err := ctl.Svc.UpsertAnswer(c.UserContext(), userID, attemptID, questionID, req.SelectedOption)
	if err != nil {
		return renderError(c, err)
	}
	return helper.JsonUpdated(c, "Answer saved", dto.FromAnswerModel(ans))
}

// POST /api/u/attempts/:id/submit
func (ctl *AttemptController) Submit(c *fiber.Ctx) error {
	userID, err := helper.GetUserUUID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	attemptID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid attempt id")
	}
	a, err := ctl.Svc.Submit(c.UserContext(), userID, attemptID)
	if err != nil {
		return renderError(c, err)
	}
	return helper.JsonOK(c, "Attempt submitted", dto.FromAttemptModel(a))
}

// GET /api/u/attempts/:id/review
func (ctl *AttemptController) Review(c *fiber.Ctx) error {
	userID, err := helper.GetUserUUID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	attemptID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid attempt id")
	}
	a, items, err := ctl.Svc.Review(c.UserContext(), userID, attemptID)
	if err != nil {
		return renderError(c, err)
	}
	return helper.JsonOK(c, "ok", fiber.Map{
		"attempt": dto.FromAttemptModel(a),
		"items":   dto.FromReviewItems(items),
	})
}

func renderError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, testservice.ErrTestNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "Test not found")
	case errors.Is(err, service.ErrAttemptNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "Attempt not found")
	case errors.Is(err, service.ErrQuestionNotInTest):
		return helper.JsonError(c, fiber.StatusNotFound, "Question not found in this test")
	case errors.Is(err, service.ErrAttemptSubmitted):
		return helper.JsonError(c, fiber.StatusConflict, "Attempt already submitted")
	case errors.Is(err, service.ErrAttemptNotSubmitted):
		return helper.JsonError(c, fiber.StatusConflict, "Attempt has not been submitted yet")
	case errors.Is(err, service.ErrInvalidOption), errors.Is(err, service.ErrInvalidStatus):
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	return helper.FromFiberError(c, err)
}
