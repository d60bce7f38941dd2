package controller

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"wasitku_backend/internals/features/users/profiles/dto"
	"wasitku_backend/internals/features/users/profiles/service"
	helper "wasitku_backend/internals/helpers"
)

type ProfileController struct {
	Svc *service.ProfileService
}

func NewProfileController(svc *service.ProfileService) *ProfileController {
	return &ProfileController{Svc: svc}
}

func render(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrProfileNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "Profile not found")
	case errors.Is(err, service.ErrUsernameTaken):
		return helper.JsonError(c, fiber.StatusConflict, "Username is already taken")
	case errors.Is(err, service.ErrInvalidUsername):
		return helper.JsonValidationError(c, map[string][]string{
			"username": {"Username must be 3-30 characters of a-z, 0-9 or _"},
		})
	case errors.Is(err, service.ErrNothingToUpdate):
		return helper.JsonError(c, fiber.StatusBadRequest, "Nothing to update")
	}
	return helper.FromFiberError(c, err)
}

// GET /api/u/profile
func (ctl *ProfileController) Get(c *fiber.Ctx) error {
	userID, err := helper.GetUserUUID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	p, err := ctl.Svc.Get(c.UserContext(), userID)
	if err != nil {
		return render(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromProfileModel(p))
}

// PATCH /api/u/profile
func (ctl *ProfileController) Patch(c *fiber.Ctx) error {
	userID, err := helper.GetUserUUID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Username != nil {
		u := helper.NormalizeUsername(*req.Username)
		req.Username = &u
	}
	if err := helper.Validate.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}
	p, err := ctl.Svc.Update(c.UserContext(), userID, service.UpdateInput{
		Name:     req.Name,
		PhotoURL: req.PhotoURL,
		Username: req.Username,
	})
	if err != nil {
		return render(c, err)
	}
	return helper.JsonUpdated(c, "Profile updated", dto.FromProfileModel(p))
}

// PUT /api/u/profile/username
func (ctl *ProfileController) SetUsername(c *fiber.Ctx) error {
	userID, err := helper.GetUserUUID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	var req dto.SetUsernameRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.Username = helper.NormalizeUsername(req.Username)
	if err := helper.Validate.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}
	p, err := ctl.Svc.SetUsername(c.UserContext(), userID, req.Username)
	if err != nil {
		return render(c, err)
	}
	return helper.JsonUpdated(c, "Username updated", dto.FromProfileModel(p))
}

// GET /api/u/profile/username-available?username=
func (ctl *ProfileController) UsernameAvailable(c *fiber.Ctx) error {
	userID, err := helper.GetUserUUID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	username := strings.TrimSpace(c.Query("username"))
	ok, err := ctl.Svc.UsernameAvailable(c.UserContext(), userID, username)
	if err != nil {
		return render(c, err)
	}
	return helper.JsonOK(c, "ok", fiber.Map{
		"username":  helper.NormalizeUsername(username),
		"available": ok,
	})
}

// POST /api/u/profile/last-login
func (ctl *ProfileController) LastLogin(c *fiber.Ctx) error {
	userID, err := helper.GetUserUUID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	if err := ctl.Svc.RecordLastLogin(c.UserContext(), userID); err != nil {
		log.Printf("[Service] last-login user=%s: %v", userID, err)
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "ok", nil)
}
