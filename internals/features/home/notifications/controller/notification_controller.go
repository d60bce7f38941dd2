package controller

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"wasitku_backend/internals/constants"
	"wasitku_backend/internals/features/home/notifications/dto"
	"wasitku_backend/internals/features/home/notifications/service"
	helper "wasitku_backend/internals/helpers"
)

type NotificationController struct {
	Svc *service.NotificationService
}

func NewNotificationController(svc *service.NotificationService) *NotificationController {
	return &NotificationController{Svc: svc}
}

func (ctl *NotificationController) userAndID(c *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	userID, err := helper.GetUserUUID(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return uuid.Nil, uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid notification id")
	}
	return userID, id, nil
}

func render(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrNotificationNotFound) {
		return helper.JsonError(c, fiber.StatusNotFound, "Notification not found")
	}
	return helper.FromFiberError(c, err)
}

// GET /api/u/notifications?page=&per_page=
func (ctl *NotificationController) List(c *fiber.Ctx) error {
	userID, err := helper.GetUserUUID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	p := helper.ResolvePaging(c, 20, 100)
	rows, total, err := ctl.Svc.List(c.UserContext(), userID, p.Offset, p.Limit)
	if err != nil {
		return render(c, err)
	}
	pg := helper.BuildPagination(total, p, len(rows))
	return helper.JsonList(c, "ok", dto.ToNotificationResponseList(rows), &pg)
}

// GET /api/u/notifications/active
func (ctl *NotificationController) Active(c *fiber.Ctx) error {
	userID, err := helper.GetUserUUID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	rows, err := ctl.Svc.Active(c.UserContext(), userID)
	if err != nil {
		return render(c, err)
	}
	return helper.JsonList(c, "ok", dto.ToNotificationResponseList(rows), nil)
}

// GET /api/u/notifications/unread-count
func (ctl *NotificationController) UnreadCount(c *fiber.Ctx) error {
	userID, err := helper.GetUserUUID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	n, err := ctl.Svc.UnreadCount(c.UserContext(), userID)
	if err != nil {
		return render(c, err)
	}
	return helper.JsonOK(c, "ok", fiber.Map{"count": n})
}

// PATCH /api/u/notifications/:id/read
func (ctl *NotificationController) MarkRead(c *fiber.Ctx) error {
	userID, id, err := ctl.userAndID(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	if err := ctl.Svc.MarkRead(c.UserContext(), userID, id); err != nil {
		return render(c, err)
	}
	return helper.JsonUpdated(c, "Notification marked as read", fiber.Map{"id": id})
}

// PATCH /api/u/notifications/read-all
func (ctl *NotificationController) MarkAllRead(c *fiber.Ctx) error {
	userID, err := helper.GetUserUUID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	n, err := ctl.Svc.MarkAllRead(c.UserContext(), userID)
	if err != nil {
		return render(c, err)
	}
	return helper.JsonUpdated(c, "All notifications marked as read", fiber.Map{"updated": n})
}

// PATCH /api/u/notifications/:id/remind-later
func (ctl *NotificationController) RemindLater(c *fiber.Ctx) error {
	userID, id, err := ctl.userAndID(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	at, err := ctl.Svc.RemindLater(c.UserContext(), userID, id)
	if err != nil {
		return render(c, err)
	}
	return helper.JsonUpdated(c, "Reminder postponed", fiber.Map{"id": id, "next_reminder_at": at})
}

// PATCH /api/u/notifications/:id/dismiss
func (ctl *NotificationController) Dismiss(c *fiber.Ctx) error {
	userID, id, err := ctl.userAndID(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	if err := ctl.Svc.Dismiss(c.UserContext(), userID, id); err != nil {
		return render(c, err)
	}
	return helper.JsonUpdated(c, "Notification dismissed", fiber.Map{"id": id})
}

// DELETE /api/u/notifications/profile-reminder
func (ctl *NotificationController) DeleteProfileReminder(c *fiber.Ctx) error {
	userID, err := helper.GetUserUUID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	if err := ctl.Svc.DeleteProfileReminder(c.UserContext(), userID); err != nil {
		return render(c, err)
	}
	return helper.JsonDeleted(c, "Profile reminder removed", nil)
}

// POST /api/a/notifications
func (ctl *NotificationController) Create(c *fiber.Ctx) error {
	var req dto.CreateNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := helper.Validate.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}
	if req.Type == "" {
		req.Type = constants.NotificationSystem
	}
	if err := ctl.Svc.Notify(c.UserContext(), req.UserID, req.Type, req.Title, req.Message, req.Data); err != nil {
		return render(c, err)
	}
	return helper.JsonCreated(c, "Notification created", fiber.Map{"user_id": req.UserID})
}
