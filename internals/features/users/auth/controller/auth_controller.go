package controller

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"wasitku_backend/internals/features/realtime/authevents"
	"wasitku_backend/internals/features/users/auth/service"
)

type AuthController struct {
	Svc *service.AuthService
}

func NewAuthController(db *gorm.DB, events authevents.Publisher, mailer service.Mailer) *AuthController {
	return &AuthController{Svc: service.NewAuthService(db, events, mailer)}
}

func (ac *AuthController) Register(c *fiber.Ctx) error       { return ac.Svc.Register(c) }
func (ac *AuthController) ConfirmEmail(c *fiber.Ctx) error   { return ac.Svc.ConfirmEmail(c) }
func (ac *AuthController) Login(c *fiber.Ctx) error          { return ac.Svc.Login(c) }
func (ac *AuthController) LoginGoogle(c *fiber.Ctx) error    { return ac.Svc.LoginGoogle(c) }
func (ac *AuthController) RefreshToken(c *fiber.Ctx) error   { return ac.Svc.RefreshToken(c) }
func (ac *AuthController) Logout(c *fiber.Ctx) error         { return ac.Svc.Logout(c) }
func (ac *AuthController) ForgotPassword(c *fiber.Ctx) error { return ac.Svc.ForgotPassword(c) }
func (ac *AuthController) Recover(c *fiber.Ctx) error        { return ac.Svc.Recover(c) }
func (ac *AuthController) UpdatePassword(c *fiber.Ctx) error { return ac.Svc.UpdatePassword(c) }
func (ac *AuthController) Session(c *fiber.Ctx) error        { return ac.Svc.Session(c) }
