package handlers

import (
	"github.com/gofiber/fiber/v2"

	"driveshare/internal/apperrors"
	applog "driveshare/internal/log"
	"driveshare/internal/services"
	"driveshare/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type registerReq struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=40"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerReq
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}
	if !validate.Password(req.Password) {
		return fail(c, apperrors.InvalidInput("password needs 8+ chars with upper, lower, digit and symbol"))
	}
	u, err := h.Auth.Register(req.Email, req.Name, req.Password)
	if err != nil {
		applog.Security(c, "register.fail", map[string]any{"email": req.Email})
		return fail(c, apperrors.InvalidInput("could not register with that email"))
	}
	applog.Audit(c, "register", map[string]any{"user_id": u.ID})
	return c.Status(fiber.StatusCreated).JSON(u)
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginReq
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}
	sid := ensureSID(c)
	u, err := h.Auth.Login(sid, req.Email, req.Password)
	if err != nil {
		applog.Security(c, "login.fail", map[string]any{"email": req.Email})
		return fail(c, apperrors.Unauthorized())
	}
	applog.Audit(c, "login", map[string]any{"user_id": u.ID})
	return c.JSON(u)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if sid := c.Cookies("sid"); sid != "" {
		_ = h.Auth.Logout(sid)
	}
	return c.JSON(fiber.Map{"ok": true})
}
