package handlers

import (
	"github.com/gofiber/fiber/v2"

	"driveshare/internal/apperrors"
	"driveshare/internal/cache"
	"driveshare/internal/repos"
)

type UserHandler struct {
	Users *repos.UserRepo
	Cache *cache.Client
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	return c.JSON(currentUser(c))
}

type profileReq struct {
	Name  string `json:"name" validate:"required,max=40"`
	Phone string `json:"phone" validate:"omitempty,max=20"`
}

func (h *UserHandler) UpdateMe(c *fiber.Ctx) error {
	u := currentUser(c)
	var req profileReq
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}
	if err := h.Users.UpdateProfile(u.ID, req.Name, req.Phone); err != nil {
		return fail(c, apperrors.Storage(err))
	}
	h.Cache.Invalidate(c.Context(), "users:"+u.ID)
	out, err := h.Users.ByID(u.ID)
	if err != nil {
		return fail(c, apperrors.Storage(err))
	}
	return c.JSON(out)
}
