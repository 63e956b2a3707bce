package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"driveshare/internal/apperrors"
	"driveshare/internal/services"
	"driveshare/internal/validate"
)

type CarHandler struct {
	Cars *services.CarService
}

func (h *CarHandler) List(c *fiber.Ctx) error {
	location := ""
	if raw := c.Query("location"); raw != "" {
		loc, ok := validate.Location(raw)
		if !ok {
			return fail(c, apperrors.InvalidInput("invalid location filter"))
		}
		location = loc
	}
	maxPrice, _ := strconv.ParseFloat(c.Query("maxPrice"), 64)
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	cars, err := h.Cars.List(location, maxPrice, limit, offset)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"cars": cars})
}

func (h *CarHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, apperrors.InvalidInput("invalid car id"))
	}
	car, err := h.Cars.Get(id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(car)
}

type carReq struct {
	Title       string  `json:"title" validate:"required,max=80"`
	Description string  `json:"description" validate:"max=2000"`
	Location    string  `json:"location" validate:"required,max=60"`
	PricePerDay float64 `json:"pricePerDay" validate:"required,gt=0"`
	Available   *bool   `json:"available"`
}

func (r carReq) input() services.CarInput {
	avail := true
	if r.Available != nil {
		avail = *r.Available
	}
	return services.CarInput{
		Title:       strings.TrimSpace(r.Title),
		Description: strings.TrimSpace(r.Description),
		Location:    strings.TrimSpace(r.Location),
		PricePerDay: r.PricePerDay,
		Available:   avail,
	}
}

func (h *CarHandler) Create(c *fiber.Ctx) error {
	u := currentUser(c)
	var req carReq
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}
	car, err := h.Cars.Create(c.Context(), u.ID, req.input())
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(car)
}

func (h *CarHandler) Update(c *fiber.Ctx) error {
	u := currentUser(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, apperrors.InvalidInput("invalid car id"))
	}
	var req carReq
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}
	car, err := h.Cars.Update(c.Context(), id, u.ID, req.input())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(car)
}

func (h *CarHandler) Delete(c *fiber.Ctx) error {
	u := currentUser(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, apperrors.InvalidInput("invalid car id"))
	}
	if err := h.Cars.Delete(c.Context(), id, u.ID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}
