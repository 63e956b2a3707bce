package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"driveshare/internal/apperrors"
	"driveshare/internal/cache"
	"driveshare/internal/domain"
	"driveshare/internal/repos"
	"driveshare/internal/validate"
)

type ReviewHandler struct {
	Reviews  *repos.ReviewRepo
	Bookings *repos.BookingRepo
	Cache    *cache.Client
}

func (h *ReviewHandler) ListByCar(c *fiber.Ctx) error {
	carID, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, apperrors.InvalidInput("invalid car id"))
	}
	reviews, err := h.Reviews.ListByCar(carID, 50)
	if err != nil {
		return fail(c, apperrors.Storage(err))
	}
	return c.JSON(fiber.Map{"reviews": reviews})
}

type reviewReq struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// Create accepts a review from a renter who completed a rental of the car.
func (h *ReviewHandler) Create(c *fiber.Ctx) error {
	u := currentUser(c)
	carID, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, apperrors.InvalidInput("invalid car id"))
	}
	var req reviewReq
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}
	rented, err := h.Bookings.HasCompletedRental(carID, u.ID)
	if err != nil {
		return fail(c, apperrors.Storage(err))
	}
	if !rented {
		return fail(c, apperrors.Forbidden("only past renters can review a car"))
	}
	rv := &domain.Review{
		ID:       uuid.NewString(),
		CarID:    carID,
		AuthorID: u.ID,
		Rating:   req.Rating,
		Comment:  strings.TrimSpace(req.Comment),
	}
	if err := h.Reviews.Upsert(rv); err != nil {
		return fail(c, apperrors.Storage(err))
	}
	h.Cache.Invalidate(c.Context(), "cars:"+carID)
	return c.Status(fiber.StatusCreated).JSON(rv)
}
