package handlers

import (
	"database/sql"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"driveshare/internal/apperrors"
	"driveshare/internal/repos"
	"driveshare/internal/services"
	"driveshare/internal/validate"
)

type BookingHandler struct {
	Bookings *services.BookingService
	Repo     *repos.BookingRepo
	Cars     *services.CarService
}

type bookingReq struct {
	CarID      string `json:"carId" validate:"required,max=64"`
	StartDate  string `json:"startDate" validate:"required"`
	EndDate    string `json:"endDate" validate:"required"`
	PickupTime string `json:"pickupTime" validate:"omitempty,max=8"`
	ReturnTime string `json:"returnTime" validate:"omitempty,max=8"`
}

// Create is the reservation endpoint. Error bodies distinguish conflict,
// invalid_range and storage_error so the client can react to each.
func (h *BookingHandler) Create(c *fiber.Ctx) error {
	u := currentUser(c)
	var req bookingReq
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}
	carID, ok := validate.ID(req.CarID)
	if !ok {
		return fail(c, apperrors.InvalidInput("invalid car id"))
	}

	b, err := h.Bookings.Request(c.Context(), services.BookingInput{
		CarID:      carID,
		RenterID:   u.ID,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		PickupTime: req.PickupTime,
		ReturnTime: req.ReturnTime,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(b)
}

// Mine lists the caller's bookings.
func (h *BookingHandler) Mine(c *fiber.Ctx) error {
	u := currentUser(c)
	bookings, err := h.Repo.ListByRenter(u.ID)
	if err != nil {
		return fail(c, apperrors.Storage(err))
	}
	return c.JSON(fiber.Map{"bookings": bookings})
}

// AdminList shows recent bookings across the whole marketplace.
func (h *BookingHandler) AdminList(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit"))
	bookings, err := h.Repo.ListRecent(limit)
	if err != nil {
		return fail(c, apperrors.Storage(err))
	}
	return c.JSON(fiber.Map{"bookings": bookings})
}

// Get returns a booking to its renter or the car's owner.
func (h *BookingHandler) Get(c *fiber.Ctx) error {
	u := currentUser(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, apperrors.InvalidInput("invalid booking id"))
	}
	b, err := h.Repo.Get(id)
	if err == sql.ErrNoRows {
		return fail(c, apperrors.NotFound("booking"))
	}
	if err != nil {
		return fail(c, apperrors.Storage(err))
	}
	if b.RenterID != u.ID {
		car, err := h.Cars.Get(b.CarID)
		if err != nil || car.OwnerID != u.ID {
			return fail(c, apperrors.NotFound("booking"))
		}
	}
	return c.JSON(b)
}

func (h *BookingHandler) Cancel(c *fiber.Ctx) error {
	u := currentUser(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, apperrors.InvalidInput("invalid booking id"))
	}
	b, err := h.Bookings.Cancel(c.Context(), id, u.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(b)
}

// Availability answers whether a car is free over a range.
func (h *BookingHandler) Availability(c *fiber.Ctx) error {
	carID, ok := validate.ID(c.Query("carId"))
	if !ok {
		return fail(c, apperrors.InvalidInput("missing or invalid carId"))
	}
	start, ok := validate.Date(c.Query("start"))
	if !ok {
		return fail(c, apperrors.InvalidRange("start must be YYYY-MM-DD"))
	}
	end, ok := validate.Date(c.Query("end"))
	if !ok {
		return fail(c, apperrors.InvalidRange("end must be YYYY-MM-DD"))
	}
	if end <= start {
		return fail(c, apperrors.InvalidRange("end must be after start"))
	}
	avail, err := h.Bookings.CheckAvailability(carID, start, end)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(avail)
}

type paymentCallbackReq struct {
	BookingID string `json:"bookingId" validate:"required,max=64"`
	Status    string `json:"status" validate:"required,oneof=paid failed"`
}

// PaymentCallback is the gateway's webhook driving pending bookings to
// confirmed or cancelled.
func (h *BookingHandler) PaymentCallback(c *fiber.Ctx) error {
	var req paymentCallbackReq
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}
	b, err := h.Bookings.HandlePaymentResult(c.Context(), req.BookingID, req.Status == "paid")
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(b)
}
