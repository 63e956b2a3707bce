package handlers

import (
	"database/sql"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"driveshare/internal/apperrors"
	"driveshare/internal/domain"
	"driveshare/internal/repos"
	"driveshare/internal/services"
	"driveshare/internal/validate"
)

type MessageHandler struct {
	Messages *repos.MessageRepo
	Cars     *services.CarService
}

func (h *MessageHandler) ListConversations(c *fiber.Ctx) error {
	u := currentUser(c)
	convs, err := h.Messages.ListConversations(u.ID)
	if err != nil {
		return fail(c, apperrors.Storage(err))
	}
	return c.JSON(fiber.Map{"conversations": convs})
}

type messageReq struct {
	CarID string `json:"carId" validate:"required,max=64"`
	Body  string `json:"body" validate:"required,max=2000"`
}

// Send appends a message to the (car, renter) thread, creating it on first
// contact. Owners reply into the same thread via the conversation endpoint.
func (h *MessageHandler) Send(c *fiber.Ctx) error {
	u := currentUser(c)
	var req messageReq
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}
	carID, ok := validate.ID(req.CarID)
	if !ok {
		return fail(c, apperrors.InvalidInput("invalid car id"))
	}
	car, err := h.Cars.Get(carID)
	if err != nil {
		return fail(c, err)
	}
	if car.OwnerID == u.ID {
		return fail(c, apperrors.InvalidInput("use the conversation reply endpoint for your own listings"))
	}
	conv, err := h.Messages.EnsureConversation(uuid.NewString(), carID, u.ID, car.OwnerID)
	if err != nil {
		return fail(c, apperrors.Storage(err))
	}
	msg := &domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		SenderID:       u.ID,
		Body:           strings.TrimSpace(req.Body),
	}
	if err := h.Messages.Append(msg); err != nil {
		return fail(c, apperrors.Storage(err))
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

type replyReq struct {
	Body string `json:"body" validate:"required,max=2000"`
}

func (h *MessageHandler) Reply(c *fiber.Ctx) error {
	u := currentUser(c)
	convID, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, apperrors.InvalidInput("invalid conversation id"))
	}
	conv, err := h.Messages.GetConversation(convID)
	if err == sql.ErrNoRows {
		return fail(c, apperrors.NotFound("conversation"))
	}
	if err != nil {
		return fail(c, apperrors.Storage(err))
	}
	if conv.RenterID != u.ID && conv.OwnerID != u.ID {
		return fail(c, apperrors.NotFound("conversation"))
	}
	var req replyReq
	if err := parseBody(c, &req); err != nil {
		return fail(c, err)
	}
	msg := &domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		SenderID:       u.ID,
		Body:           strings.TrimSpace(req.Body),
	}
	if err := h.Messages.Append(msg); err != nil {
		return fail(c, apperrors.Storage(err))
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

func (h *MessageHandler) History(c *fiber.Ctx) error {
	u := currentUser(c)
	convID, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, apperrors.InvalidInput("invalid conversation id"))
	}
	conv, err := h.Messages.GetConversation(convID)
	if err == sql.ErrNoRows {
		return fail(c, apperrors.NotFound("conversation"))
	}
	if err != nil {
		return fail(c, apperrors.Storage(err))
	}
	if conv.RenterID != u.ID && conv.OwnerID != u.ID {
		return fail(c, apperrors.NotFound("conversation"))
	}
	msgs, err := h.Messages.ListMessages(conv.ID, 200)
	if err != nil {
		return fail(c, apperrors.Storage(err))
	}
	return c.JSON(fiber.Map{"messages": msgs})
}
