package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/naveenhacks/KVISION/internal/messaging"
	"github.com/naveenhacks/KVISION/internal/middleware"
	"github.com/naveenhacks/KVISION/internal/models"
)

const handlerTimeout = 5 * time.Second

type Handlers struct {
	svc *messaging.Service
}

func NewHandlers(svc *messaging.Service) *Handlers {
	return &Handlers{svc: svc}
}

func (h *Handlers) sendMessage(c *fiber.Ctx) error {
	var req struct {
		ReceiverID string         `json:"receiver_id"`
		Content    models.Content `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	uid, role := middleware.UserFromCtx(c)

	ctx, cancel := context.WithTimeout(c.Context(), handlerTimeout)
	defer cancel()
	msg, err := h.svc.SendMessage(ctx, uid, role, req.ReceiverID, req.Content)
	if err != nil {
		if isValidation(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "message not sent, try again"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "ok", "data": msg})
}

func (h *Handlers) deleteMessage(c *fiber.Ctx) error {
	key := c.Params("key")
	msgID := c.Params("msg_id")

	ctx, cancel := context.WithTimeout(c.Context(), handlerTimeout)
	defer cancel()
	if err := h.svc.DeleteMessage(ctx, key, msgID); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "delete failed, try again"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *Handlers) markRead(c *fiber.Ctx) error {
	key := c.Params("key")
	uid, role := middleware.UserFromCtx(c)

	ctx, cancel := context.WithTimeout(c.Context(), handlerTimeout)
	defer cancel()
	if err := h.svc.MarkConversationAsRead(ctx, key, uid, role); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "mark read failed, try again"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *Handlers) listConversations(c *fiber.Ctx) error {
	uid, role := middleware.UserFromCtx(c)

	ctx, cancel := context.WithTimeout(c.Context(), handlerTimeout)
	defer cancel()
	views, err := h.svc.ProjectForViewer(ctx, uid, role)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "conversations unavailable"})
	}
	return c.JSON(fiber.Map{"status": "ok", "data": views})
}

func (h *Handlers) unreadTotal(c *fiber.Ctx) error {
	uid, role := middleware.UserFromCtx(c)

	ctx, cancel := context.WithTimeout(c.Context(), handlerTimeout)
	defer cancel()
	total, err := h.svc.TotalUnread(ctx, uid, role)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "unread count unavailable"})
	}
	return c.JSON(fiber.Map{"status": "ok", "total_unread": total})
}

func isValidation(err error) bool {
	return errors.Is(err, messaging.ErrSelfConversation) ||
		errors.Is(err, messaging.ErrEmptyContent) ||
		errors.Is(err, messaging.ErrInvalidContent) ||
		errors.Is(err, messaging.ErrEmptyParticipant) ||
		errors.Is(err, messaging.ErrInvalidParticipant)
}
