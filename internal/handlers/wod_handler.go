package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/nicolasdagostino/a615-sub000/internal/models"
	"github.com/nicolasdagostino/a615-sub000/internal/services"
)

type wodApplicationService interface {
	ListWODs(ctx context.Context) ([]models.WOD, error)
	GetWOD(ctx context.Context, date string) (*models.WOD, error)
	TodayWOD(ctx context.Context) (*models.WOD, error)
	SaveWOD(ctx context.Context, wod models.WOD) (*models.WOD, bool, error)
	DeleteWOD(ctx context.Context, date string) error
	Comments(ctx context.Context, date string) ([]models.WODComment, error)
	AddComment(ctx context.Context, date, text string) (*models.WODComment, error)
	DeleteComment(ctx context.Context, date, commentID string) error
}

type WODHandler struct {
	service wodApplicationService
}

func NewWODHandler(service *services.WODService) *WODHandler {
	return &WODHandler{service: service}
}

type addCommentRequest struct {
	Text string `json:"text"`
}

func (h *WODHandler) ListWODs(c *fiber.Ctx) error {
	wods, err := h.service.ListWODs(c.Context())
	if err != nil {
		return mapWODError(c, err)
	}
	return c.JSON(fiber.Map{"wods": wods})
}

func (h *WODHandler) GetWOD(c *fiber.Ctx) error {
	wod, err := h.service.GetWOD(c.Context(), c.Params("date"))
	if err != nil {
		return mapWODError(c, err)
	}
	return c.JSON(fiber.Map{"wod": wod})
}

func (h *WODHandler) TodayWOD(c *fiber.Ctx) error {
	wod, err := h.service.TodayWOD(c.Context())
	if err != nil {
		return mapWODError(c, err)
	}
	return c.JSON(fiber.Map{"wod": wod})
}

// SaveWOD upserts the WOD for the date in the path; a date in the body is
// ignored.
func (h *WODHandler) SaveWOD(c *fiber.Ctx) error {
	var req models.WOD
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.Date = strings.TrimSpace(c.Params("date"))

	wod, created, err := h.service.SaveWOD(c.Context(), req)
	if err != nil {
		return mapWODError(c, err)
	}
	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"wod": wod})
}

func (h *WODHandler) DeleteWOD(c *fiber.Ctx) error {
	if err := h.service.DeleteWOD(c.Context(), c.Params("date")); err != nil {
		return mapWODError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *WODHandler) Comments(c *fiber.Ctx) error {
	comments, err := h.service.Comments(c.Context(), c.Params("date"))
	if err != nil {
		return mapWODError(c, err)
	}
	return c.JSON(fiber.Map{"comments": comments})
}

func (h *WODHandler) AddComment(c *fiber.Ctx) error {
	var req addCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	comment, err := h.service.AddComment(c.Context(), c.Params("date"), req.Text)
	if err != nil {
		return mapWODError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"comment": comment})
}

func (h *WODHandler) DeleteComment(c *fiber.Ctx) error {
	if err := h.service.DeleteComment(c.Context(), c.Params("date"), c.Params("commentId")); err != nil {
		return mapWODError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func mapWODError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return badInput(c, err)
	case errors.Is(err, services.ErrNotFound):
		return errorResponse(c, fiber.StatusNotFound, "WOD not found")
	default:
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to process WOD request")
	}
}
