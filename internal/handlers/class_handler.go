package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/nicolasdagostino/a615-sub000/internal/listing"
	"github.com/nicolasdagostino/a615-sub000/internal/models"
	"github.com/nicolasdagostino/a615-sub000/internal/services"
)

type classApplicationService interface {
	CreateClass(ctx context.Context, input services.ClassInput) (*models.GymClass, error)
	GetClass(ctx context.Context, id int64) (*models.GymClass, error)
	UpdateClass(ctx context.Context, id int64, input services.ClassInput) (*models.GymClass, error)
	DeleteClass(ctx context.Context, id int64) error
	ListClasses(ctx context.Context, query listing.Query) (listing.Page[models.GymClass], error)
	GenerateWeek(ctx context.Context, weekStart string) ([]models.Session, error)
}

type ClassHandler struct {
	service classApplicationService
}

func NewClassHandler(service *services.ClassService) *ClassHandler {
	return &ClassHandler{service: service}
}

type generateWeekRequest struct {
	WeekStart string `json:"weekStart"`
}

func (h *ClassHandler) ListClasses(c *fiber.Ctx) error {
	page, err := h.service.ListClasses(c.Context(), parseListQuery(c, services.ClassTable))
	if err != nil {
		return mapClassError(c, err)
	}
	return c.JSON(fiber.Map{"classes": page.Items, "pagination": page.Info})
}

func (h *ClassHandler) GetClass(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid class id")
	}
	class, err := h.service.GetClass(c.Context(), id)
	if err != nil {
		return mapClassError(c, err)
	}
	return c.JSON(fiber.Map{"class": class})
}

func (h *ClassHandler) CreateClass(c *fiber.Ctx) error {
	var req services.ClassInput
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	class, err := h.service.CreateClass(c.Context(), req)
	if err != nil {
		return mapClassError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"class": class})
}

func (h *ClassHandler) UpdateClass(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid class id")
	}
	var req services.ClassInput
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	class, err := h.service.UpdateClass(c.Context(), id, req)
	if err != nil {
		return mapClassError(c, err)
	}
	return c.JSON(fiber.Map{"class": class})
}

func (h *ClassHandler) DeleteClass(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid class id")
	}
	if err := h.service.DeleteClass(c.Context(), id); err != nil {
		return mapClassError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ClassHandler) GenerateWeek(c *fiber.Ctx) error {
	var req generateWeekRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	sessions, err := h.service.GenerateWeek(c.Context(), req.WeekStart)
	if err != nil {
		return mapClassError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"sessions": sessions, "created": len(sessions)})
}

func mapClassError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return badInput(c, err)
	case errors.Is(err, services.ErrNotFound):
		return errorResponse(c, fiber.StatusNotFound, "Class not found")
	default:
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to process class request")
	}
}
