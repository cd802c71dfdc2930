package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/nicolasdagostino/a615-sub000/internal/listing"
	"github.com/nicolasdagostino/a615-sub000/internal/models"
	"github.com/nicolasdagostino/a615-sub000/internal/services"
)

type memberApplicationService interface {
	CreateMember(ctx context.Context, input services.MemberInput) (*models.Member, error)
	GetMember(ctx context.Context, id int64) (*models.Member, error)
	UpdateMember(ctx context.Context, id int64, input services.MemberInput) (*models.Member, error)
	ListMembers(ctx context.Context, query listing.Query) (listing.Page[models.Member], error)
}

type MemberHandler struct {
	service memberApplicationService
}

func NewMemberHandler(service *services.MemberService) *MemberHandler {
	return &MemberHandler{service: service}
}

func (h *MemberHandler) ListMembers(c *fiber.Ctx) error {
	page, err := h.service.ListMembers(c.Context(), parseListQuery(c, services.MemberTable))
	if err != nil {
		return mapMemberError(c, err)
	}
	return c.JSON(fiber.Map{"members": page.Items, "pagination": page.Info})
}

func (h *MemberHandler) GetMember(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid member id")
	}
	member, err := h.service.GetMember(c.Context(), id)
	if err != nil {
		return mapMemberError(c, err)
	}
	return c.JSON(fiber.Map{"member": member})
}

func (h *MemberHandler) CreateMember(c *fiber.Ctx) error {
	var req services.MemberInput
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	member, err := h.service.CreateMember(c.Context(), req)
	if err != nil {
		return mapMemberError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"member": member})
}

func (h *MemberHandler) UpdateMember(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid member id")
	}
	var req services.MemberInput
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	member, err := h.service.UpdateMember(c.Context(), id, req)
	if err != nil {
		return mapMemberError(c, err)
	}
	return c.JSON(fiber.Map{"member": member})
}

func mapMemberError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return badInput(c, err)
	case errors.Is(err, services.ErrNotFound):
		return errorResponse(c, fiber.StatusNotFound, "Member not found")
	case errors.Is(err, services.ErrConflict):
		return errorResponse(c, fiber.StatusConflict, "Account is already linked to another member")
	default:
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to process member request")
	}
}
