package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/nicolasdagostino/a615-sub000/internal/listing"
	"github.com/nicolasdagostino/a615-sub000/internal/models"
	"github.com/nicolasdagostino/a615-sub000/internal/services"
)

type paymentApplicationService interface {
	RecordPayment(ctx context.Context, input services.PaymentInput) (*models.Payment, error)
	GetPayment(ctx context.Context, id int64) (*models.Payment, error)
	UpdatePayment(ctx context.Context, id int64, input services.PaymentInput) (*models.Payment, error)
	DeletePayment(ctx context.Context, id int64) error
	ListPayments(ctx context.Context, query listing.Query) (listing.Page[models.Payment], error)
	ListOwnPayments(ctx context.Context, userID int64, query listing.Query) (listing.Page[models.Payment], error)
	Summary(ctx context.Context, from, to string) (*models.PaymentSummary, error)
}

type PaymentHandler struct {
	service paymentApplicationService
}

func NewPaymentHandler(service *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) ListPayments(c *fiber.Ctx) error {
	page, err := h.service.ListPayments(c.Context(), parseListQuery(c, services.PaymentTable))
	if err != nil {
		return mapPaymentError(c, err)
	}
	return c.JSON(fiber.Map{"payments": page.Items, "pagination": page.Info})
}

func (h *PaymentHandler) ListMyPayments(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return errorResponse(c, fiber.StatusUnauthorized, "Invalid token")
	}
	page, err := h.service.ListOwnPayments(c.Context(), userID, parseListQuery(c, services.PaymentTable))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return errorResponse(c, fiber.StatusNotFound, "No member linked to this account")
		}
		return mapPaymentError(c, err)
	}
	return c.JSON(fiber.Map{"payments": page.Items, "pagination": page.Info})
}

func (h *PaymentHandler) GetPayment(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid payment id")
	}
	payment, err := h.service.GetPayment(c.Context(), id)
	if err != nil {
		return mapPaymentError(c, err)
	}
	return c.JSON(fiber.Map{"payment": payment})
}

func (h *PaymentHandler) RecordPayment(c *fiber.Ctx) error {
	var req services.PaymentInput
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	payment, err := h.service.RecordPayment(c.Context(), req)
	if err != nil {
		return mapPaymentError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"payment": payment})
}

func (h *PaymentHandler) UpdatePayment(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid payment id")
	}
	var req services.PaymentInput
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	payment, err := h.service.UpdatePayment(c.Context(), id, req)
	if err != nil {
		return mapPaymentError(c, err)
	}
	return c.JSON(fiber.Map{"payment": payment})
}

func (h *PaymentHandler) DeletePayment(c *fiber.Ctx) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid payment id")
	}
	if err := h.service.DeletePayment(c.Context(), id); err != nil {
		return mapPaymentError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PaymentHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.service.Summary(c.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		return mapPaymentError(c, err)
	}
	return c.JSON(fiber.Map{"summary": summary})
}

func mapPaymentError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return badInput(c, err)
	case errors.Is(err, services.ErrNotFound):
		return errorResponse(c, fiber.StatusNotFound, "Payment not found")
	default:
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to process payment request")
	}
}
