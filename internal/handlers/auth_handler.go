package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/nicolasdagostino/a615-sub000/internal/models"
	"github.com/nicolasdagostino/a615-sub000/internal/services"
)

type authApplicationService interface {
	Register(ctx context.Context, actorRole string, input services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	Me(ctx context.Context, userID int64) (*models.User, error)
}

type AuthHandler struct {
	service authApplicationService
}

func NewAuthHandler(service *services.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register is the public sign-up endpoint. It only creates athletes.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	result, err := h.service.Register(c.Context(), "", req)
	if err != nil {
		return mapAuthError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// CreateUser lets an admin create accounts of any role.
func (h *AuthHandler) CreateUser(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	result, err := h.service.Register(c.Context(), actorRole(c), req)
	if err != nil {
		return mapAuthError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": result.User})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	result, err := h.service.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return mapAuthError(c, err)
	}
	return c.JSON(result)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, err := parseActorID(c)
	if err != nil {
		return errorResponse(c, fiber.StatusUnauthorized, "Invalid token")
	}

	user, err := h.service.Me(c.Context(), userID)
	if err != nil {
		return mapAuthError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

func mapAuthError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return badInput(c, err)
	case errors.Is(err, services.ErrInvalidCredentials):
		return errorResponse(c, fiber.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, services.ErrForbidden):
		return errorResponse(c, fiber.StatusForbidden, "Forbidden")
	case errors.Is(err, services.ErrConflict):
		return errorResponse(c, fiber.StatusConflict, "Email already exists")
	case errors.Is(err, services.ErrNotFound):
		return errorResponse(c, fiber.StatusNotFound, "User not found")
	default:
		return errorResponse(c, fiber.StatusInternalServerError, "Internal server error")
	}
}
