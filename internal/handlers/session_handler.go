package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/nicolasdagostino/a615-sub000/internal/calendar"
	"github.com/nicolasdagostino/a615-sub000/internal/models"
	"github.com/nicolasdagostino/a615-sub000/internal/services"
)

type SessionHandler struct {
	service sessionApplicationService
}

type sessionApplicationService interface {
	CreateSession(ctx context.Context, input services.CreateSessionInput) (*models.SessionView, error)
	ListSessions(ctx context.Context, from, to string) ([]models.SessionView, error)
	GetSession(ctx context.Context, sessionID int64) (*models.SessionView, error)
	UpdateStatus(ctx context.Context, sessionID int64, requestedStatus string) (*models.SessionView, error)
	AthleteWeek(ctx context.Context, athleteID int64, offset int) ([]calendar.DayBucket, error)
	Reserve(ctx context.Context, athleteID, sessionID int64) (*models.SessionView, error)
	CancelReservation(ctx context.Context, athleteID, sessionID int64) (*models.SessionView, error)
	Roster(ctx context.Context, sessionID int64) ([]models.RosterEntry, error)
	MarkAttendance(ctx context.Context, markerID, sessionID int64, input services.MarkAttendanceInput) (*models.Attendance, error)
}

func NewSessionHandler(service *services.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

type updateSessionStatusRequest struct {
	Status string `json:"status"`
}

func (h *SessionHandler) CreateSession(c *fiber.Ctx) error {
	var req services.CreateSessionInput
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	session, err := h.service.CreateSession(c.Context(), req)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) ListSessions(c *fiber.Ctx) error {
	sessions, err := h.service.ListSessions(c.Context(), strings.TrimSpace(c.Query("from")), strings.TrimSpace(c.Query("to")))
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"sessions": sessions})
}

func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid session id")
	}

	session, err := h.service.GetSession(c.Context(), sessionID)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) UpdateStatus(c *fiber.Ctx) error {
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid session id")
	}

	var req updateSessionStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	session, err := h.service.UpdateStatus(c.Context(), sessionID, req.Status)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

// AthleteClasses returns the viewer's 7-day window. ?week=N shifts the
// window by N weeks.
func (h *SessionHandler) AthleteClasses(c *fiber.Ctx) error {
	athleteID, err := parseActorID(c)
	if err != nil {
		return errorResponse(c, fiber.StatusUnauthorized, "Invalid token")
	}

	offset := 0
	if raw := strings.TrimSpace(c.Query("week")); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < -52 || offset > 52 {
			return errorResponse(c, fiber.StatusBadRequest, "week must be an integer between -52 and 52")
		}
	}

	days, err := h.service.AthleteWeek(c.Context(), athleteID, offset)
	if err != nil {
		return mapSessionError(c, err)
	}

	from, to := "", ""
	if len(days) > 0 {
		from, to = days[0].Date, days[len(days)-1].Date
	}
	return c.JSON(fiber.Map{"week": offset, "from": from, "to": to, "days": days})
}

func (h *SessionHandler) Reserve(c *fiber.Ctx) error {
	athleteID, err := parseActorID(c)
	if err != nil {
		return errorResponse(c, fiber.StatusUnauthorized, "Invalid token")
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid session id")
	}

	session, err := h.service.Reserve(c.Context(), athleteID, sessionID)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) CancelReservation(c *fiber.Ctx) error {
	athleteID, err := parseActorID(c)
	if err != nil {
		return errorResponse(c, fiber.StatusUnauthorized, "Invalid token")
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid session id")
	}

	session, err := h.service.CancelReservation(c.Context(), athleteID, sessionID)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) Roster(c *fiber.Ctx) error {
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid session id")
	}

	roster, err := h.service.Roster(c.Context(), sessionID)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"roster": roster})
}

func (h *SessionHandler) MarkAttendance(c *fiber.Ctx) error {
	markerID, err := parseActorID(c)
	if err != nil {
		return errorResponse(c, fiber.StatusUnauthorized, "Invalid token")
	}
	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid session id")
	}

	var req services.MarkAttendanceInput
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	attendance, err := h.service.MarkAttendance(c.Context(), markerID, sessionID, req)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"attendance": attendance})
}

func mapSessionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrInvalidStatus):
		return badInput(c, err)
	case errors.Is(err, services.ErrForbidden):
		return errorResponse(c, fiber.StatusForbidden, "Forbidden")
	case errors.Is(err, services.ErrSessionFull):
		return errorResponse(c, fiber.StatusConflict, "Session is full")
	case errors.Is(err, services.ErrAlreadyReserved):
		return errorResponse(c, fiber.StatusConflict, "You already have a reservation for this session")
	case errors.Is(err, services.ErrConflict):
		return errorResponse(c, fiber.StatusConflict, "A session for this class already exists at that date")
	case errors.Is(err, services.ErrInvalidStateTransition):
		return errorResponse(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrNotReserved):
		return errorResponse(c, fiber.StatusNotFound, "No reservation for this session")
	case errors.Is(err, services.ErrNotFound):
		return errorResponse(c, fiber.StatusNotFound, "Session not found")
	default:
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to process session request")
	}
}
