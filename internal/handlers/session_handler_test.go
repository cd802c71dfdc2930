package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/nicolasdagostino/a615-sub000/internal/calendar"
	"github.com/nicolasdagostino/a615-sub000/internal/models"
	"github.com/nicolasdagostino/a615-sub000/internal/services"
)

type stubSessionService struct {
	createResult    *models.SessionView
	createErr       error
	listResult      []models.SessionView
	listErr         error
	getResult       *models.SessionView
	getErr          error
	updateResult    *models.SessionView
	updateErr       error
	weekResult      []calendar.DayBucket
	weekErr         error
	reserveResult   *models.SessionView
	reserveErr      error
	cancelResult    *models.SessionView
	cancelErr       error
	rosterResult    []models.RosterEntry
	rosterErr       error
	markResult      *models.Attendance
	markErr         error
	lastCreateInput services.CreateSessionInput
	lastMarkInput   services.MarkAttendanceInput
	lastActorID     int64
	lastSessionID   int64
	lastStatus      string
	lastFrom        string
	lastTo          string
	lastOffset      int
	weekCalled      bool
}

func (s *stubSessionService) CreateSession(_ context.Context, input services.CreateSessionInput) (*models.SessionView, error) {
	s.lastCreateInput = input
	return s.createResult, s.createErr
}

func (s *stubSessionService) ListSessions(_ context.Context, from, to string) ([]models.SessionView, error) {
	s.lastFrom = from
	s.lastTo = to
	return s.listResult, s.listErr
}

func (s *stubSessionService) GetSession(_ context.Context, sessionID int64) (*models.SessionView, error) {
	s.lastSessionID = sessionID
	return s.getResult, s.getErr
}

func (s *stubSessionService) UpdateStatus(_ context.Context, sessionID int64, requestedStatus string) (*models.SessionView, error) {
	s.lastSessionID = sessionID
	s.lastStatus = requestedStatus
	return s.updateResult, s.updateErr
}

func (s *stubSessionService) AthleteWeek(_ context.Context, athleteID int64, offset int) ([]calendar.DayBucket, error) {
	s.weekCalled = true
	s.lastActorID = athleteID
	s.lastOffset = offset
	return s.weekResult, s.weekErr
}

func (s *stubSessionService) Reserve(_ context.Context, athleteID, sessionID int64) (*models.SessionView, error) {
	s.lastActorID = athleteID
	s.lastSessionID = sessionID
	return s.reserveResult, s.reserveErr
}

func (s *stubSessionService) CancelReservation(_ context.Context, athleteID, sessionID int64) (*models.SessionView, error) {
	s.lastActorID = athleteID
	s.lastSessionID = sessionID
	return s.cancelResult, s.cancelErr
}

func (s *stubSessionService) Roster(_ context.Context, sessionID int64) ([]models.RosterEntry, error) {
	s.lastSessionID = sessionID
	return s.rosterResult, s.rosterErr
}

func (s *stubSessionService) MarkAttendance(_ context.Context, markerID, sessionID int64, input services.MarkAttendanceInput) (*models.Attendance, error) {
	s.lastActorID = markerID
	s.lastSessionID = sessionID
	s.lastMarkInput = input
	return s.markResult, s.markErr
}

func newSessionTestApp(service *stubSessionService, role, userID string) *fiber.App {
	handler := &SessionHandler{service: service}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", role)
		c.Locals("user_id", userID)
		return c.Next()
	})
	app.Post("/api/v1/sessions", handler.CreateSession)
	app.Get("/api/v1/sessions", handler.ListSessions)
	app.Get("/api/v1/sessions/:id", handler.GetSession)
	app.Put("/api/v1/sessions/:id/status", handler.UpdateStatus)
	app.Post("/api/v1/sessions/:id/reservation", handler.Reserve)
	app.Delete("/api/v1/sessions/:id/reservation", handler.CancelReservation)
	app.Get("/api/v1/sessions/:id/roster", handler.Roster)
	app.Put("/api/v1/sessions/:id/attendance", handler.MarkAttendance)
	app.Get("/api/v1/athlete/classes", handler.AthleteClasses)
	return app
}

func TestCreateSessionReturnsCreated(t *testing.T) {
	service := &stubSessionService{
		createResult: &models.SessionView{Session: models.Session{ID: 91, Date: "2026-03-15", Time: "09:00", Status: models.SessionScheduled}},
	}
	app := newSessionTestApp(service, models.RoleCoach, "7")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(`{
		"classId": 3,
		"date": "2026-03-15",
		"time": "09:00",
		"capacity": 14
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastCreateInput.ClassID != 3 || service.lastCreateInput.Capacity != 14 {
		t.Fatalf("unexpected create input: %+v", service.lastCreateInput)
	}
}

func TestCreateSessionReturnsConflictForDuplicate(t *testing.T) {
	service := &stubSessionService{createErr: services.ErrConflict}
	app := newSessionTestApp(service, models.RoleAdmin, "1")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(`{"classId":3,"date":"2026-03-15"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestListSessionsPassesDateRange(t *testing.T) {
	service := &stubSessionService{
		listResult: []models.SessionView{{Session: models.Session{ID: 5, Status: models.SessionScheduled}}},
	}
	app := newSessionTestApp(service, models.RoleCoach, "9")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions?from=2026-03-01&to=2026-03-07", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastFrom != "2026-03-01" || service.lastTo != "2026-03-07" {
		t.Fatalf("unexpected range %q..%q", service.lastFrom, service.lastTo)
	}
}

func TestGetSessionReturnsNotFound(t *testing.T) {
	service := &stubSessionService{getErr: services.ErrNotFound}
	app := newSessionTestApp(service, models.RoleAthlete, "42")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/999", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if service.lastSessionID != 999 {
		t.Fatalf("expected session 999, got %d", service.lastSessionID)
	}
}

func TestGetSessionRejectsInvalidID(t *testing.T) {
	service := &stubSessionService{}
	app := newSessionTestApp(service, models.RoleAthlete, "42")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/abc", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestUpdateStatusReturnsUnprocessableForInvalidTransition(t *testing.T) {
	service := &stubSessionService{updateErr: services.ErrInvalidStateTransition}
	app := newSessionTestApp(service, models.RoleCoach, "7")

	req := httptest.NewRequest(http.MethodPut, "/api/v1/sessions/55/status", strings.NewReader(`{"status":"scheduled"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	if service.lastStatus != "scheduled" {
		t.Fatalf("expected forwarded status, got %q", service.lastStatus)
	}
}

func TestReserveUsesTokenAthlete(t *testing.T) {
	service := &stubSessionService{
		reserveResult: &models.SessionView{Session: models.Session{ID: 12, Capacity: 10, ReservedCount: 4}, Reserved: true},
	}
	app := newSessionTestApp(service, models.RoleAthlete, "42")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/12/reservation", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastActorID != 42 || service.lastSessionID != 12 {
		t.Fatalf("unexpected reserve call: athlete %d session %d", service.lastActorID, service.lastSessionID)
	}

	var body struct {
		Session models.SessionView `json:"session"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !body.Session.Reserved || body.Session.ReservedCount != 4 {
		t.Fatalf("unexpected session body: %+v", body.Session)
	}
}

func TestReserveMapsDomainErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{name: "full", err: services.ErrSessionFull, want: http.StatusConflict},
		{name: "duplicate", err: services.ErrAlreadyReserved, want: http.StatusConflict},
		{name: "started", err: services.ErrInvalidStateTransition, want: http.StatusUnprocessableEntity},
		{name: "missing", err: services.ErrNotFound, want: http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newSessionTestApp(&stubSessionService{reserveErr: tc.err}, models.RoleAthlete, "42")

			req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/12/reservation", nil)
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.StatusCode)
			}
		})
	}
}

func TestCancelReservationReturnsNotFoundWithoutReservation(t *testing.T) {
	service := &stubSessionService{cancelErr: services.ErrNotReserved}
	app := newSessionTestApp(service, models.RoleAthlete, "42")

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/sessions/12/reservation", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestReserveRejectsMalformedActor(t *testing.T) {
	service := &stubSessionService{}
	app := newSessionTestApp(service, models.RoleAthlete, "not-a-number")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/12/reservation", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestRosterReturnsEntries(t *testing.T) {
	present := models.AttendancePresent
	service := &stubSessionService{
		rosterResult: []models.RosterEntry{{AthleteID: 42, Name: "Ana", Attendance: &present}},
	}
	app := newSessionTestApp(service, models.RoleCoach, "7")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/12/roster", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Roster []models.RosterEntry `json:"roster"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(body.Roster) != 1 || body.Roster[0].Attendance == nil || *body.Roster[0].Attendance != "present" {
		t.Fatalf("unexpected roster: %+v", body.Roster)
	}
}

func TestMarkAttendanceForwardsMarker(t *testing.T) {
	service := &stubSessionService{
		markResult: &models.Attendance{SessionID: 12, AthleteID: 42, Status: models.AttendanceAbsent},
	}
	app := newSessionTestApp(service, models.RoleCoach, "7")

	req := httptest.NewRequest(http.MethodPut, "/api/v1/sessions/12/attendance", strings.NewReader(`{"athleteId":42,"status":"absent"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastActorID != 7 || service.lastMarkInput.AthleteID != 42 || service.lastMarkInput.Status != "absent" {
		t.Fatalf("unexpected mark call: marker %d input %+v", service.lastActorID, service.lastMarkInput)
	}
}

func TestAthleteClassesPassesWeekOffset(t *testing.T) {
	service := &stubSessionService{
		weekResult: []calendar.DayBucket{
			{Date: "2026-03-17", Weekday: "tuesday", Sessions: []models.SessionView{}},
			{Date: "2026-03-23", Weekday: "monday", Sessions: []models.SessionView{}},
		},
	}
	app := newSessionTestApp(service, models.RoleAthlete, "42")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/athlete/classes?week=1", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastOffset != 1 || service.lastActorID != 42 {
		t.Fatalf("unexpected week call: offset %d athlete %d", service.lastOffset, service.lastActorID)
	}

	var body struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.From != "2026-03-17" || body.To != "2026-03-23" {
		t.Fatalf("unexpected window %q..%q", body.From, body.To)
	}
}

func TestAthleteClassesRejectsBadWeek(t *testing.T) {
	service := &stubSessionService{}
	app := newSessionTestApp(service, models.RoleAthlete, "42")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/athlete/classes?week=soon", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if service.weekCalled {
		t.Fatalf("service should not be called for an invalid week")
	}
}

func TestAthleteClassesSurfacesFetchErrorAsJSON(t *testing.T) {
	service := &stubSessionService{weekErr: errors.New("connection refused")}
	app := newSessionTestApp(service, models.RoleAthlete, "42")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/athlete/classes", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if msg, ok := body["error"].(string); !ok || msg == "" {
		t.Fatalf("expected error string, got %v", body)
	}
}

func TestMapSessionErrorDefaultsToInternalServerError(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return mapSessionError(c, errors.New("boom"))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}
