package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/nicolasdagostino/a615-sub000/internal/models"
	"github.com/nicolasdagostino/a615-sub000/internal/services"
)

type stubAuthService struct {
	registerErr   error
	loginErr      error
	lastActorRole string
	lastInput     services.RegisterInput
	lastEmail     string
}

func (s *stubAuthService) Register(_ context.Context, actorRole string, input services.RegisterInput) (*services.AuthResult, error) {
	s.lastActorRole = actorRole
	s.lastInput = input
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	return &services.AuthResult{
		Token: "token",
		User:  &models.User{ID: 9, Email: input.Email, Role: models.RoleAthlete, PasswordHash: "hash"},
	}, nil
}

func (s *stubAuthService) Login(_ context.Context, email, _ string) (*services.AuthResult, error) {
	s.lastEmail = email
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &services.AuthResult{Token: "token", User: &models.User{ID: 9, Email: email}}, nil
}

func (s *stubAuthService) Me(_ context.Context, userID int64) (*models.User, error) {
	return &models.User{ID: userID, Email: "ana@example.com"}, nil
}

func TestRegisterIsPublicAndHidesHash(t *testing.T) {
	service := &stubAuthService{}
	handler := &AuthHandler{service: service}
	app := fiber.New()
	app.Post("/register", handler.Register)

	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"email":"ana@example.com","password":"secret123","name":"Ana","role":"admin"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastActorRole != "" {
		t.Fatalf("public registration must not carry an actor role, got %q", service.lastActorRole)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	user, _ := body["user"].(map[string]any)
	if _, leaked := user["PasswordHash"]; leaked {
		t.Fatalf("password hash leaked: %v", user)
	}
}

func TestRegisterForbiddenRoleMapsTo403(t *testing.T) {
	service := &stubAuthService{registerErr: services.ErrForbidden}
	handler := &AuthHandler{service: service}
	app := fiber.New()
	app.Post("/register", handler.Register)

	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"email":"a@b.co","password":"secret123","role":"coach"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestCreateUserPassesAdminRole(t *testing.T) {
	service := &stubAuthService{}
	handler := &AuthHandler{service: service}
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", models.RoleAdmin)
		c.Locals("user_id", "1")
		return c.Next()
	})
	app.Post("/admin/users", handler.CreateUser)

	req := httptest.NewRequest(http.MethodPost, "/admin/users", strings.NewReader(`{"email":"coach@example.com","password":"secret123","role":"coach"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastActorRole != models.RoleAdmin || service.lastInput.Role != "coach" {
		t.Fatalf("unexpected register call: role %q input %+v", service.lastActorRole, service.lastInput)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	service := &stubAuthService{loginErr: services.ErrInvalidCredentials}
	handler := &AuthHandler{service: service}
	app := fiber.New()
	app.Post("/login", handler.Login)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"ana@example.com","password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if service.lastEmail != "ana@example.com" {
		t.Fatalf("expected email forwarded, got %q", service.lastEmail)
	}
}
