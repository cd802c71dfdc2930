package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/nicolasdagostino/a615-sub000/internal/listing"
	"github.com/nicolasdagostino/a615-sub000/internal/models"
	"github.com/nicolasdagostino/a615-sub000/internal/services"
)

type stubMemberService struct {
	createErr error
	lastInput services.MemberInput
	lastQuery listing.Query
}

func (s *stubMemberService) CreateMember(_ context.Context, input services.MemberInput) (*models.Member, error) {
	s.lastInput = input
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &models.Member{ID: 3, Name: input.Name}, nil
}

func (s *stubMemberService) GetMember(_ context.Context, id int64) (*models.Member, error) {
	return nil, services.ErrNotFound
}

func (s *stubMemberService) UpdateMember(_ context.Context, id int64, input services.MemberInput) (*models.Member, error) {
	s.lastInput = input
	return &models.Member{ID: id, Name: input.Name}, nil
}

func (s *stubMemberService) ListMembers(_ context.Context, query listing.Query) (listing.Page[models.Member], error) {
	s.lastQuery = query
	return listing.Page[models.Member]{Items: []models.Member{}, Info: listing.NewPageInfo(1, query.PerPage, 0)}, nil
}

func newMemberTestApp(service *stubMemberService) *fiber.App {
	handler := &MemberHandler{service: service}
	app := fiber.New()
	app.Get("/members", handler.ListMembers)
	app.Post("/members", handler.CreateMember)
	app.Get("/members/:id", handler.GetMember)
	app.Put("/members/:id", handler.UpdateMember)
	return app
}

func TestCreateMemberConflict(t *testing.T) {
	service := &stubMemberService{createErr: services.ErrConflict}
	app := newMemberTestApp(service)

	req := httptest.NewRequest(http.MethodPost, "/members", strings.NewReader(`{"name":"Ana","email":"ana@example.com","userId":9}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	if service.lastInput.Name != "Ana" {
		t.Fatalf("expected name forwarded, got %+v", service.lastInput)
	}
}

func TestListMembersForwardsPlanFilter(t *testing.T) {
	service := &stubMemberService{}
	app := newMemberTestApp(service)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/members?plan=monthly&sort=joined", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastQuery.Filters["plan"] != "monthly" || service.lastQuery.Sort != "joined" {
		t.Fatalf("unexpected query: %+v", service.lastQuery)
	}
}

func TestGetMemberInvalidAndMissing(t *testing.T) {
	app := newMemberTestApp(&stubMemberService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/members/0", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/members/4", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
