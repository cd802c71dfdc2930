package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nicolasdagostino/a615-sub000/internal/config"
	"github.com/nicolasdagostino/a615-sub000/internal/logger"
	"github.com/nicolasdagostino/a615-sub000/internal/models"
	realtime "github.com/nicolasdagostino/a615-sub000/internal/websocket"
	"github.com/nicolasdagostino/a615-sub000/internal/wodstore"
	"github.com/nicolasdagostino/a615-sub000/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "routes-test-secret"

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	store, err := wodstore.NewFileStore(filepath.Join(t.TempDir(), "wods.json"), logger.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	hub := realtime.NewHub(logger.Nop())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	app := fiber.New()
	RegisterRoutes(app, &config.Config{
		JWTSecret:          testSecret,
		Location:           time.UTC,
		RateLimitPerMinute: 10,
	}, Dependencies{
		WODStore: store,
		Hub:      hub,
		Logger:   logger.Nop(),
	})
	return app
}

func bearer(t *testing.T, userID, role string) string {
	t.Helper()
	token, err := utils.GenerateToken(userID, role, testSecret)
	require.NoError(t, err)
	return "Bearer " + token
}

func do(t *testing.T, app *fiber.App, method, path, auth, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/api/v1/classes", "/api/v1/sessions", "/api/v1/wods", "/api/auth/me"} {
		resp := do(t, app, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestRoleGroups(t *testing.T) {
	app := newTestApp(t)
	athlete := bearer(t, "42", models.RoleAthlete)
	coach := bearer(t, "7", models.RoleCoach)

	cases := []struct {
		method string
		path   string
		auth   string
	}{
		{http.MethodGet, "/api/v1/members", athlete},
		{http.MethodGet, "/api/v1/members", coach},
		{http.MethodGet, "/api/v1/payments", coach},
		{http.MethodGet, "/api/v1/classes", athlete},
		{http.MethodPost, "/api/v1/classes", coach},
		{http.MethodPost, "/api/v1/admin/users", coach},
		{http.MethodGet, "/api/v1/sessions/1/roster", athlete},
		{http.MethodPost, "/api/v1/sessions/1/reservation", coach},
		{http.MethodGet, "/api/v1/athlete/classes", coach},
		{http.MethodPut, "/api/v1/wods/2026-03-10", athlete},
	}
	for _, tc := range cases {
		resp := do(t, app, tc.method, tc.path, tc.auth, "")
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, "%s %s", tc.method, tc.path)
	}
}

func TestWODFlowThroughFileStore(t *testing.T) {
	app := newTestApp(t)
	coach := bearer(t, "7", models.RoleCoach)
	athlete := bearer(t, "42", models.RoleAthlete)

	resp := do(t, app, http.MethodPut, "/api/v1/wods/2026-03-10", coach, `{"title":"Fran","metcon":["21-15-9", " "]}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, app, http.MethodPut, "/api/v1/wods/2026-03-10", coach, `{"title":"Fran v2"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, app, http.MethodGet, "/api/v1/wods/2026-03-10", athlete, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got struct {
		WOD models.WOD `json:"wod"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "Fran v2", got.WOD.Title)

	resp = do(t, app, http.MethodPost, "/api/v1/wods/2026-03-10/comments", athlete, `{"text":"done in 6:12"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		Comment models.WODComment `json:"comment"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NotEmpty(t, created.Comment.ID)

	resp = do(t, app, http.MethodDelete, "/api/v1/wods/2026-03-10/comments/"+created.Comment.ID, athlete, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = do(t, app, http.MethodDelete, "/api/v1/wods/2026-03-10/comments/"+created.Comment.ID, coach, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, app, http.MethodGet, "/api/v1/wods/2026-03-11", athlete, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebSocketEndpointRejectsPlainHTTP(t *testing.T) {
	app := newTestApp(t)

	resp := do(t, app, http.MethodGet, "/api/v1/ws?topic=wod:2026-03-10", bearer(t, "42", models.RoleAthlete), "")
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}
