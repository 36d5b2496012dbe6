package middleware

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundfox/fundfox/app/models"
	"github.com/fundfox/fundfox/app/repository"
	"github.com/fundfox/fundfox/internal/pkg/apperror"
	sess "github.com/fundfox/fundfox/internal/pkg/session"
	"github.com/fundfox/fundfox/internal/pkg/testutil"
	"github.com/fundfox/fundfox/internal/pkg/usercontext"
)

func newApp(pre ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apperror.ErrorHandler(false)})
	for _, h := range pre {
		app.Use(h)
	}
	return app
}

func withUser(uc usercontext.UserContext) fiber.Handler {
	return func(c *fiber.Ctx) error {
		usercontext.Set(c, uc)
		return c.Next()
	}
}

func status(t *testing.T, app *fiber.App, req *httptestRequest) int {
	t.Helper()
	r := httptest.NewRequest(req.method, req.target, nil)
	for k, v := range req.headers {
		r.Header.Set(k, v)
	}
	resp, err := app.Test(r)
	require.NoError(t, err)
	return resp.StatusCode
}

type httptestRequest struct {
	method  string
	target  string
	headers map[string]string
}

func get(target string, headers map[string]string) *httptestRequest {
	return &httptestRequest{method: fiber.MethodGet, target: target, headers: headers}
}

func TestRequireAuth(t *testing.T) {
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) }

	anon := newApp()
	anon.Get("/me", RequireAuth, ok)
	assert.Equal(t, fiber.StatusUnauthorized, status(t, anon, get("/me", nil)))

	logged := newApp(withUser(usercontext.UserContext{UserID: 3, IsLoggedIn: true}))
	logged.Get("/me", RequireAuth, ok)
	assert.Equal(t, fiber.StatusNoContent, status(t, logged, get("/me", nil)))
}

func TestRequireAdmin(t *testing.T) {
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) }

	cases := []struct {
		name string
		uc   usercontext.UserContext
		want int
	}{
		{"anonymous", usercontext.UserContext{}, fiber.StatusUnauthorized},
		{"regular user", usercontext.UserContext{UserID: 1, IsLoggedIn: true}, fiber.StatusForbidden},
		{"admin", usercontext.UserContext{UserID: 1, IsLoggedIn: true, IsAdmin: true}, fiber.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newApp(withUser(tc.uc))
			app.Get("/admin", RequireAdmin, ok)
			assert.Equal(t, tc.want, status(t, app, get("/admin", nil)))
		})
	}
}

func TestCronSecret(t *testing.T) {
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) }

	app := newApp()
	app.Get("/cron", CronSecret("s3cret"), ok)

	assert.Equal(t, fiber.StatusNoContent, status(t, app, get("/cron", map[string]string{"Authorization": "Bearer s3cret"})))
	assert.Equal(t, fiber.StatusNoContent, status(t, app, get("/cron?secret=s3cret", nil)))
	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, get("/cron?secret=nope", nil)))
	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, get("/cron", map[string]string{"Authorization": "Bearer nope"})))
	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, get("/cron", nil)))

	locked := newApp()
	locked.Get("/cron", CronSecret(""), ok)
	assert.Equal(t, fiber.StatusUnauthorized, status(t, locked, get("/cron?secret=", nil)))
}

func TestAPIKeyAuthMiddleware(t *testing.T) {
	db := testutil.NewDB(t)
	repository.InitializeFactory(db)

	user := testutil.CreateUser(t, db, "keyholder")
	settings, err := models.GetOrCreateUserSettings(db, user.ID)
	require.NoError(t, err)
	raw, err := settings.IssueAPIKey()
	require.NoError(t, err)
	require.NoError(t, db.Save(settings).Error)

	app := newApp(APIKeyAuthMiddleware())
	app.Get("/whoami", RequireAuth, func(c *fiber.Ctx) error {
		return c.JSON(usercontext.GetUserContext(c))
	})

	assert.Equal(t, fiber.StatusOK, status(t, app, get("/whoami", map[string]string{"X-API-Key": raw})))
	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, get("/whoami", map[string]string{"X-API-Key": "ffx_wrong"})))
	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, get("/whoami", nil)))

	var reloaded models.UserSettings
	require.NoError(t, db.First(&reloaded, settings.ID).Error)
	assert.NotNil(t, reloaded.APIKeyLastUsedAt)
}

func TestUserContextMiddlewareReadsSession(t *testing.T) {
	prev := sess.GetSessionStore()
	sess.SetSessionStore(session.New())
	t.Cleanup(func() { sess.SetSessionStore(prev) })

	app := newApp(UserContextMiddleware)
	app.Get("/login", func(c *fiber.Ctx) error {
		s, err := sess.GetSessionStore().Get(c)
		if err != nil {
			return err
		}
		s.Set(usercontext.KeyUserID, uint(42))
		s.Set(usercontext.KeyUsername, "asha")
		s.Set(usercontext.KeyIsAdmin, true)
		return s.Save()
	})
	app.Get("/me", func(c *fiber.Ctx) error {
		return c.JSON(usercontext.GetUserContext(c))
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/login", nil))
	require.NoError(t, err)
	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	resp, err = app.Test(req)
	require.NoError(t, err)

	var uc usercontext.UserContext
	require.NoError(t, decodeJSON(resp.Body, &uc))
	assert.Equal(t, uint(42), uc.UserID)
	assert.True(t, uc.IsLoggedIn)
	assert.True(t, uc.IsAdmin)
	assert.Equal(t, "asha", uc.Username)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/me", nil))
	require.NoError(t, err)
	uc = usercontext.UserContext{}
	require.NoError(t, decodeJSON(resp.Body, &uc))
	assert.False(t, uc.IsLoggedIn)
}

func decodeJSON(r io.Reader, v interface{}) error {
	return json.NewDecoder(r).Decode(v)
}
