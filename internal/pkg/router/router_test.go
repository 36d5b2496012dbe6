package router

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundfox/fundfox/app/controllers"
	"github.com/fundfox/fundfox/app/repository"
	"github.com/fundfox/fundfox/internal/pkg/apperror"
	"github.com/fundfox/fundfox/internal/pkg/assistant"
	"github.com/fundfox/fundfox/internal/pkg/lifecycle"
	"github.com/fundfox/fundfox/internal/pkg/notify"
	"github.com/fundfox/fundfox/internal/pkg/session"
	"github.com/fundfox/fundfox/internal/pkg/testutil"
	"github.com/fundfox/fundfox/internal/pkg/trending"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	t.Setenv("CRON_SECRET", "s3cret")

	prev := session.GetSessionStore()
	session.SetSessionStore(fibersession.New())
	t.Cleanup(func() { session.SetSessionStore(prev) })

	db := testutil.NewDB(t)
	repos := repository.NewRepositories(db)
	assist := assistant.NewService(nil)
	s := &controllers.Services{
		Repos:     repos,
		Lifecycle: lifecycle.NewService(repos.Campaign, repos.User),
		Sweeper:   lifecycle.NewSweeper(repos.Campaign),
		Trending:  trending.NewService(repos.Campaign),
		Assistant: assist,
		Notify:    notify.NewService(repos, assist, nil),
	}

	app := fiber.New(fiber.Config{ErrorHandler: apperror.ErrorHandler(false)})
	InstallRouter(app, s)
	return app
}

func TestInstallRouter(t *testing.T) {
	app := newTestApp(t)

	cases := []struct {
		name   string
		method string
		target string
		header map[string]string
		want   int
	}{
		{"ping", fiber.MethodGet, "/api/v1/ping", nil, fiber.StatusOK},
		{"public listing", fiber.MethodGet, "/api/v1/campaigns", nil, fiber.StatusOK},
		{"trending is not an id", fiber.MethodGet, "/api/v1/campaigns/trending", nil, fiber.StatusOK},
		{"unknown share link", fiber.MethodGet, "/c/nothing", nil, fiber.StatusNotFound},
		{"dashboard needs a session", fiber.MethodGet, "/api/v1/me/dashboard", nil, fiber.StatusUnauthorized},
		{"create needs a session", fiber.MethodPost, "/api/v1/campaigns", nil, fiber.StatusUnauthorized},
		{"admin needs a session", fiber.MethodGet, "/api/v1/admin/reports", nil, fiber.StatusUnauthorized},
		{"cron without secret", fiber.MethodPost, "/cron/expire-campaigns", nil, fiber.StatusUnauthorized},
		{"cron with wrong secret", fiber.MethodGet, "/cron/expire-campaigns?secret=nope", nil, fiber.StatusUnauthorized},
		{"cron with bearer", fiber.MethodPost, "/cron/expire-campaigns",
			map[string]string{fiber.HeaderAuthorization: "Bearer s3cret"}, fiber.StatusOK},
		{"cron with query secret", fiber.MethodGet, "/cron/publish-updates?secret=s3cret", nil, fiber.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.target, nil)
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}
