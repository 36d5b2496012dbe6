package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fundfox/fundfox/app/models"
	"github.com/fundfox/fundfox/app/repository"
	"github.com/fundfox/fundfox/internal/pkg/apperror"
	"github.com/fundfox/fundfox/internal/pkg/assistant"
	"github.com/fundfox/fundfox/internal/pkg/hcaptcha"
	"github.com/fundfox/fundfox/internal/pkg/lifecycle"
	"github.com/fundfox/fundfox/internal/pkg/notify"
	"github.com/fundfox/fundfox/internal/pkg/testutil"
	"github.com/fundfox/fundfox/internal/pkg/trending"
	"github.com/fundfox/fundfox/internal/pkg/usercontext"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

type fakeCaptcha struct{ err error }

func (f fakeCaptcha) Verify(ctx context.Context, token string) error { return f.err }

type fakeJobs struct {
	reconciled []uint
	summaries  []uint
}

func (f *fakeJobs) EnqueueReconcile(ctx context.Context, ids []uint) (int, error) {
	f.reconciled = append(f.reconciled, ids...)
	return len(ids), nil
}

func (f *fakeJobs) EnqueueWeeklySummaries(ctx context.Context, ids []uint) (int, error) {
	f.summaries = append(f.summaries, ids...)
	return len(ids), nil
}

func newServices(t *testing.T, db *gorm.DB) *Services {
	t.Helper()
	repos := repository.NewRepositories(db)
	assist := assistant.NewService(nil)
	return &Services{
		Repos:     repos,
		Lifecycle: lifecycle.NewService(repos.Campaign, repos.User),
		Sweeper:   lifecycle.NewSweeper(repos.Campaign),
		Trending:  trending.NewService(repos.Campaign),
		Assistant: assist,
		Notify:    notify.NewService(repos, assist, nil),
	}
}

// newApp mounts handlers behind a middleware that signs in as uc.
func newApp(uc usercontext.UserContext) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apperror.ErrorHandler(false)})
	app.Use(func(c *fiber.Ctx) error {
		usercontext.Set(c, uc)
		return c.Next()
	})
	return app
}

func userCtx(u *models.User) usercontext.UserContext {
	return usercontext.UserContext{UserID: u.ID, Username: u.Name, IsLoggedIn: true, IsAdmin: u.IsAdmin()}
}

func do(t *testing.T, app *fiber.App, method, target string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func TestCampaignCreate_DraftVisibleOnlyToOwner(t *testing.T) {
	db := testutil.NewDB(t)
	s := newServices(t, db)
	owner := testutil.CreateUser(t, db, "owner")

	ownerApp := newApp(userCtx(owner))
	cc := NewCampaignController(s)
	ownerApp.Post("/campaigns", cc.HandleCreate)
	ownerApp.Get("/campaigns/:id", cc.HandleGet)

	code, env := do(t, ownerApp, fiber.MethodPost, "/campaigns", fiber.Map{
		"title":       "Library for the village",
		"story":       "We want to stock a small lending library for forty families.",
		"goal_amount": 500000,
		"end_date":    time.Now().Add(30 * 24 * time.Hour).UTC().Format(time.RFC3339),
	})
	require.Equal(t, fiber.StatusCreated, code, env.Message)

	var created struct {
		ID        uint   `json:"id"`
		Status    string `json:"status"`
		Currency  string `json:"currency"`
		ShareSlug string `json:"share_slug"`
		ShareURL  string `json:"share_url"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, models.CampaignStatusDraft, created.Status)
	assert.Equal(t, "INR", created.Currency)
	assert.NotEmpty(t, created.ShareSlug)
	assert.Contains(t, created.ShareURL, "/c/"+created.ShareSlug)

	reloaded, err := s.Repos.User.GetByID(owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reloaded.CampaignCount)

	target := "/campaigns/" + uintToStr(created.ID)
	code, _ = do(t, ownerApp, fiber.MethodGet, target, nil)
	assert.Equal(t, fiber.StatusOK, code)

	anon := newApp(usercontext.UserContext{})
	anon.Get("/campaigns/:id", cc.HandleGet)
	anon.Get("/campaigns", cc.HandleList)
	code, env = do(t, anon, fiber.MethodGet, target, nil)
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Equal(t, "not_found", env.Error)

	code, env = do(t, anon, fiber.MethodGet, "/campaigns", nil)
	require.Equal(t, fiber.StatusOK, code)
	var list struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Zero(t, list.Total, "drafts are not listed")
}

func TestCampaignCreate_Validation(t *testing.T) {
	db := testutil.NewDB(t)
	s := newServices(t, db)
	owner := testutil.CreateUser(t, db, "owner")

	app := newApp(userCtx(owner))
	app.Post("/campaigns", NewCampaignController(s).HandleCreate)

	cases := []struct {
		name string
		body fiber.Map
	}{
		{"past end date", fiber.Map{
			"title": "Library for the village", "story": "We want to stock a small lending library.",
			"goal_amount": 1000, "end_date": time.Now().Add(-time.Hour).UTC().Format(time.RFC3339),
		}},
		{"zero goal", fiber.Map{
			"title": "Library for the village", "story": "We want to stock a small lending library.",
			"goal_amount": 0, "end_date": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
		}},
		{"short story", fiber.Map{
			"title": "Library for the village", "story": "Books.",
			"goal_amount": 1000, "end_date": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, env := do(t, app, fiber.MethodPost, "/campaigns", tc.body)
			assert.Equal(t, fiber.StatusBadRequest, code)
			assert.Equal(t, "validation_error", env.Error)
		})
	}
}

func TestCampaignGet_RecordsViewWithoutCache(t *testing.T) {
	db := testutil.NewDB(t)
	s := newServices(t, db)
	creator := testutil.CreateUser(t, db, "creator")
	campaign := testutil.CreateCampaign(t, db, creator.ID, nil)

	app := newApp(usercontext.UserContext{})
	cc := NewCampaignController(s)
	app.Get("/campaigns/:id", cc.HandleGet)
	app.Post("/campaigns/:id/share", cc.HandleTrackShare)

	code, _ := do(t, app, fiber.MethodGet, "/campaigns/"+uintToStr(campaign.ID), nil)
	require.Equal(t, fiber.StatusOK, code)
	code, _ = do(t, app, fiber.MethodPost, "/campaigns/"+uintToStr(campaign.ID)+"/share", nil)
	require.Equal(t, fiber.StatusNoContent, code)

	got := testutil.ReloadCampaign(t, db, campaign.ID)
	assert.Equal(t, int64(1), got.ViewCount)
	assert.Equal(t, int64(1), got.ShareCount)
}

func TestCampaignUpdate_OnlyOwner(t *testing.T) {
	db := testutil.NewDB(t)
	s := newServices(t, db)
	creator := testutil.CreateUser(t, db, "creator")
	other := testutil.CreateUser(t, db, "other")
	campaign := testutil.CreateCampaign(t, db, creator.ID, nil)

	app := newApp(userCtx(other))
	app.Patch("/campaigns/:id", NewCampaignController(s).HandleUpdate)

	code, _ := do(t, app, fiber.MethodPatch, "/campaigns/"+uintToStr(campaign.ID), fiber.Map{"title": "Hijacked campaign"})
	assert.Equal(t, fiber.StatusForbidden, code)
	assert.Equal(t, "Community garden", testutil.ReloadCampaign(t, db, campaign.ID).Title)
}

func TestReportSubmit_DuplicateConflicts(t *testing.T) {
	db := testutil.NewDB(t)
	s := newServices(t, db)
	creator := testutil.CreateUser(t, db, "creator")
	reporter := testutil.CreateUser(t, db, "reporter")
	campaign := testutil.CreateCampaign(t, db, creator.ID, nil)

	app := newApp(userCtx(reporter))
	app.Post("/campaigns/:id/reports", NewReportController(s).HandleSubmit)
	target := "/campaigns/" + uintToStr(campaign.ID) + "/reports"

	code, env := do(t, app, fiber.MethodPost, target, fiber.Map{"reason": "scam"})
	require.Equal(t, fiber.StatusCreated, code, env.Message)

	code, env = do(t, app, fiber.MethodPost, target, fiber.Map{"reason": "spam"})
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Equal(t, "you have already reported this campaign", env.Message)

	code, _ = do(t, app, fiber.MethodPost, target, fiber.Map{"reason": "other", "details": ""})
	assert.Equal(t, fiber.StatusBadRequest, code)
}

func TestReportSubmit_GuestCaptcha(t *testing.T) {
	db := testutil.NewDB(t)
	s := newServices(t, db)
	creator := testutil.CreateUser(t, db, "creator")
	campaign := testutil.CreateCampaign(t, db, creator.ID, nil)
	target := "/campaigns/" + uintToStr(campaign.ID) + "/reports"

	s.Captcha = fakeCaptcha{err: errors.New("invalid-input-response")}
	rejecting := newApp(usercontext.UserContext{})
	rejecting.Post("/campaigns/:id/reports", NewReportController(s).HandleSubmit)
	code, _ := do(t, rejecting, fiber.MethodPost, target, fiber.Map{"reason": "spam", "captcha_token": "bad"})
	assert.Equal(t, fiber.StatusBadRequest, code)

	s.Captcha = fakeCaptcha{err: hcaptcha.ErrNotConfigured}
	open := newApp(usercontext.UserContext{})
	open.Post("/campaigns/:id/reports", NewReportController(s).HandleSubmit)
	for i := 0; i < 2; i++ {
		code, _ = do(t, open, fiber.MethodPost, target, fiber.Map{"reason": "spam"})
		assert.Equal(t, fiber.StatusCreated, code, "guest reports carry no reporter and never collide")
	}
}

func TestAdminResolveReport(t *testing.T) {
	db := testutil.NewDB(t)
	s := newServices(t, db)
	creator := testutil.CreateUser(t, db, "creator")
	admin := testutil.CreateUser(t, db, "admin")
	campaign := testutil.CreateCampaign(t, db, creator.ID, nil)
	report := &models.CampaignReport{CampaignID: campaign.ID, Reason: "spam"}
	require.NoError(t, s.Repos.Report.Create(report))

	app := newApp(usercontext.UserContext{UserID: admin.ID, IsLoggedIn: true, IsAdmin: true})
	rc := NewReportController(s)
	app.Post("/reports/:id/resolve", rc.HandleAdminResolve)

	code, _ := do(t, app, fiber.MethodPost, "/reports/"+uintToStr(report.ID)+"/resolve", nil)
	assert.Equal(t, fiber.StatusOK, code)
	code, _ = do(t, app, fiber.MethodPost, "/reports/"+uintToStr(report.ID)+"/resolve", nil)
	assert.Equal(t, fiber.StatusNotFound, code, "a closed report cannot be closed again")
}

func TestNotifications_MarkRead(t *testing.T) {
	db := testutil.NewDB(t)
	s := newServices(t, db)
	owner := testutil.CreateUser(t, db, "owner")
	stranger := testutil.CreateUser(t, db, "stranger")
	require.NoError(t, models.CreateNotification(db, owner.ID, "system", "Welcome", "Hello", 0))
	require.NoError(t, models.CreateNotification(db, owner.ID, "system", "Second", "Hello again", 0))

	var n models.Notification
	require.NoError(t, db.Where("user_id = ?", owner.ID).Order("id ASC").First(&n).Error)
	target := "/notifications/" + uintToStr(n.ID) + "/read"

	strangerApp := newApp(userCtx(stranger))
	strangerApp.Post("/notifications/:id/read", NewNotificationController(s).HandleMarkRead)
	code, _ := do(t, strangerApp, fiber.MethodPost, target, nil)
	assert.Equal(t, fiber.StatusNotFound, code)

	app := newApp(userCtx(owner))
	nc := NewNotificationController(s)
	app.Get("/notifications", nc.HandleList)
	app.Post("/notifications/read-all", nc.HandleMarkAllRead)
	app.Post("/notifications/:id/read", nc.HandleMarkRead)

	code, _ = do(t, app, fiber.MethodPost, target, nil)
	assert.Equal(t, fiber.StatusOK, code)

	code, env := do(t, app, fiber.MethodGet, "/notifications", nil)
	require.Equal(t, fiber.StatusOK, code)
	var listed struct {
		Notifications []models.Notification `json:"notifications"`
		Unread        int64                 `json:"unread"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	assert.Len(t, listed.Notifications, 2)
	assert.Equal(t, int64(1), listed.Unread)

	code, _ = do(t, app, fiber.MethodPost, "/notifications/read-all", nil)
	require.Equal(t, fiber.StatusOK, code)
	unread, err := s.Repos.Notification.CountUnread(owner.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestCron_ExpireAndPublish(t *testing.T) {
	db := testutil.NewDB(t)
	s := newServices(t, db)
	creator := testutil.CreateUser(t, db, "creator")
	expired := testutil.CreateCampaign(t, db, creator.ID, func(c *models.Campaign) {
		c.EndDate = time.Now().Add(-time.Minute)
	})
	live := testutil.CreateCampaign(t, db, creator.ID, nil)

	due := time.Now().Add(-time.Minute)
	update := &models.CampaignUpdate{CampaignID: live.ID, AuthorID: creator.ID, Title: "Halfway", Content: "Thanks all", PublishAt: &due}
	require.NoError(t, db.Create(update).Error)

	app := newApp(usercontext.UserContext{})
	cron := NewCronController(s)
	app.Post("/cron/expire-campaigns", cron.HandleExpireCampaigns)
	app.Post("/cron/publish-updates", cron.HandlePublishUpdates)

	code, env := do(t, app, fiber.MethodPost, "/cron/expire-campaigns", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.JSONEq(t, `{"completed":1}`, string(env.Data))
	assert.Equal(t, models.CampaignStatusCompleted, testutil.ReloadCampaign(t, db, expired.ID).Status)
	assert.Equal(t, models.CampaignStatusActive, testutil.ReloadCampaign(t, db, live.ID).Status)

	code, env = do(t, app, fiber.MethodPost, "/cron/expire-campaigns", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.JSONEq(t, `{"completed":0}`, string(env.Data))

	code, env = do(t, app, fiber.MethodPost, "/cron/publish-updates", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.JSONEq(t, `{"published":1}`, string(env.Data))
}

func TestCron_QueuesBatchWork(t *testing.T) {
	db := testutil.NewDB(t)
	s := newServices(t, db)
	jobs := &fakeJobs{}
	s.Jobs = jobs

	creator := testutil.CreateUser(t, db, "creator")
	require.NoError(t, db.Model(creator).UpdateColumn("campaign_count", 1).Error)
	a := testutil.CreateCampaign(t, db, creator.ID, nil)
	testutil.CreateCampaign(t, db, creator.ID, func(c *models.Campaign) { c.Status = models.CampaignStatusDraft })

	app := newApp(usercontext.UserContext{})
	cron := NewCronController(s)
	app.Post("/cron/reconcile", cron.HandleReconcile)
	app.Post("/cron/weekly-summary", cron.HandleWeeklySummary)

	code, env := do(t, app, fiber.MethodPost, "/cron/reconcile", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.JSONEq(t, `{"queued":1}`, string(env.Data))
	assert.Equal(t, []uint{a.ID}, jobs.reconciled)

	code, _ = do(t, app, fiber.MethodPost, "/cron/weekly-summary", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, []uint{creator.ID}, jobs.summaries)
}

func TestDashboard(t *testing.T) {
	db := testutil.NewDB(t)
	s := newServices(t, db)
	creator := testutil.CreateUser(t, db, "creator")
	require.NoError(t, db.Model(creator).UpdateColumns(map[string]interface{}{
		"campaign_count": 2, "total_raised": 7500, "total_supporters": 3,
	}).Error)
	testutil.CreateCampaign(t, db, creator.ID, func(c *models.Campaign) { c.CurrentAmount = 7500 })
	testutil.CreateCampaign(t, db, creator.ID, func(c *models.Campaign) { c.Status = models.CampaignStatusDraft })
	require.NoError(t, models.CreateNotification(db, creator.ID, "system", "Hi", "", 0))

	app := newApp(userCtx(creator))
	app.Get("/me/dashboard", NewDashboardController(s).HandleDashboard)

	code, env := do(t, app, fiber.MethodGet, "/me/dashboard", nil)
	require.Equal(t, fiber.StatusOK, code, env.Message)

	var dash struct {
		Totals struct {
			TotalRaised         int64 `json:"total_raised"`
			TotalSupporters     int64 `json:"total_supporters"`
			CampaignCount       int64 `json:"campaign_count"`
			LiveCampaigns       int   `json:"live_campaigns"`
			UnreadNotifications int64 `json:"unread_notifications"`
		} `json:"totals"`
		Campaigns []dashboardCampaign `json:"campaigns"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &dash))
	assert.Equal(t, int64(7500), dash.Totals.TotalRaised)
	assert.Equal(t, int64(3), dash.Totals.TotalSupporters)
	assert.Equal(t, int64(2), dash.Totals.CampaignCount)
	assert.Equal(t, 1, dash.Totals.LiveCampaigns)
	assert.Equal(t, int64(1), dash.Totals.UnreadNotifications)
	assert.Len(t, dash.Campaigns, 2)
}

func uintToStr(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
