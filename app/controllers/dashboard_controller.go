package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"

	"github.com/fundfox/fundfox/app/models"
	"github.com/fundfox/fundfox/internal/pkg/money"
)

const dashboardDays = 30

type DashboardController struct {
	s *Services
}

func NewDashboardController(s *Services) *DashboardController {
	return &DashboardController{s: s}
}

type dashboardCampaign struct {
	ID              uint   `json:"id"`
	Title           string `json:"title"`
	Status          string `json:"status"`
	CurrentAmount   int64  `json:"current_amount"`
	GoalAmount      int64  `json:"goal_amount"`
	RaisedDisplay   string `json:"raised_display"`
	ProgressPercent int    `json:"progress_percent"`
	SupporterCount  int64  `json:"supporter_count"`
	ViewCount       int64  `json:"view_count"`
	CommentCount    int64  `json:"comment_count"`
	ShareCount      int64  `json:"share_count"`
	UnderReview     bool   `json:"under_review"`
	EndDate         string `json:"end_date"`
}

// HandleDashboard aggregates the creator's totals, campaigns and a daily
// payment series. The independent reads run concurrently.
func (dc *DashboardController) HandleDashboard(c *fiber.Ctx) error {
	userID := currentUser(c).UserID
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -(dashboardDays - 1))

	var (
		user      *models.User
		campaigns []models.Campaign
		daily     []models.DailyStats
		unread    int64
	)
	g, _ := errgroup.WithContext(c.UserContext())
	g.Go(func() error {
		var err error
		user, err = dc.s.Repos.User.GetByID(userID)
		return err
	})
	g.Go(func() error {
		var err error
		campaigns, err = dc.s.Repos.Campaign.ListByCreator(userID)
		return err
	})
	g.Go(func() error {
		var err error
		daily, err = dc.s.Repos.Payment.GetDailyStatsForCreator(userID, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		unread, err = dc.s.Repos.Notification.CountUnread(userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	currency := models.GetAppSettings().GetDefaultCurrency()
	items := make([]dashboardCampaign, 0, len(campaigns))
	live := 0
	for i := range campaigns {
		cp := &campaigns[i]
		if cp.Status == models.CampaignStatusActive {
			live++
		}
		items = append(items, dashboardCampaign{
			ID:              cp.ID,
			Title:           cp.Title,
			Status:          cp.Status,
			CurrentAmount:   cp.CurrentAmount,
			GoalAmount:      cp.GoalAmount,
			RaisedDisplay:   money.Format(cp.CurrentAmount, cp.Currency),
			ProgressPercent: cp.ProgressPercent(),
			SupporterCount:  cp.SupporterCount,
			ViewCount:       cp.ViewCount,
			CommentCount:    cp.CommentCount,
			ShareCount:      cp.ShareCount,
			UnderReview:     cp.FlaggedForReview && cp.ReviewedAt == nil,
			EndDate:         cp.EndDate.UTC().Format(time.RFC3339),
		})
	}

	return ok(c, fiber.StatusOK, fiber.Map{
		"totals": fiber.Map{
			"total_raised":         user.TotalRaised,
			"total_raised_display": money.Format(user.TotalRaised, currency),
			"total_supporters":     user.TotalSupporters,
			"campaign_count":       user.CampaignCount,
			"live_campaigns":       live,
			"unread_notifications": unread,
		},
		"campaigns": items,
		"daily":     daily,
	})
}
