package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/fundfox/fundfox/app/models"
	"github.com/fundfox/fundfox/internal/pkg/assistant"
	"github.com/fundfox/fundfox/internal/pkg/money"
)

// WeeklyStats summarises a creator's last seven days. The returned campaign
// is the live one with the most money raised, or nil.
func (s *Service) WeeklyStats(ctx context.Context, creatorID uint) (*models.User, assistant.WeeklyStats, *models.Campaign, error) {
	_ = ctx
	var stats assistant.WeeklyStats
	creator, err := s.users.GetByID(creatorID)
	if err != nil {
		return nil, stats, nil, err
	}
	campaigns, err := s.campaigns.ListByCreator(creatorID)
	if err != nil {
		return nil, stats, nil, err
	}
	raised, count, err := s.payments.SumSuccessfulSince(creatorID, s.now().AddDate(0, 0, -7))
	if err != nil {
		return nil, stats, nil, err
	}

	stats = assistant.WeeklyStats{
		CreatorName:    creator.Name,
		Currency:       models.GetAppSettings().GetDefaultCurrency(),
		RaisedThisWeek: raised,
		PaymentsCount:  count,
	}
	var best *models.Campaign
	for i := range campaigns {
		c := &campaigns[i]
		if c.Status != models.CampaignStatusActive {
			continue
		}
		stats.LiveCampaigns++
		if best == nil || c.CurrentAmount > best.CurrentAmount {
			best = c
		}
	}
	if best != nil {
		stats.BestCampaign = best.Title
		stats.Currency = best.Currency
	}
	return creator, stats, best, nil
}

// WeeklySummary sends one creator their last seven days plus suggested next
// steps. Tips fall back to fixed advice when the AI provider fails.
func (s *Service) WeeklySummary(ctx context.Context, creatorID uint) error {
	creator, stats, best, err := s.WeeklyStats(ctx, creatorID)
	if err != nil {
		return err
	}
	raised, count := stats.RaisedThisWeek, stats.PaymentsCount

	tips := s.assistant.WeeklyTips(ctx, stats)

	title := fmt.Sprintf("Your week: %s raised", money.Format(raised, stats.Currency))
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", creator.Name)
	fmt.Fprintf(&b, "This week you received %d contributions totalling %s.\n", count, money.Format(raised, stats.Currency))
	fmt.Fprintf(&b, "Live campaigns: %d\n", stats.LiveCampaigns)
	if best != nil {
		fmt.Fprintf(&b, "Leading campaign: %s (%d%% funded)\n", best.Title, best.ProgressPercent())
	}
	b.WriteString("\nIdeas for next week:\n")
	for _, tip := range tips.Tips {
		fmt.Fprintf(&b, "- %s\n", tip)
	}
	body := b.String()

	if err := s.create(creatorID, models.NotificationWeeklySummary, title, body, 0); err != nil {
		return err
	}
	s.mail(ctx, creatorID, title, body)
	log.Infof("[Notify] weekly summary for creator %d (tips: %s)", creatorID, tips.Source)
	return nil
}
