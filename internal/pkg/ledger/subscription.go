package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/fundfox/fundfox/app/models"
	"github.com/fundfox/fundfox/internal/pkg/apperror"
	"github.com/fundfox/fundfox/internal/pkg/gateway"
)

// Subscribe sets up a recurring contribution. Campaign totals only move when
// the resulting charges settle.
func (s *Service) Subscribe(ctx context.Context, in SubscribeInput) (*models.Subscription, string, error) {
	if in.Amount <= 0 {
		return nil, "", apperror.Validation("amount must be positive")
	}
	interval := in.Interval
	if interval == "" {
		interval = models.SubscriptionIntervalMonthly
	}
	if interval != models.SubscriptionIntervalMonthly && interval != models.SubscriptionIntervalYearly {
		return nil, "", apperror.Validation("interval must be monthly or yearly")
	}

	campaign, err := s.repo.GetCampaign(in.CampaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", apperror.NotFound("campaign not found")
		}
		return nil, "", err
	}
	if !campaign.AcceptsPayments(s.now()) {
		return nil, "", ErrNotAccepting
	}
	if campaign.CreatorID == in.SupporterID {
		return nil, "", apperror.Validation("creators cannot subscribe to their own campaign")
	}

	gs, err := s.gw.CreateSubscription(ctx, gateway.SubscriptionRequest{
		Amount:   in.Amount,
		Currency: campaign.Currency,
		Interval: interval,
		Name:     campaign.Title,
		Notes:    map[string]string{"campaign_uuid": campaign.UUID},
	})
	if err != nil {
		log.Errorf("[Ledger] create subscription for campaign %d failed: %v", campaign.ID, err)
		return nil, "", apperror.Upstream("payment gateway unavailable", err)
	}

	sub := &models.Subscription{
		CampaignID:            campaign.ID,
		CreatorID:             campaign.CreatorID,
		SupporterID:           in.SupporterID,
		GatewaySubscriptionID: gs.ID,
		GatewayPlanID:         gs.PlanID,
		Amount:                in.Amount,
		Currency:              campaign.Currency,
		Interval:              interval,
		Status:                models.SubscriptionStatusActive,
	}
	if err := s.repo.Subscriptions().Create(sub); err != nil {
		return nil, "", fmt.Errorf("store subscription: %w", err)
	}
	log.Infof("[Ledger] subscription %s created for campaign %d", sub.UUID, campaign.ID)
	return sub, gs.ShortURL, nil
}

func (s *Service) PauseSubscription(ctx context.Context, supporterID uint, subUUID string) (*models.Subscription, error) {
	return s.changeSubscription(ctx, supporterID, subUUID, models.SubscriptionStatusPaused, s.gw.PauseSubscription)
}

func (s *Service) ResumeSubscription(ctx context.Context, supporterID uint, subUUID string) (*models.Subscription, error) {
	return s.changeSubscription(ctx, supporterID, subUUID, models.SubscriptionStatusActive, s.gw.ResumeSubscription)
}

func (s *Service) CancelSubscription(ctx context.Context, supporterID uint, subUUID string) (*models.Subscription, error) {
	return s.changeSubscription(ctx, supporterID, subUUID, models.SubscriptionStatusCancelled, s.gw.CancelSubscription)
}

func (s *Service) changeSubscription(
	ctx context.Context,
	supporterID uint,
	subUUID string,
	to string,
	call func(ctx context.Context, id string) error,
) (*models.Subscription, error) {
	sub, err := s.repo.Subscriptions().GetByUUID(subUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("subscription not found")
		}
		return nil, err
	}
	if sub.SupporterID != supporterID {
		return nil, apperror.Forbidden("not your subscription")
	}
	if !models.CanTransitionSubscription(sub.Status, to) {
		return nil, apperror.Conflict(fmt.Sprintf("subscription cannot move from %s to %s", sub.Status, to))
	}

	if err := call(ctx, sub.GatewaySubscriptionID); err != nil {
		return nil, apperror.Upstream("payment gateway unavailable", err)
	}

	changed, err := s.repo.Subscriptions().TransitionStatus(sub.ID, []string{sub.Status}, to)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, apperror.Conflict("subscription changed concurrently")
	}
	sub.Status = to
	return sub, nil
}
