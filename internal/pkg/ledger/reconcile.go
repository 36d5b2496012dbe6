package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/fundfox/fundfox/internal/pkg/apperror"
)

// reconcileAttempts bounds how often Reconcile re-reads a campaign whose
// counters moved while it was being checked.
const reconcileAttempts = 3

// Reconcile recomputes a campaign's amount and supporter count from its
// successful payments and corrects the counters when they drifted. The
// correction is applied as a delta guarded by the values it was computed
// from, so a payment settling concurrently is never overwritten.
func (s *Service) Reconcile(ctx context.Context, campaignID uint) (*Drift, error) {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		campaign, err := s.repo.GetCampaign(campaignID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperror.NotFound("campaign not found")
			}
			return nil, err
		}
		stored := Totals{Amount: campaign.CurrentAmount, Supporters: campaign.SupporterCount}

		actual, err := s.repo.CampaignTotals(campaignID)
		if err != nil {
			return nil, err
		}

		d := &Drift{
			CampaignID:       campaignID,
			StoredAmount:     stored.Amount,
			ActualAmount:     actual.Amount,
			StoredSupporters: stored.Supporters,
			ActualSupporters: actual.Supporters,
		}
		if stored == actual {
			return d, nil
		}

		applied, err := s.repo.CorrectCampaignTotals(campaignID, stored, actual)
		if err != nil {
			return d, err
		}
		if applied {
			log.Warnf("[Ledger] drift on campaign %d: amount %d -> %d, supporters %d -> %d",
				campaignID, d.StoredAmount, d.ActualAmount, d.StoredSupporters, d.ActualSupporters)
			d.Corrected = true
			return d, nil
		}
		if attempt == reconcileAttempts {
			return d, fmt.Errorf("campaign %d counters kept changing during reconciliation", campaignID)
		}
		log.Debugf("[Ledger] campaign %d changed during reconciliation, retrying", campaignID)
	}
}

// ReconcileAll reconciles each campaign in turn and returns the drifted ones.
// A failure on one campaign is logged and does not stop the run.
func (s *Service) ReconcileAll(ctx context.Context, campaignIDs []uint) ([]Drift, error) {
	start := time.Now()
	var drifted []Drift
	for _, id := range campaignIDs {
		if err := ctx.Err(); err != nil {
			return drifted, err
		}
		d, err := s.Reconcile(ctx, id)
		if err != nil {
			log.Errorf("[Ledger] reconcile campaign %d: %v", id, err)
			continue
		}
		if d.Corrected {
			drifted = append(drifted, *d)
		}
	}
	log.Infof("[Ledger] reconciled %d campaigns, %d corrected in %v", len(campaignIDs), len(drifted), time.Since(start))
	return drifted, nil
}
