package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/fundfox/fundfox/app/models"
	"github.com/fundfox/fundfox/internal/pkg/apperror"
	"github.com/fundfox/fundfox/internal/pkg/gateway"
)

// HandleWebhook records a gateway delivery once and applies it. Only signed
// deliveries are keyed by their event id; unsigned ones are stored under a
// body hash so they can never claim a genuine event's id. A redelivered event
// is acknowledged as a duplicate only after it was processed without error.
func (s *Service) HandleWebhook(ctx context.Context, d WebhookDelivery) (*WebhookResult, error) {
	signatureValid := gateway.VerifyWebhookSignature(d.Payload, d.Signature, s.webhookSecret)

	ev, parseErr := gateway.ParseWebhookEvent(d.Payload)
	eventType := "unknown"
	if parseErr == nil {
		eventType = ev.Event
	}

	created, stored, err := s.repo.CreateWebhookEventIfNotExists(&models.PaymentWebhookEvent{
		Provider:        models.PaymentProviderGateway,
		ProviderEventID: webhookEventKey(d, signatureValid),
		EventType:       eventType,
		PayloadJSON:     string(d.Payload),
		SignatureValid:  signatureValid,
	})
	if err != nil {
		return nil, fmt.Errorf("persist webhook event: %w", err)
	}
	if !signatureValid {
		if created {
			s.markProcessed(stored.ID, errors.New("invalid webhook signature"))
		}
		return nil, ErrInvalidSignature
	}
	if !created && stored.ProcessedAt != nil && stored.ProcessingError == "" {
		return &WebhookResult{Duplicate: true, Event: eventType}, nil
	}
	if parseErr != nil {
		s.markProcessed(stored.ID, parseErr)
		return nil, apperror.Validation("invalid webhook payload")
	}

	result, procErr := s.applyWebhook(ctx, ev)
	s.markProcessed(stored.ID, procErr)
	if procErr != nil {
		log.Errorf("[Ledger] webhook %s (%s) failed: %v", stored.ProviderEventID, ev.Event, procErr)
		return nil, procErr
	}
	return result, nil
}

// webhookEventKey is the inbox dedupe key of a delivery.
func webhookEventKey(d WebhookDelivery, signatureValid bool) string {
	sum := sha256.Sum256(d.Payload)
	if !signatureValid {
		return "unsigned:" + hex.EncodeToString(sum[:])
	}
	if id := strings.TrimSpace(d.EventID); id != "" {
		return id
	}
	return "hash:" + hex.EncodeToString(sum[:])
}

func (s *Service) applyWebhook(ctx context.Context, ev *gateway.WebhookEvent) (*WebhookResult, error) {
	result := &WebhookResult{Event: ev.Event}
	var procErr error
	switch ev.Event {
	case gateway.EventPaymentCaptured:
		if ev.OrderID == "" {
			result.Ignored = true
			break
		}
		_, procErr = s.Settle(ctx, ev.OrderID, ev.PaymentID)
		if errors.Is(procErr, ErrPaymentNotFound) {
			// orders created outside checkout, e.g. subscription invoices
			result.Ignored = true
			procErr = nil
		}
	case gateway.EventPaymentFailed:
		if ev.OrderID == "" {
			result.Ignored = true
			break
		}
		_, procErr = s.Fail(ctx, ev.OrderID, ev.FailureReason)
	case gateway.EventSubscriptionCharged:
		_, procErr = s.SettleSubscriptionCharge(ctx, ev.SubscriptionID, ev.PaymentID, ev.Amount, ev.SubscriptionEnd)
	case gateway.EventSubscriptionActivated, gateway.EventSubscriptionResumed:
		procErr = s.syncSubscriptionStatus(ctx, ev.SubscriptionID, models.SubscriptionStatusActive)
	case gateway.EventSubscriptionPaused:
		procErr = s.syncSubscriptionStatus(ctx, ev.SubscriptionID, models.SubscriptionStatusPaused)
	case gateway.EventSubscriptionCancelled:
		procErr = s.syncSubscriptionStatus(ctx, ev.SubscriptionID, models.SubscriptionStatusCancelled)
	case gateway.EventSubscriptionCompleted:
		procErr = s.syncSubscriptionStatus(ctx, ev.SubscriptionID, models.SubscriptionStatusExpired)
	default:
		result.Ignored = true
	}
	return result, procErr
}

func (s *Service) markProcessed(id uint, procErr error) {
	msg := ""
	if procErr != nil {
		msg = procErr.Error()
	}
	if err := s.repo.MarkWebhookProcessed(id, msg); err != nil {
		log.Warnf("[Ledger] mark webhook %d processed: %v", id, err)
	}
}

// SettleSubscriptionCharge turns a recurring charge into a payment row and
// settles it through the same latch as one-off payments, so a redelivered
// charge credits the campaign once.
func (s *Service) SettleSubscriptionCharge(ctx context.Context, gatewaySubscriptionID, gatewayPaymentID string, amount int64, periodEnd *time.Time) (*Settlement, error) {
	sub, err := s.repo.Subscriptions().GetByGatewayID(gatewaySubscriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("subscription not found")
		}
		return nil, err
	}
	if amount <= 0 {
		amount = sub.Amount
	}

	supporterID := sub.SupporterID
	orderID := SubscriptionChargeOrderID(sub.ID, gatewayPaymentID)
	if _, err := s.repo.CreatePaymentIfNotExists(&models.Payment{
		CampaignID:     sub.CampaignID,
		PayerID:        &supporterID,
		Amount:         amount,
		Currency:       sub.Currency,
		Status:         models.PaymentStatusPending,
		GatewayOrderID: orderID,
		SubscriptionID: &sub.ID,
	}); err != nil {
		return nil, fmt.Errorf("record subscription charge: %w", err)
	}

	settlement, err := s.Settle(ctx, orderID, gatewayPaymentID)
	if err != nil {
		return nil, err
	}
	if !settlement.AlreadySettled {
		if err := s.repo.Subscriptions().IncrementChargeCount(sub.ID, periodEnd); err != nil {
			log.Warnf("[Ledger] charge count for subscription %d not updated: %v", sub.ID, err)
		}
	}
	return settlement, nil
}

// SubscriptionChargeOrderID is the idempotency key of a recurring charge.
func SubscriptionChargeOrderID(subscriptionID uint, gatewayPaymentID string) string {
	return fmt.Sprintf("sub_%d_%s", subscriptionID, gatewayPaymentID)
}

// syncSubscriptionStatus applies a gateway-reported status. Moves the local
// transition table forbids are ignored, which makes redelivery harmless.
func (s *Service) syncSubscriptionStatus(ctx context.Context, gatewaySubscriptionID, status string) error {
	sub, err := s.repo.Subscriptions().GetByGatewayID(gatewaySubscriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("[Ledger] webhook for unknown subscription %s", gatewaySubscriptionID)
			return nil
		}
		return err
	}
	if sub.Status == status || !models.CanTransitionSubscription(sub.Status, status) {
		return nil
	}
	changed, err := s.repo.Subscriptions().TransitionStatus(sub.ID, []string{sub.Status}, status)
	if err != nil || !changed {
		return err
	}
	sub.Status = status
	if s.notifier != nil {
		if err := s.notifier.SubscriptionChanged(ctx, sub); err != nil {
			log.Warnf("[Ledger] subscription notification failed: %v", err)
		}
	}
	return nil
}
