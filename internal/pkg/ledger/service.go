package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fundfox/fundfox/app/models"
	"github.com/fundfox/fundfox/internal/pkg/apperror"
	"github.com/fundfox/fundfox/internal/pkg/gateway"
)

// Service owns the payment ledger: checkout, settlement, failure marking,
// webhooks, subscription charges and reconciliation.
type Service struct {
	repo          Repository
	gw            Gateway
	keyID         string
	keySecret     string
	webhookSecret string
	notifier      Notifier
	now           func() time.Time
}

// NewService creates a ledger service from an injected repository and gateway.
func NewService(repo Repository, gw Gateway, keyID, keySecret, webhookSecret string, notifier Notifier) *Service {
	return &Service{
		repo:          repo,
		gw:            gw,
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		notifier:      notifier,
		now:           time.Now,
	}
}

// NewServiceFromDB wires the service to GORM and the gateway client.
func NewServiceFromDB(db *gorm.DB, client *gateway.Client, notifier Notifier) *Service {
	return NewService(NewRepository(db), client, client.KeyID, client.KeySecret, client.WebhookSecret, notifier)
}

// StartCheckout creates a gateway order and the pending payment bound to it.
func (s *Service) StartCheckout(ctx context.Context, in CheckoutInput) (*Checkout, error) {
	if in.Amount <= 0 {
		return nil, apperror.Validation("amount must be positive")
	}
	campaign, err := s.repo.GetCampaign(in.CampaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("campaign not found")
		}
		return nil, err
	}
	if !campaign.AcceptsPayments(s.now()) {
		return nil, ErrNotAccepting
	}

	if in.RewardTierID != nil {
		tier, err := s.repo.GetRewardTier(*in.RewardTierID)
		if err != nil || tier.CampaignID != campaign.ID {
			return nil, apperror.Validation("unknown reward tier")
		}
		if !tier.Qualifies(in.Amount) {
			return nil, apperror.Validation("amount does not qualify for the selected reward tier")
		}
	}

	receipt := uuid.New().String()
	order, err := s.gw.CreateOrder(ctx, in.Amount, campaign.Currency, receipt, map[string]string{
		"campaign_uuid": campaign.UUID,
	})
	if err != nil {
		log.Errorf("[Ledger] create order for campaign %d failed: %v", campaign.ID, err)
		return nil, apperror.Upstream("payment gateway unavailable", err)
	}

	payment := &models.Payment{
		UUID:           receipt,
		CampaignID:     campaign.ID,
		PayerID:        in.PayerID,
		Anonymous:      in.Anonymous,
		Amount:         in.Amount,
		Currency:       campaign.Currency,
		Status:         models.PaymentStatusPending,
		GatewayOrderID: order.ID,
		RewardTierID:   in.RewardTierID,
		Message:        strings.TrimSpace(in.Message),
	}
	if err := s.repo.CreatePayment(payment); err != nil {
		return nil, fmt.Errorf("store pending payment: %w", err)
	}

	log.Infof("[Ledger] checkout started payment=%s order=%s campaign=%d amount=%d", payment.UUID, order.ID, campaign.ID, payment.Amount)
	return &Checkout{Payment: payment, OrderID: order.ID, KeyID: s.keyID}, nil
}

// Confirm verifies the checkout signature and settles the payment. A
// mismatched signature changes nothing.
func (s *Service) Confirm(ctx context.Context, c Confirmation) (*Settlement, error) {
	if !gateway.VerifyPaymentSignature(s.keySecret, c.OrderID, c.PaymentID, c.Signature) {
		log.Warnf("[Ledger] signature mismatch for order=%s", c.OrderID)
		return nil, ErrInvalidSignature
	}
	return s.Settle(ctx, c.OrderID, c.PaymentID)
}

// Settle credits a payment the gateway has authenticated, including one the
// client marked failed before the capture arrived. Repeated calls for the
// same order report success without crediting again.
func (s *Service) Settle(ctx context.Context, orderID, gatewayPaymentID string) (*Settlement, error) {
	latch, err := s.repo.SettlePending(orderID, gatewayPaymentID, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("settle order %s: %w", orderID, err)
	}

	p := latch.Payment
	if !latch.Won {
		if p.IsSettled() {
			log.Debugf("[Ledger] order=%s already settled", orderID)
			return &Settlement{Payment: p, AlreadySettled: true}, nil
		}
		return nil, ErrNotSettleable
	}

	log.Infof("[Ledger] settled payment=%s order=%s campaign=%d amount=%d", p.UUID, orderID, p.CampaignID, p.Amount)
	s.afterSettle(ctx, latch)
	return &Settlement{Payment: p}, nil
}

// afterSettle runs the best-effort side effects. Each failure is logged and
// left for reconciliation; none of them undo the credit.
func (s *Service) afterSettle(ctx context.Context, latch *Latch) {
	p := latch.Payment

	campaign, err := s.repo.GetCampaign(p.CampaignID)
	if err != nil {
		log.Errorf("[Ledger] load campaign %d after settlement: %v", p.CampaignID, err)
		return
	}

	if err := s.repo.CreditCreator(campaign.CreatorID, p.Amount, latch.NewSupporter); err != nil {
		log.Errorf("[Ledger] creator aggregates for user %d not updated (payment=%s): %v", campaign.CreatorID, p.UUID, err)
	}

	if p.RewardTierID != nil {
		if err := s.repo.ClaimRewardTier(*p.RewardTierID); err != nil {
			log.Errorf("[Ledger] reward tier %d claim not recorded (payment=%s): %v", *p.RewardTierID, p.UUID, err)
		}
	}

	if s.notifier != nil {
		if err := s.notifier.PaymentReceived(ctx, campaign, p); err != nil {
			log.Warnf("[Ledger] payment notification for campaign %d failed: %v", campaign.ID, err)
		}
	}
}

// Payment looks up a payment by its gateway order id.
func (s *Service) Payment(orderID string) (*models.Payment, error) {
	p, err := s.repo.GetPaymentByOrderID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return p, nil
}

// maxFailureReason is the width of payments.failure_reason in characters.
const maxFailureReason = 255

// Fail marks a pending payment as failed. Settled payments are untouched.
func (s *Service) Fail(ctx context.Context, orderID, reason string) (bool, error) {
	_ = ctx
	reason = truncateRunes(reason, maxFailureReason)
	changed, err := s.repo.FailPending(orderID, reason)
	if err != nil {
		return false, err
	}
	if changed {
		log.Infof("[Ledger] order=%s marked failed: %s", orderID, reason)
	}
	return changed, nil
}

// truncateRunes cuts s to at most n characters without splitting a rune.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
