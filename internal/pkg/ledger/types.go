package ledger

import (
	"context"

	"github.com/fundfox/fundfox/app/models"
	"github.com/fundfox/fundfox/internal/pkg/apperror"
	"github.com/fundfox/fundfox/internal/pkg/gateway"
)

var (
	ErrInvalidSignature = apperror.Validation("invalid payment signature")
	ErrPaymentNotFound  = apperror.NotFound("payment not found")
	ErrNotSettleable    = apperror.Conflict("payment can no longer be settled")
	ErrNotAccepting     = apperror.Validation("campaign is not accepting contributions")
)

// Gateway is the subset of the payment gateway client the ledger calls.
type Gateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*gateway.Order, error)
	CreateSubscription(ctx context.Context, req gateway.SubscriptionRequest) (*gateway.Subscription, error)
	PauseSubscription(ctx context.Context, id string) error
	ResumeSubscription(ctx context.Context, id string) error
	CancelSubscription(ctx context.Context, id string) error
}

// Notifier receives settlement side effects. Implementations must not block
// for long and their failures never affect the ledger.
type Notifier interface {
	PaymentReceived(ctx context.Context, campaign *models.Campaign, payment *models.Payment) error
	SubscriptionChanged(ctx context.Context, sub *models.Subscription) error
}

type CheckoutInput struct {
	CampaignID   uint
	PayerID      *uint
	Anonymous    bool
	Amount       int64
	RewardTierID *uint
	Message      string
}

type Checkout struct {
	Payment *models.Payment
	OrderID string
	KeyID   string
}

// Confirmation is what the browser posts back after the gateway checkout.
type Confirmation struct {
	OrderID   string `json:"order_id" validate:"required"`
	PaymentID string `json:"payment_id" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

type Settlement struct {
	Payment        *models.Payment
	AlreadySettled bool
}

// WebhookDelivery is one inbound gateway webhook request.
type WebhookDelivery struct {
	EventID   string
	Signature string
	Payload   []byte
}

type WebhookResult struct {
	Duplicate bool
	Ignored   bool
	Event     string
}

type SubscribeInput struct {
	CampaignID  uint
	SupporterID uint
	Amount      int64
	Interval    string
}

// Drift describes a campaign whose counters disagreed with its payments.
type Drift struct {
	CampaignID       uint  `json:"campaign_id"`
	StoredAmount     int64 `json:"stored_amount"`
	ActualAmount     int64 `json:"actual_amount"`
	StoredSupporters int64 `json:"stored_supporters"`
	ActualSupporters int64 `json:"actual_supporters"`
	Corrected        bool  `json:"corrected"`
}
