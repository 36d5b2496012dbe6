package gateway

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const (
	EventPaymentCaptured       = "payment.captured"
	EventPaymentFailed         = "payment.failed"
	EventSubscriptionCharged   = "subscription.charged"
	EventSubscriptionActivated = "subscription.activated"
	EventSubscriptionPaused    = "subscription.paused"
	EventSubscriptionResumed   = "subscription.resumed"
	EventSubscriptionCancelled = "subscription.cancelled"
	EventSubscriptionCompleted = "subscription.completed"
)

// WebhookEvent is the flattened view of a gateway webhook delivery.
type WebhookEvent struct {
	Event     string
	CreatedAt time.Time

	PaymentID     string
	OrderID       string
	Amount        int64
	Currency      string
	FailureReason string

	SubscriptionID  string
	SubscriptionEnd *time.Time
}

func ParseWebhookEvent(payload []byte) (*WebhookEvent, error) {
	type rawPayload struct {
		Event     string `json:"event"`
		CreatedAt int64  `json:"created_at"`
		Payload   struct {
			Payment struct {
				Entity struct {
					ID               string `json:"id"`
					OrderID          string `json:"order_id"`
					Amount           int64  `json:"amount"`
					Currency         string `json:"currency"`
					ErrorDescription string `json:"error_description"`
				} `json:"entity"`
			} `json:"payment"`
			Subscription struct {
				Entity struct {
					ID         string `json:"id"`
					CurrentEnd int64  `json:"current_end"`
				} `json:"entity"`
			} `json:"subscription"`
		} `json:"payload"`
	}

	var raw rawPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}
	event := strings.TrimSpace(raw.Event)
	if event == "" {
		return nil, errors.New("gateway webhook payload missing event")
	}

	out := &WebhookEvent{
		Event:          event,
		PaymentID:      strings.TrimSpace(raw.Payload.Payment.Entity.ID),
		OrderID:        strings.TrimSpace(raw.Payload.Payment.Entity.OrderID),
		Amount:         raw.Payload.Payment.Entity.Amount,
		Currency:       strings.ToUpper(strings.TrimSpace(raw.Payload.Payment.Entity.Currency)),
		FailureReason:  strings.TrimSpace(raw.Payload.Payment.Entity.ErrorDescription),
		SubscriptionID: strings.TrimSpace(raw.Payload.Subscription.Entity.ID),
	}
	if raw.CreatedAt > 0 {
		out.CreatedAt = time.Unix(raw.CreatedAt, 0).UTC()
	}
	if raw.Payload.Subscription.Entity.CurrentEnd > 0 {
		end := time.Unix(raw.Payload.Subscription.Entity.CurrentEnd, 0).UTC()
		out.SubscriptionEnd = &end
	}

	switch {
	case strings.HasPrefix(event, "payment."):
		if out.PaymentID == "" {
			return nil, errors.New("gateway webhook payload missing payment id")
		}
	case event == EventSubscriptionCharged:
		if out.SubscriptionID == "" || out.PaymentID == "" {
			return nil, errors.New("subscription charge missing subscription or payment id")
		}
	case strings.HasPrefix(event, "subscription."):
		if out.SubscriptionID == "" {
			return nil, errors.New("gateway webhook payload missing subscription id")
		}
	}
	return out, nil
}
