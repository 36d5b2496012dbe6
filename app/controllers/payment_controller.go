package controllers

import (
	"crypto/subtle"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/fundfox/fundfox/app/models"
	"github.com/fundfox/fundfox/internal/pkg/apperror"
	"github.com/fundfox/fundfox/internal/pkg/ledger"
	"github.com/fundfox/fundfox/internal/pkg/money"
)

const (
	webhookSignatureHeader = "X-Gateway-Signature"
	webhookEventIDHeader   = "X-Gateway-Event-Id"
)

type PaymentController struct {
	s *Services
}

func NewPaymentController(s *Services) *PaymentController {
	return &PaymentController{s: s}
}

type checkoutRequest struct {
	Amount       int64  `json:"amount" validate:"gt=0"`
	Anonymous    bool   `json:"anonymous"`
	RewardTierID *uint  `json:"reward_tier_id"`
	Message      string `json:"message" validate:"max=500"`
}

type failRequest struct {
	OrderID     string `json:"order_id" validate:"required"`
	PaymentUUID string `json:"payment_uuid"`
	Reason      string `json:"reason" validate:"max=255"`
}

// HandleCheckout creates a gateway order and a pending payment. Guests may
// contribute; their payments are always anonymous.
func (pc *PaymentController) HandleCheckout(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req checkoutRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	in := ledger.CheckoutInput{
		CampaignID:   id,
		Anonymous:    req.Anonymous,
		Amount:       req.Amount,
		RewardTierID: req.RewardTierID,
		Message:      req.Message,
	}
	if u := currentUser(c); u.IsLoggedIn {
		payer := u.UserID
		in.PayerID = &payer
	} else {
		in.Anonymous = true
	}

	checkout, err := pc.s.Ledger.StartCheckout(c.UserContext(), in)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusCreated, fiber.Map{
		"payment_uuid":   checkout.Payment.UUID,
		"order_id":       checkout.OrderID,
		"key_id":         checkout.KeyID,
		"amount":         checkout.Payment.Amount,
		"currency":       checkout.Payment.Currency,
		"amount_display": money.Format(checkout.Payment.Amount, checkout.Payment.Currency),
	})
}

// HandleConfirm settles a payment from the signed checkout callback.
func (pc *PaymentController) HandleConfirm(c *fiber.Ctx) error {
	var req ledger.Confirmation
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	settlement, err := pc.s.Ledger.Confirm(c.UserContext(), req)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{
		"payment":         settlement.Payment,
		"already_settled": settlement.AlreadySettled,
	})
}

// HandleFail records a checkout the payer abandoned or the gateway declined.
// A named payment may only be failed by its payer; a guest payment needs the
// payment_uuid handed out at checkout. Settled payments are never touched,
// and a later signed capture still settles a failed payment.
func (pc *PaymentController) HandleFail(c *fiber.Ctx) error {
	var req failRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	payment, err := pc.s.Ledger.Payment(req.OrderID)
	if err != nil {
		return err
	}
	u := currentUser(c)
	switch {
	case u.IsAdmin:
	case payment.PayerID != nil:
		if !u.IsLoggedIn || *payment.PayerID != u.UserID {
			return apperror.Forbidden("not your payment")
		}
	case req.PaymentUUID == "" ||
		subtle.ConstantTimeCompare([]byte(req.PaymentUUID), []byte(payment.UUID)) != 1:
		return apperror.Forbidden("not your payment")
	}
	reason := req.Reason
	if reason == "" {
		reason = "checkout_abandoned"
	}
	changed, err := pc.s.Ledger.Fail(c.UserContext(), req.OrderID, reason)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"failed": changed})
}

// HandleWebhook ingests a gateway webhook. The raw body is what the
// signature covers, so it is never re-encoded.
func (pc *PaymentController) HandleWebhook(c *fiber.Ctx) error {
	body := append([]byte(nil), c.Body()...)
	res, err := pc.s.Ledger.HandleWebhook(c.UserContext(), ledger.WebhookDelivery{
		EventID:   c.Get(webhookEventIDHeader),
		Signature: c.Get(webhookSignatureHeader),
		Payload:   body,
	})
	if err != nil {
		if apperror.KindOf(err) == apperror.KindInternal {
			log.Errorf("[Webhook] processing failed: %v", err)
		}
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":   true,
		"event":     res.Event,
		"duplicate": res.Duplicate,
		"ignored":   res.Ignored,
	})
}

// supporterView hides the payer of anonymous contributions.
type supporterView struct {
	PayerID   *uint  `json:"payer_id,omitempty"`
	Anonymous bool   `json:"anonymous"`
	Amount    int64  `json:"amount"`
	Display   string `json:"amount_display"`
	Message   string `json:"message,omitempty"`
	SettledAt string `json:"settled_at,omitempty"`
}

// HandleListSupporters lists successful contributions to a campaign.
func (pc *PaymentController) HandleListSupporters(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	campaign, err := pc.s.Repos.Campaign.GetByID(id)
	if err != nil {
		return err
	}
	if !campaign.IsPubliclyListed() {
		return apperror.NotFound("campaign not found")
	}
	offset, limit := page(c)
	payments, err := pc.s.Repos.Payment.ListSuccessfulByCampaign(id, offset, limit)
	if err != nil {
		return err
	}
	out := make([]supporterView, 0, len(payments))
	for _, p := range payments {
		v := supporterView{
			Anonymous: p.Anonymous,
			Amount:    p.Amount,
			Display:   money.Format(p.Amount, p.Currency),
			Message:   p.Message,
		}
		if !p.Anonymous {
			v.PayerID = p.PayerID
		}
		if p.SettledAt != nil {
			v.SettledAt = p.SettledAt.UTC().Format(time.RFC3339)
		}
		out = append(out, v)
	}
	return ok(c, fiber.StatusOK, out)
}

// HandleMyPayments lists the caller's contributions in every status.
func (pc *PaymentController) HandleMyPayments(c *fiber.Ctx) error {
	offset, limit := page(c)
	payments, err := pc.s.Repos.Payment.ListByPayer(currentUser(c).UserID, offset, limit)
	if err != nil {
		return err
	}
	if payments == nil {
		payments = []models.Payment{}
	}
	return ok(c, fiber.StatusOK, payments)
}
