package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PaymentStatusPending = "pending"
	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"
)

// Payment is a single contribution. GatewayOrderID is the idempotency key:
// one order settles at most once, guarded by the status column.
type Payment struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UUID             string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	CampaignID       uint       `gorm:"not null;index:idx_payments_campaign_status,priority:1" json:"campaign_id"`
	Campaign         *Campaign  `gorm:"foreignKey:CampaignID" json:"campaign,omitempty"`
	PayerID          *uint      `gorm:"index" json:"payer_id,omitempty"`
	Payer            *User      `gorm:"foreignKey:PayerID" json:"-"`
	Anonymous        bool       `gorm:"not null;default:false" json:"anonymous"`
	Amount           int64      `gorm:"not null" json:"amount"`
	Currency         string     `gorm:"type:varchar(3);not null" json:"currency"`
	Status           string     `gorm:"type:varchar(20);not null;default:'pending';index:idx_payments_campaign_status,priority:2" json:"status"`
	GatewayOrderID   string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"gateway_order_id"`
	GatewayPaymentID string     `gorm:"type:varchar(64);index" json:"gateway_payment_id,omitempty"`
	SubscriptionID   *uint      `gorm:"index" json:"subscription_id,omitempty"`
	RewardTierID     *uint      `gorm:"index" json:"reward_tier_id,omitempty"`
	Message          string     `gorm:"type:varchar(500)" json:"message,omitempty"`
	FailureReason    string     `gorm:"type:varchar(255)" json:"failure_reason,omitempty"`
	SettledAt        *time.Time `json:"settled_at,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == "" {
		p.UUID = uuid.New().String()
	}
	if p.Status == "" {
		p.Status = PaymentStatusPending
	}
	return nil
}

func (p *Payment) IsSettled() bool {
	return p.Status == PaymentStatusSuccess
}

// SupporterKey identifies a supporter for distinct counting. Anonymous and
// guest payments count individually.
func (p *Payment) SupporterKey() string {
	if p.PayerID == nil || p.Anonymous {
		return "payment:" + p.UUID
	}
	return "user:" + uintToString(*p.PayerID)
}

// CampaignSupporter marks the first settled contribution of each supporter
// to a campaign, keyed by Payment.SupporterKey.
type CampaignSupporter struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CampaignID   uint      `gorm:"not null;uniqueIndex:ux_campaign_supporters_key,priority:1" json:"campaign_id"`
	SupporterKey string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_campaign_supporters_key,priority:2" json:"supporter_key"`
	PaymentID    uint      `gorm:"not null" json:"payment_id"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}
