package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusPaused    = "paused"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusExpired   = "expired"
)

const (
	SubscriptionIntervalMonthly = "monthly"
	SubscriptionIntervalYearly  = "yearly"
)

var subscriptionTransitions = map[string][]string{
	SubscriptionStatusActive: {SubscriptionStatusPaused, SubscriptionStatusCancelled, SubscriptionStatusExpired},
	SubscriptionStatusPaused: {SubscriptionStatusActive, SubscriptionStatusCancelled, SubscriptionStatusExpired},
}

// Subscription is a recurring contribution intent. It never touches campaign
// totals itself; each realized charge becomes a Payment and settles normally.
type Subscription struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	UUID                  string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	CampaignID            uint       `gorm:"not null;index" json:"campaign_id"`
	Campaign              *Campaign  `gorm:"foreignKey:CampaignID" json:"campaign,omitempty"`
	CreatorID             uint       `gorm:"not null;index" json:"creator_id"`
	SupporterID           uint       `gorm:"not null;index" json:"supporter_id"`
	GatewaySubscriptionID string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"gateway_subscription_id"`
	GatewayPlanID         string     `gorm:"type:varchar(64)" json:"gateway_plan_id"`
	Amount                int64      `gorm:"not null" json:"amount"`
	Currency              string     `gorm:"type:varchar(3);not null" json:"currency"`
	Interval              string     `gorm:"type:varchar(16);not null;default:'monthly'" json:"interval"`
	Status                string     `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	ChargeCount           int        `gorm:"not null;default:0" json:"charge_count"`
	CurrentPeriodEnd      *time.Time `json:"current_period_end,omitempty"`
	CancelledAt           *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt             time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == "" {
		s.UUID = uuid.New().String()
	}
	if s.Status == "" {
		s.Status = SubscriptionStatusActive
	}
	return nil
}

// CanTransitionSubscription reports whether a subscription may move between statuses.
func CanTransitionSubscription(from, to string) bool {
	for _, s := range subscriptionTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s *Subscription) IsTerminal() bool {
	return s.Status == SubscriptionStatusCancelled || s.Status == SubscriptionStatusExpired
}
