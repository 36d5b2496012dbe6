package models

import "time"

// RewardTier is a perk offered for contributions of at least MinAmount.
// LimitCount of zero means unlimited.
type RewardTier struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CampaignID   uint      `gorm:"not null;index" json:"campaign_id"`
	Title        string    `gorm:"type:varchar(120);not null" json:"title" validate:"required,min=3,max=120"`
	Description  string    `gorm:"type:text" json:"description" validate:"max=2000"`
	MinAmount    int64     `gorm:"not null" json:"min_amount" validate:"gt=0"`
	LimitCount   int64     `gorm:"not null;default:0" json:"limit_count" validate:"gte=0"`
	ClaimedCount int64     `gorm:"not null;default:0" json:"claimed_count"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Available reports whether another supporter may claim the tier.
func (t *RewardTier) Available() bool {
	return t.LimitCount == 0 || t.ClaimedCount < t.LimitCount
}

// Qualifies reports whether a contribution of amount earns this tier.
func (t *RewardTier) Qualifies(amount int64) bool {
	return amount >= t.MinAmount && t.Available()
}
