package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	CampaignStatusDraft     = "draft"
	CampaignStatusActive    = "active"
	CampaignStatusPaused    = "paused"
	CampaignStatusCompleted = "completed"
	CampaignStatusRejected  = "rejected"
	CampaignStatusDeleted   = "deleted"
)

// campaignTransitions lists the allowed status moves. Everything is
// one-directional except active<->paused.
var campaignTransitions = map[string][]string{
	CampaignStatusDraft:     {CampaignStatusActive, CampaignStatusRejected, CampaignStatusDeleted},
	CampaignStatusActive:    {CampaignStatusPaused, CampaignStatusCompleted, CampaignStatusRejected, CampaignStatusDeleted},
	CampaignStatusPaused:    {CampaignStatusActive, CampaignStatusCompleted, CampaignStatusDeleted},
	CampaignStatusCompleted: {CampaignStatusDeleted},
	CampaignStatusRejected:  {CampaignStatusDeleted},
}

// Campaign is a fundraising project. Amounts are stored in minor currency
// units (paise, cents). CurrentAmount and SupporterCount are denormalized from
// successful payments and only move through atomic increments.
type Campaign struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	UUID                 string         `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	CreatorID            uint           `gorm:"index;not null" json:"creator_id"`
	Creator              *User          `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Title                string         `gorm:"type:varchar(200);not null" json:"title" validate:"required,min=5,max=200"`
	ShareSlug            string         `gorm:"type:varchar(16);uniqueIndex" json:"share_slug"`
	Summary              string         `gorm:"type:varchar(500)" json:"summary" validate:"max=500"`
	Story                string         `gorm:"type:text" json:"story" validate:"required,min=20"`
	Category             string         `gorm:"type:varchar(50);index" json:"category" validate:"max=50"`
	CoverImageKey        string         `gorm:"type:varchar(255)" json:"cover_image_key"`
	GoalAmount           int64          `gorm:"not null" json:"goal_amount" validate:"gt=0"`
	CurrentAmount        int64          `gorm:"not null;default:0" json:"current_amount"`
	Currency             string         `gorm:"type:varchar(3);not null;default:'INR'" json:"currency" validate:"len=3"`
	Status               string         `gorm:"type:varchar(20);not null;default:'draft';index:idx_campaigns_status_end,priority:1" json:"status"`
	EndDate              time.Time      `gorm:"not null;index:idx_campaigns_status_end,priority:2" json:"end_date"`
	ViewCount            int64          `gorm:"not null;default:0" json:"view_count"`
	SupporterCount       int64          `gorm:"not null;default:0" json:"supporter_count"`
	CommentCount         int64          `gorm:"not null;default:0" json:"comment_count"`
	ShareCount           int64          `gorm:"not null;default:0" json:"share_count"`
	ModerationScore      int            `gorm:"not null;default:0" json:"moderation_score"`
	ModerationCategories datatypes.JSON `json:"moderation_categories,omitempty"`
	FlaggedForReview     bool           `gorm:"not null;default:false;index" json:"flagged_for_review"`
	ReviewedAt           *time.Time     `json:"reviewed_at,omitempty"`
	Featured             bool           `gorm:"not null;default:false" json:"featured"`
	PublishedAt          *time.Time     `json:"published_at,omitempty"`
	CreatedAt            time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"autoUpdateTime" json:"updated_at"`

	RewardTiers []RewardTier `gorm:"foreignKey:CampaignID" json:"reward_tiers,omitempty"`
}

// BeforeCreate assigns the public UUID.
func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == "" {
		c.UUID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = CampaignStatusDraft
	}
	return nil
}

func (c *Campaign) Validate() error {
	return validator.New().Struct(c)
}

// CanTransition reports whether a campaign may move from one status to another.
func CanTransition(from, to string) bool {
	for _, s := range campaignTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsExpired reports whether the end date has passed at now.
func (c *Campaign) IsExpired(now time.Time) bool {
	return c.EndDate.Before(now)
}

// IsPubliclyListed reports whether the campaign may appear on discovery surfaces.
// Rejected, draft and deleted campaigns never do.
func (c *Campaign) IsPubliclyListed() bool {
	switch c.Status {
	case CampaignStatusActive, CampaignStatusPaused, CampaignStatusCompleted:
		return true
	}
	return false
}

// AcceptsPayments reports whether new contributions may be started.
func (c *Campaign) AcceptsPayments(now time.Time) bool {
	return c.Status == CampaignStatusActive && !c.IsExpired(now)
}

// ProgressPercent returns the funded share of the goal, capped at 100.
func (c *Campaign) ProgressPercent() int {
	if c.GoalAmount <= 0 {
		return 0
	}
	p := int(c.CurrentAmount * 100 / c.GoalAmount)
	if p > 100 {
		return 100
	}
	return p
}

// PublicCampaignStatuses are shown on listing endpoints.
func PublicCampaignStatuses() []string {
	return []string{CampaignStatusActive, CampaignStatusPaused, CampaignStatusCompleted}
}
