package models

import (
	"time"

	"gorm.io/gorm"
)

// CampaignUpdate is a creator post on a campaign. A future PublishAt schedules
// it; the publish-updates cron flips Published once that time has passed.
type CampaignUpdate struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CampaignID  uint           `gorm:"index" json:"campaign_id"`
	AuthorID    uint           `gorm:"index" json:"author_id"`
	Author      *User          `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Title       string         `gorm:"type:varchar(255)" json:"title" validate:"required,min=3,max=255"`
	Content     string         `gorm:"type:text" json:"content" validate:"required"`
	Published   bool           `gorm:"default:false;index:idx_campaign_updates_schedule,priority:1" json:"published"`
	PublishAt   *time.Time     `gorm:"index:idx_campaign_updates_schedule,priority:2" json:"publish_at,omitempty"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
