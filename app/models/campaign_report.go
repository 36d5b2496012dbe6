package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ReportStatusOpen      = "open"
	ReportStatusResolved  = "resolved"
	ReportStatusDismissed = "dismissed"
)

// CampaignReport is a user complaint about a campaign. A signed-in reporter
// may report each campaign once; the unique index enforces it.
type CampaignReport struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CampaignID   uint           `gorm:"not null;uniqueIndex:ux_campaign_reports_reporter,priority:1" json:"campaign_id"`
	Campaign     *Campaign      `gorm:"foreignKey:CampaignID" json:"campaign,omitempty"`
	ReporterID   *uint          `gorm:"uniqueIndex:ux_campaign_reports_reporter,priority:2" json:"reporter_id,omitempty"`
	Reporter     *User          `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
	Reason       string         `gorm:"type:varchar(50);not null" json:"reason" validate:"required,oneof=spam scam inappropriate prohibited other"`
	Details      string         `gorm:"type:text" json:"details" validate:"max=2000"`
	Status       string         `gorm:"type:varchar(20);default:'open';index" json:"status"`
	ReporterIPv4 string         `gorm:"type:varchar(15)" json:"-"`
	ReporterIPv6 string         `gorm:"type:varchar(45)" json:"-"`
	ResolvedByID *uint          `gorm:"index" json:"resolved_by_id,omitempty"`
	ResolvedAt   *time.Time     `json:"resolved_at,omitempty"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
