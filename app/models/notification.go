package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	NotificationPaymentReceived   = "payment_received"
	NotificationCampaignFlagged   = "campaign_flagged"
	NotificationCampaignRejected  = "campaign_rejected"
	NotificationCampaignCompleted = "campaign_completed"
	NotificationSubscription      = "subscription"
	NotificationComment           = "comment"
	NotificationWeeklySummary     = "weekly_summary"
	NotificationSystem            = "system"
)

// Notification is a derived read record; it is never authoritative state.
type Notification struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"index:idx_notifications_user_read,priority:1" json:"user_id"`
	Type        string         `gorm:"type:varchar(50)" json:"type" validate:"oneof=payment_received campaign_flagged campaign_rejected campaign_completed subscription comment weekly_summary system"`
	Title       string         `gorm:"type:varchar(200)" json:"title"`
	Content     string         `gorm:"type:text" json:"content"`
	IsRead      bool           `gorm:"default:false;index:idx_notifications_user_read,priority:2" json:"is_read"`
	ReferenceID uint           `json:"reference_id"` // campaign or payment the notification points to
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// MarkAsRead flags the notification as read.
func (n *Notification) MarkAsRead(db *gorm.DB) error {
	n.IsRead = true
	return db.Model(n).Update("is_read", true).Error
}

// CreateNotification inserts a new unread notification.
func CreateNotification(db *gorm.DB, userID uint, notificationType, title, content string, referenceID uint) error {
	notification := Notification{
		UserID:      userID,
		Type:        notificationType,
		Title:       title,
		Content:     content,
		ReferenceID: referenceID,
		IsRead:      false,
	}

	return db.Create(&notification).Error
}
