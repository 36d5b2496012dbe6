package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/fundfox/fundfox/app/models"
)

type updateRepository struct {
	db *gorm.DB
}

func NewUpdateRepository(db *gorm.DB) UpdateRepository {
	return &updateRepository{db: db}
}

// Create publishes the update immediately unless PublishAt lies in the future.
func (r *updateRepository) Create(update *models.CampaignUpdate) error {
	now := time.Now()
	if update.PublishAt == nil || !update.PublishAt.After(now) {
		update.Published = true
		update.PublishedAt = &now
	}
	return r.db.Create(update).Error
}

func (r *updateRepository) ListPublished(campaignID uint, offset, limit int) ([]models.CampaignUpdate, error) {
	var updates []models.CampaignUpdate
	err := r.db.Preload("Author").
		Where("campaign_id = ? AND published = ?", campaignID, true).
		Order("published_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).Find(&updates).Error
	return updates, err
}

// PublishDue flips every scheduled update whose time has come in one statement.
func (r *updateRepository) PublishDue(now time.Time) (int64, error) {
	res := r.db.Model(&models.CampaignUpdate{}).
		Where("published = ? AND publish_at IS NOT NULL AND publish_at <= ?", false, now).
		UpdateColumns(map[string]interface{}{"published": true, "published_at": now, "updated_at": now})
	return res.RowsAffected, res.Error
}
