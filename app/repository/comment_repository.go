package repository

import (
	"gorm.io/gorm"

	"github.com/fundfox/fundfox/app/models"
)

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create stores the comment and bumps the campaign's comment counter in the
// same transaction.
func (r *commentRepository) Create(comment *models.CampaignComment) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Campaign{}).Where("id = ?", comment.CampaignID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + ?", 1)).Error
	})
}

func (r *commentRepository) ListByCampaign(campaignID uint, offset, limit int) ([]models.CampaignComment, error) {
	var comments []models.CampaignComment
	err := r.db.Preload("User").Where("campaign_id = ?", campaignID).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).Find(&comments).Error
	return comments, err
}
