package repository

import (
	"gorm.io/gorm"

	"github.com/fundfox/fundfox/app/models"
)

type rewardTierRepository struct {
	db *gorm.DB
}

func NewRewardTierRepository(db *gorm.DB) RewardTierRepository {
	return &rewardTierRepository{db: db}
}

func (r *rewardTierRepository) Create(tier *models.RewardTier) error {
	return r.db.Create(tier).Error
}

func (r *rewardTierRepository) GetByID(id uint) (*models.RewardTier, error) {
	var t models.RewardTier
	if err := r.db.First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *rewardTierRepository) ListByCampaign(campaignID uint) ([]models.RewardTier, error) {
	var tiers []models.RewardTier
	err := r.db.Where("campaign_id = ?", campaignID).Order("min_amount ASC").Order("id ASC").Find(&tiers).Error
	return tiers, err
}
