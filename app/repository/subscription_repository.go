package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/fundfox/fundfox/app/models"
)

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Create(sub *models.Subscription) error {
	return r.db.Create(sub).Error
}

func (r *subscriptionRepository) GetByUUID(uuid string) (*models.Subscription, error) {
	var s models.Subscription
	if err := r.db.Preload("Campaign").Where("uuid = ?", uuid).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *subscriptionRepository) GetByGatewayID(gatewaySubscriptionID string) (*models.Subscription, error) {
	var s models.Subscription
	if err := r.db.Where("gateway_subscription_id = ?", gatewaySubscriptionID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *subscriptionRepository) ListBySupporter(supporterID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Preload("Campaign").Where("supporter_id = ?", supporterID).
		Order("created_at DESC").Find(&subs).Error
	return subs, err
}

// TransitionStatus is a conditional update; it reports false when the
// subscription was not in any of the from statuses.
func (r *subscriptionRepository) TransitionStatus(id uint, from []string, to string) (bool, error) {
	now := time.Now()
	updates := map[string]interface{}{"status": to, "updated_at": now}
	if to == models.SubscriptionStatusCancelled {
		updates["cancelled_at"] = now
	}
	res := r.db.Model(&models.Subscription{}).
		Where("id = ? AND status IN ?", id, from).
		UpdateColumns(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *subscriptionRepository) IncrementChargeCount(id uint, periodEnd *time.Time) error {
	updates := map[string]interface{}{
		"charge_count": gorm.Expr("charge_count + ?", 1),
		"updated_at":   time.Now(),
	}
	if periodEnd != nil {
		updates["current_period_end"] = *periodEnd
	}
	return r.db.Model(&models.Subscription{}).Where("id = ?", id).UpdateColumns(updates).Error
}
