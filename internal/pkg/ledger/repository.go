package ledger

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fundfox/fundfox/app/models"
	"github.com/fundfox/fundfox/app/repository"
)

// Latch is the outcome of the pending to success transition.
type Latch struct {
	Won          bool
	Payment      *models.Payment
	NewSupporter bool
}

// Totals are a campaign's denormalized payment counters.
type Totals struct {
	Amount     int64
	Supporters int64
}

// settleable are the statuses a gateway-authenticated capture may settle.
// A failed payment is included because the client can mark a checkout failed
// before the gateway reports the capture.
var settleable = []string{models.PaymentStatusPending, models.PaymentStatusFailed}

// Repository provides the DB operations the ledger needs. Every method that
// changes money is a single conditional statement or a single transaction.
type Repository interface {
	GetCampaign(id uint) (*models.Campaign, error)
	GetRewardTier(id uint) (*models.RewardTier, error)

	CreatePayment(payment *models.Payment) error
	CreatePaymentIfNotExists(payment *models.Payment) (bool, error)
	GetPaymentByOrderID(orderID string) (*models.Payment, error)
	SettlePending(orderID, gatewayPaymentID string, at time.Time) (*Latch, error)
	FailPending(orderID, reason string) (bool, error)

	CreditCreator(creatorID uint, amount int64, newSupporter bool) error
	ClaimRewardTier(tierID uint) error

	Subscriptions() repository.SubscriptionRepository

	CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error

	CampaignTotals(campaignID uint) (Totals, error)
	CorrectCampaignTotals(campaignID uint, from, to Totals) (bool, error)
}

type gormRepository struct {
	db   *gorm.DB
	subs repository.SubscriptionRepository
}

// NewRepository creates a ledger repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db, subs: repository.NewSubscriptionRepository(db)}
}

func (r *gormRepository) GetCampaign(id uint) (*models.Campaign, error) {
	var c models.Campaign
	if err := r.db.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *gormRepository) GetRewardTier(id uint) (*models.RewardTier, error) {
	var t models.RewardTier
	if err := r.db.First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *gormRepository) CreatePayment(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

// CreatePaymentIfNotExists inserts the payment unless its order id is already
// recorded. It reports whether a new row was written.
func (r *gormRepository) CreatePaymentIfNotExists(payment *models.Payment) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "gateway_order_id"}},
		DoNothing: true,
	}).Create(payment)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) GetPaymentByOrderID(orderID string) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.Where("gateway_order_id = ?", orderID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// SettlePending flips a pending or failed payment to success and credits its
// campaign. The conditional update is the latch: of any number of concurrent
// callers for one order, exactly one sees a changed row and only that one
// credits.
//
// Whether the payer is a new supporter is decided by inserting a
// campaign_supporters marker under a unique key. On InnoDB a concurrent insert
// of the same key waits for the first transaction and then skips, where a
// COUNT of prior payments would read a REPEATABLE READ snapshot and let two
// settlements both see zero.
func (r *gormRepository) SettlePending(orderID, gatewayPaymentID string, at time.Time) (*Latch, error) {
	out := &Latch{}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Payment{}).
			Where("gateway_order_id = ? AND status IN ?", orderID, settleable).
			UpdateColumns(map[string]interface{}{
				"status":             models.PaymentStatusSuccess,
				"gateway_payment_id": gatewayPaymentID,
				"failure_reason":     "",
				"settled_at":         at,
				"updated_at":         at,
			})
		if res.Error != nil {
			return res.Error
		}

		var p models.Payment
		if err := tx.Where("gateway_order_id = ?", orderID).First(&p).Error; err != nil {
			return err
		}
		out.Payment = &p
		if res.RowsAffected == 0 {
			return nil
		}
		out.Won = true

		marker := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "campaign_id"}, {Name: "supporter_key"}},
			DoNothing: true,
		}).Create(&models.CampaignSupporter{
			CampaignID:   p.CampaignID,
			SupporterKey: p.SupporterKey(),
			PaymentID:    p.ID,
		})
		if marker.Error != nil {
			return marker.Error
		}
		out.NewSupporter = marker.RowsAffected > 0

		updates := map[string]interface{}{
			"current_amount": gorm.Expr("current_amount + ?", p.Amount),
		}
		if out.NewSupporter {
			updates["supporter_count"] = gorm.Expr("supporter_count + ?", 1)
		}
		return tx.Model(&models.Campaign{}).Where("id = ?", p.CampaignID).UpdateColumns(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *gormRepository) FailPending(orderID, reason string) (bool, error) {
	res := r.db.Model(&models.Payment{}).
		Where("gateway_order_id = ? AND status = ?", orderID, models.PaymentStatusPending).
		UpdateColumns(map[string]interface{}{
			"status":         models.PaymentStatusFailed,
			"failure_reason": reason,
			"updated_at":     time.Now(),
		})
	return res.RowsAffected > 0, res.Error
}

func (r *gormRepository) CreditCreator(creatorID uint, amount int64, newSupporter bool) error {
	updates := map[string]interface{}{
		"total_raised": gorm.Expr("total_raised + ?", amount),
	}
	if newSupporter {
		updates["total_supporters"] = gorm.Expr("total_supporters + ?", 1)
	}
	return r.db.Model(&models.User{}).Where("id = ?", creatorID).UpdateColumns(updates).Error
}

func (r *gormRepository) ClaimRewardTier(tierID uint) error {
	return r.db.Model(&models.RewardTier{}).Where("id = ?", tierID).
		UpdateColumn("claimed_count", gorm.Expr("claimed_count + ?", 1)).Error
}

func (r *gormRepository) Subscriptions() repository.SubscriptionRepository {
	return r.subs
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.PaymentWebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.PaymentWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

// CampaignTotals recomputes what the denormalized campaign counters should
// hold. Named payers count once; anonymous and guest payments count
// individually.
func (r *gormRepository) CampaignTotals(campaignID uint) (Totals, error) {
	var out struct {
		Total     int64
		Named     int64
		Anonymous int64
	}
	err := r.db.Model(&models.Payment{}).
		Select(`COALESCE(SUM(amount), 0) AS total,
			COUNT(DISTINCT CASE WHEN payer_id IS NOT NULL AND anonymous = ? THEN payer_id END) AS named,
			COALESCE(SUM(CASE WHEN payer_id IS NULL OR anonymous = ? THEN 1 ELSE 0 END), 0) AS anonymous`, false, true).
		Where("campaign_id = ? AND status = ?", campaignID, models.PaymentStatusSuccess).
		Scan(&out).Error
	if err != nil {
		return Totals{}, err
	}
	return Totals{Amount: out.Total, Supporters: out.Named + out.Anonymous}, nil
}

// CorrectCampaignTotals moves the counters by the difference between to and
// from, but only while they still hold from. Settlement only ever increments,
// so an unchanged counter means no credit landed since from was read.
func (r *gormRepository) CorrectCampaignTotals(campaignID uint, from, to Totals) (bool, error) {
	res := r.db.Model(&models.Campaign{}).
		Where("id = ? AND current_amount = ? AND supporter_count = ?", campaignID, from.Amount, from.Supporters).
		UpdateColumns(map[string]interface{}{
			"current_amount":  gorm.Expr("current_amount + ?", to.Amount-from.Amount),
			"supporter_count": gorm.Expr("supporter_count + ?", to.Supporters-from.Supporters),
		})
	return res.RowsAffected > 0, res.Error
}
