package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/fundfox/fundfox/app/models"
)

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) ListSuccessfulByCampaign(campaignID uint, offset, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("campaign_id = ? AND status = ?", campaignID, models.PaymentStatusSuccess).
		Order("settled_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) ListByPayer(payerID uint, offset, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Preload("Campaign").Where("payer_id = ?", payerID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&payments).Error
	return payments, err
}

// GetDailyStatsForCreator returns one bucket per day in [startDate, endDate]
// with the count and sum of successful payments across the creator's
// campaigns. Days without payments are present with zero values.
func (r *paymentRepository) GetDailyStatsForCreator(creatorID uint, startDate, endDate time.Time) ([]models.DailyStats, error) {
	type row struct {
		SettledAt time.Time
		Amount    int64
	}
	var rows []row
	err := r.db.Table("payments").
		Select("payments.settled_at, payments.amount").
		Joins("JOIN campaigns ON campaigns.id = payments.campaign_id").
		Where("campaigns.creator_id = ? AND payments.status = ? AND payments.settled_at >= ? AND payments.settled_at < ?",
			creatorID, models.PaymentStatusSuccess, startDate, endDate.AddDate(0, 0, 1)).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	// bucketing in Go keeps the query portable across MySQL and SQLite
	buckets := make(map[string]*models.DailyStats)
	for _, rw := range rows {
		key := rw.SettledAt.UTC().Format("2006-01-02")
		b, ok := buckets[key]
		if !ok {
			b = &models.DailyStats{Date: key}
			buckets[key] = b
		}
		b.Count++
		b.Amount += rw.Amount
	}

	var out []models.DailyStats
	for d := startDate.UTC().Truncate(24 * time.Hour); !d.After(endDate.UTC()); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		if b, ok := buckets[key]; ok {
			out = append(out, *b)
		} else {
			out = append(out, models.DailyStats{Date: key})
		}
	}
	return out, nil
}

// SumSuccessfulSince returns the amount and number of successful payments
// received by a creator's campaigns since the given time.
func (r *paymentRepository) SumSuccessfulSince(creatorID uint, since time.Time) (int64, int64, error) {
	var out struct {
		Total int64
		Cnt   int64
	}
	err := r.db.Table("payments").
		Select("COALESCE(SUM(payments.amount), 0) AS total, COUNT(*) AS cnt").
		Joins("JOIN campaigns ON campaigns.id = payments.campaign_id").
		Where("campaigns.creator_id = ? AND payments.status = ? AND payments.settled_at >= ?",
			creatorID, models.PaymentStatusSuccess, since).
		Scan(&out).Error
	return out.Total, out.Cnt, err
}
