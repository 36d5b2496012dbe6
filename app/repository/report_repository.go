package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/fundfox/fundfox/app/models"
)

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

// Create inserts a report. A second report by the same signed-in user on the
// same campaign fails with gorm.ErrDuplicatedKey.
func (r *reportRepository) Create(report *models.CampaignReport) error {
	if report.Status == "" {
		report.Status = models.ReportStatusOpen
	}
	return r.db.Create(report).Error
}

func (r *reportRepository) GetByID(id uint) (*models.CampaignReport, error) {
	var rep models.CampaignReport
	if err := r.db.Preload("Campaign").First(&rep, id).Error; err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *reportRepository) ListOpen() ([]models.CampaignReport, error) {
	var reports []models.CampaignReport
	err := r.db.Preload("Campaign").Preload("Reporter").
		Where("status = ?", models.ReportStatusOpen).
		Order("created_at ASC").Find(&reports).Error
	return reports, err
}

func (r *reportRepository) ListRecentClosed(limit int) ([]models.CampaignReport, error) {
	var reports []models.CampaignReport
	err := r.db.Preload("Campaign").
		Where("status <> ?", models.ReportStatusOpen).
		Order("resolved_at DESC").Limit(limit).Find(&reports).Error
	return reports, err
}

func (r *reportRepository) Close(id uint, status string, adminID uint) error {
	now := time.Now()
	res := r.db.Model(&models.CampaignReport{}).
		Where("id = ? AND status = ?", id, models.ReportStatusOpen).
		Updates(map[string]interface{}{
			"status":         status,
			"resolved_by_id": adminID,
			"resolved_at":    now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
