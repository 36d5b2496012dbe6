package repository

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fundfox/fundfox/app/models"
)

// counterColumns are the campaign counters IncrementCounter may touch.
var counterColumns = map[string]struct{}{
	"view_count":    {},
	"comment_count": {},
	"share_count":   {},
}

type campaignRepository struct {
	db *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &campaignRepository{db: db}
}

func (r *campaignRepository) Create(campaign *models.Campaign) error {
	return r.db.Create(campaign).Error
}

func (r *campaignRepository) GetByID(id uint) (*models.Campaign, error) {
	var c models.Campaign
	if err := r.db.Preload("Creator").Preload("RewardTiers").First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *campaignRepository) GetByUUID(uuid string) (*models.Campaign, error) {
	var c models.Campaign
	err := r.db.Preload("Creator").Preload("RewardTiers").Where("uuid = ?", uuid).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *campaignRepository) GetByShareSlug(slug string) (*models.Campaign, error) {
	var c models.Campaign
	if err := r.db.Where("share_slug = ?", slug).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// Update saves editable fields only. Ledger counters, status and moderation
// columns are owned by their own atomic statements and never overwritten here.
func (r *campaignRepository) Update(campaign *models.Campaign) error {
	return r.db.Model(campaign).Select(
		"title", "summary", "story", "category", "cover_image_key", "goal_amount", "end_date", "updated_at",
	).Updates(campaign).Error
}

func (r *campaignRepository) publicQuery(filter CampaignFilter) *gorm.DB {
	q := r.db.Model(&models.Campaign{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	} else {
		q = q.Where("status IN ?", models.PublicCampaignStatuses())
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if s := strings.TrimSpace(filter.Query); s != "" {
		pattern := "%" + s + "%"
		q = q.Where("title LIKE ? OR summary LIKE ?", pattern, pattern)
	}
	if filter.Featured {
		q = q.Where("featured = ?", true)
	}
	return q
}

func (r *campaignRepository) ListPublic(filter CampaignFilter, offset, limit int) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	err := r.publicQuery(filter).
		Order("featured DESC").Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).Find(&campaigns).Error
	return campaigns, err
}

func (r *campaignRepository) CountPublic(filter CampaignFilter) (int64, error) {
	var count int64
	err := r.publicQuery(filter).Count(&count).Error
	return count, err
}

func (r *campaignRepository) ListByCreator(creatorID uint) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	err := r.db.Where("creator_id = ? AND status <> ?", creatorID, models.CampaignStatusDeleted).
		Order("created_at DESC").Find(&campaigns).Error
	return campaigns, err
}

// ListFlagged returns campaigns awaiting human moderation review.
func (r *campaignRepository) ListFlagged(offset, limit int) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	err := r.db.Preload("Creator").
		Where("flagged_for_review = ? AND status = ?", true, models.CampaignStatusActive).
		Order("moderation_score DESC").Order("id ASC").
		Offset(offset).Limit(limit).Find(&campaigns).Error
	return campaigns, err
}

// TransitionStatus moves a campaign to `to` only if its current status is in
// `from`. The check and the write are one statement.
func (r *campaignRepository) TransitionStatus(id uint, from []string, to string) (bool, error) {
	res := r.db.Model(&models.Campaign{}).
		Where("id = ? AND status IN ?", id, from).
		UpdateColumns(map[string]interface{}{"status": to, "updated_at": time.Now()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ExpireDue completes every active or paused campaign whose end date passed.
// Only status and updated_at are written.
func (r *campaignRepository) ExpireDue(now time.Time) (int64, error) {
	res := r.db.Model(&models.Campaign{}).
		Where("status IN ? AND end_date < ?", []string{models.CampaignStatusActive, models.CampaignStatusPaused}, now).
		UpdateColumns(map[string]interface{}{"status": models.CampaignStatusCompleted, "updated_at": now})
	return res.RowsAffected, res.Error
}

func (r *campaignRepository) IncrementCounter(id uint, column string, delta int64) error {
	if _, ok := counterColumns[column]; !ok {
		return fmt.Errorf("unknown campaign counter %q", column)
	}
	return r.db.Model(&models.Campaign{}).Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta)).Error
}

// TrendingCandidates loads the pool the trending ranking runs over: the
// newest active, unexpired campaigns plus the ones with the most lifetime
// engagement, so an older campaign that is still drawing support is not
// crowded out by recency. Each half is bounded by limit and the union is
// deduplicated; ranking happens in memory.
func (r *campaignRepository) TrendingCandidates(now time.Time, limit int) ([]models.Campaign, error) {
	live := func() *gorm.DB {
		return r.db.Where("status = ? AND end_date >= ?", models.CampaignStatusActive, now)
	}

	var newest []models.Campaign
	if err := live().Order("created_at DESC").Order("id ASC").Limit(limit).Find(&newest).Error; err != nil {
		return nil, err
	}
	var engaged []models.Campaign
	if err := live().Order("featured DESC").
		Order("view_count * 4 + current_amount * 3 + supporter_count * 2 DESC").
		Order("id ASC").Limit(limit).Find(&engaged).Error; err != nil {
		return nil, err
	}

	seen := make(map[uint]struct{}, len(newest)+len(engaged))
	out := make([]models.Campaign, 0, len(newest)+len(engaged))
	for _, batch := range [][]models.Campaign{newest, engaged} {
		for _, c := range batch {
			if _, dup := seen[c.ID]; dup {
				continue
			}
			seen[c.ID] = struct{}{}
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *campaignRepository) SetFeatured(id uint, featured bool) error {
	res := r.db.Model(&models.Campaign{}).Where("id = ?", id).UpdateColumn("featured", featured)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ApplyModeration writes a moderation decision if the campaign is still in
// one of the from statuses.
func (r *campaignRepository) ApplyModeration(id uint, from []string, u ModerationUpdate) (bool, error) {
	updates := map[string]interface{}{
		"moderation_score":   u.Score,
		"flagged_for_review": u.Flagged,
		"status":             u.Status,
		"updated_at":         time.Now(),
	}
	if len(u.Categories) > 0 {
		updates["moderation_categories"] = datatypes.JSON(u.Categories)
	}
	if u.PublishedAt != nil {
		updates["published_at"] = u.PublishedAt
	}
	if u.ReviewedAt != nil {
		updates["reviewed_at"] = u.ReviewedAt
	}
	res := r.db.Model(&models.Campaign{}).Where("id = ? AND status IN ?", id, from).UpdateColumns(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListActiveIDs returns ids of campaigns the reconciliation job should check.
func (r *campaignRepository) ListActiveIDs() ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Campaign{}).
		Where("status IN ?", models.PublicCampaignStatuses()).
		Order("id ASC").Pluck("id", &ids).Error
	return ids, err
}
