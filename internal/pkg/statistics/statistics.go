// Package statistics serves platform-wide totals from a Redis cache.
package statistics

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/fundfox/fundfox/app/models"
	"github.com/fundfox/fundfox/internal/pkg/cache"
	"github.com/fundfox/fundfox/internal/pkg/database"
)

const (
	CacheKeyPlatform = "statistics:platform"
	CacheExpiration  = 30 * time.Minute
)

// PlatformStats are the public headline numbers. Amounts are in minor units
// of the default currency; campaigns in other currencies are not converted.
type PlatformStats struct {
	TotalRaised     int64     `json:"total_raised"`
	Currency        string    `json:"currency"`
	LiveCampaigns   int64     `json:"live_campaigns"`
	TotalCampaigns  int64     `json:"total_campaigns"`
	TotalSupporters int64     `json:"total_supporters"`
	TotalCreators   int64     `json:"total_creators"`
	UpdatedAt       time.Time `json:"updated_at"`
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// Compute aggregates the numbers straight from the database.
func Compute(ctx context.Context, db *gorm.DB) (*PlatformStats, error) {
	currency := models.GetAppSettings().GetDefaultCurrency()
	stats := &PlatformStats{Currency: currency, UpdatedAt: time.Now().UTC()}

	var sums struct {
		Raised     int64
		Supporters int64
		Total      int64
	}
	err := db.WithContext(ctx).Model(&models.Campaign{}).
		Select("COALESCE(SUM(CASE WHEN currency = ? THEN current_amount ELSE 0 END), 0) AS raised, "+
			"COALESCE(SUM(supporter_count), 0) AS supporters, COUNT(*) AS total", currency).
		Where("status IN ?", models.PublicCampaignStatuses()).
		Scan(&sums).Error
	if err != nil {
		return nil, fmt.Errorf("sum campaigns: %w", err)
	}
	stats.TotalRaised = sums.Raised
	stats.TotalSupporters = sums.Supporters
	stats.TotalCampaigns = sums.Total

	if err := db.WithContext(ctx).Model(&models.Campaign{}).
		Where("status = ? AND end_date >= ?", models.CampaignStatusActive, time.Now()).
		Count(&stats.LiveCampaigns).Error; err != nil {
		return nil, fmt.Errorf("count live campaigns: %w", err)
	}
	if err := db.WithContext(ctx).Model(&models.User{}).
		Where("campaign_count > 0").
		Count(&stats.TotalCreators).Error; err != nil {
		return nil, fmt.Errorf("count creators: %w", err)
	}
	return stats, nil
}

// UpdateStatisticsCache recomputes and stores the platform statistics.
func UpdateStatisticsCache(ctx context.Context) (*PlatformStats, error) {
	stats, err := Compute(ctx, database.GetDB())
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(CacheKeyPlatform, raw, CacheExpiration); err != nil {
		log.Warnf("[Statistics] could not cache platform statistics: %v", err)
	}

	cacheUpdateMutex.Lock()
	lastCacheUpdate = time.Now()
	cacheUpdateMutex.Unlock()
	return stats, nil
}

// Get returns cached statistics, recomputing on a miss or when the cache is
// older than the refresh interval.
func Get(ctx context.Context) (*PlatformStats, error) {
	if !shouldUpdateCache() {
		if raw, err := cache.Get(CacheKeyPlatform); err == nil {
			var stats PlatformStats
			if err := json.Unmarshal([]byte(raw), &stats); err == nil {
				return &stats, nil
			}
		}
	}
	return UpdateStatisticsCache(ctx)
}

func shouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()
	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// ResetCacheUpdateTimer forces the next Get to recompute.
func ResetCacheUpdateTimer() {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()
	lastCacheUpdate = time.Time{}
}
