// Package trending ranks live campaigns by recent engagement. Scores are
// computed on demand and never stored or returned to clients.
package trending

import (
	"context"
	"sort"
	"time"

	"github.com/fundfox/fundfox/app/models"
	"github.com/fundfox/fundfox/app/repository"
)

const (
	weightViews      = 0.4
	weightAmount     = 0.3
	weightSupporters = 0.2
	weightFeatured   = 0.1
	featuredBoost    = 100.0
)

// Score rates a campaign at now. Age is counted in whole days with a floor of
// one so campaigns created today are not divided by zero.
func Score(c *models.Campaign, now time.Time) float64 {
	age := AgeDays(c.CreatedAt, now)
	s := weightViews*float64(c.ViewCount)/age +
		weightAmount*float64(c.CurrentAmount)/age +
		weightSupporters*float64(c.SupporterCount)/age
	if c.Featured {
		s += weightFeatured * featuredBoost
	}
	return s
}

func AgeDays(created, now time.Time) float64 {
	days := float64(int64(now.Sub(created) / (24 * time.Hour)))
	if days < 1 {
		return 1
	}
	return days
}

// Rank orders the live campaigns by descending score and returns at most
// limit of them. Equal scores fall back to ascending id so the order is
// stable across calls.
func Rank(campaigns []models.Campaign, now time.Time, limit int) []models.Campaign {
	type scored struct {
		c     models.Campaign
		score float64
	}
	list := make([]scored, 0, len(campaigns))
	for i := range campaigns {
		c := campaigns[i]
		if c.Status != models.CampaignStatusActive || c.IsExpired(now) {
			continue
		}
		list = append(list, scored{c: c, score: Score(&c, now)})
	}

	sort.SliceStable(list, func(i, j int) bool {
		if list[i].score != list[j].score {
			return list[i].score > list[j].score
		}
		return list[i].c.ID < list[j].c.ID
	})

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	out := make([]models.Campaign, len(list))
	for i := range list {
		out[i] = list[i].c
	}
	return out
}

// Service loads the candidate pool and ranks it.
type Service struct {
	campaigns repository.CampaignRepository
	poolSize  func() int
	now       func() time.Time
}

func NewService(campaigns repository.CampaignRepository) *Service {
	return &Service{
		campaigns: campaigns,
		poolSize:  func() int { return models.GetAppSettings().GetTrendingPoolSize() },
		now:       time.Now,
	}
}

func (s *Service) Top(ctx context.Context, limit int) ([]models.Campaign, error) {
	_ = ctx
	now := s.now()
	candidates, err := s.campaigns.TrendingCandidates(now, s.poolSize())
	if err != nil {
		return nil, err
	}
	return Rank(candidates, now, limit), nil
}
