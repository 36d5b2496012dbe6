package trending

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundfox/fundfox/app/models"
	"github.com/fundfox/fundfox/app/repository"
	"github.com/fundfox/fundfox/internal/pkg/testutil"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func campaign(id uint, ageDays int, mutate func(c *models.Campaign)) models.Campaign {
	c := models.Campaign{
		ID:        id,
		Status:    models.CampaignStatusActive,
		CreatedAt: now.Add(-time.Duration(ageDays) * 24 * time.Hour),
		EndDate:   now.Add(7 * 24 * time.Hour),
	}
	if mutate != nil {
		mutate(&c)
	}
	return c
}

func TestScore(t *testing.T) {
	c := campaign(1, 4, func(c *models.Campaign) {
		c.ViewCount = 400
		c.CurrentAmount = 1000
		c.SupporterCount = 20
	})
	// (0.4*400 + 0.3*1000 + 0.2*20) / 4
	assert.InDelta(t, 116.0, Score(&c, now), 1e-9)

	c.Featured = true
	assert.InDelta(t, 126.0, Score(&c, now), 1e-9)
}

func TestAgeDaysFloor(t *testing.T) {
	assert.Equal(t, 1.0, AgeDays(now.Add(-time.Hour), now))
	assert.Equal(t, 1.0, AgeDays(now.Add(time.Hour), now))
	assert.Equal(t, 3.0, AgeDays(now.Add(-80*time.Hour), now))
}

func TestScoreMonotone(t *testing.T) {
	base := campaign(1, 3, func(c *models.Campaign) {
		c.ViewCount = 10
		c.CurrentAmount = 100
		c.SupporterCount = 2
	})
	baseScore := Score(&base, now)

	for name, bump := range map[string]func(c *models.Campaign){
		"views":      func(c *models.Campaign) { c.ViewCount++ },
		"amount":     func(c *models.Campaign) { c.CurrentAmount++ },
		"supporters": func(c *models.Campaign) { c.SupporterCount++ },
		"featured":   func(c *models.Campaign) { c.Featured = true },
	} {
		c := base
		bump(&c)
		assert.Greater(t, Score(&c, now), baseScore, name)
	}
}

func TestRank(t *testing.T) {
	list := []models.Campaign{
		campaign(5, 1, func(c *models.Campaign) { c.ViewCount = 10 }),
		campaign(2, 1, func(c *models.Campaign) { c.ViewCount = 10 }),
		campaign(3, 1, func(c *models.Campaign) { c.ViewCount = 50 }),
		campaign(4, 1, func(c *models.Campaign) { c.Featured = true }),
		campaign(6, 1, func(c *models.Campaign) {
			c.ViewCount = 1000
			c.Status = models.CampaignStatusPaused
		}),
		campaign(7, 1, func(c *models.Campaign) {
			c.ViewCount = 1000
			c.EndDate = now.Add(-time.Minute)
		}),
	}

	ranked := Rank(list, now, 10)
	var ids []uint
	for _, c := range ranked {
		ids = append(ids, c.ID)
	}
	// 3 scores 20, 4 scores 10, 2 and 5 tie at 4 and fall back to id order
	assert.Equal(t, []uint{3, 4, 2, 5}, ids)

	assert.Len(t, Rank(list, now, 2), 2)
}

func TestServiceTop(t *testing.T) {
	db := testutil.NewDB(t)
	creator := testutil.CreateUser(t, db, "creator")
	quiet := testutil.CreateCampaign(t, db, creator.ID, nil)
	busy := testutil.CreateCampaign(t, db, creator.ID, func(c *models.Campaign) { c.ViewCount = 500 })
	testutil.CreateCampaign(t, db, creator.ID, func(c *models.Campaign) {
		c.ViewCount = 5000
		c.Status = models.CampaignStatusDraft
	})

	svc := NewService(repository.NewCampaignRepository(db))
	top, err := svc.Top(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, busy.ID, top[0].ID)
	assert.Equal(t, quiet.ID, top[1].ID)
}
