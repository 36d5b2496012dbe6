// Package lifecycle moves campaigns through their statuses: the expiry sweep
// and the owner-driven pause, resume and delete transitions.
package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/fundfox/fundfox/app/models"
	"github.com/fundfox/fundfox/app/repository"
	"github.com/fundfox/fundfox/internal/pkg/cache"
)

const lazySweepLockKey = "campaign:sweep:lazy"

// Locker grants a key to one caller per ttl across all processes.
type Locker func(ctx context.Context, key string, ttl time.Duration) (bool, error)

// Sweeper completes campaigns whose end date has passed.
type Sweeper struct {
	campaigns repository.CampaignRepository
	lock      Locker
	interval  func() time.Duration
	now       func() time.Time

	mu      sync.Mutex
	lastRun time.Time
}

func NewSweeper(campaigns repository.CampaignRepository) *Sweeper {
	return &Sweeper{
		campaigns: campaigns,
		lock:      redisLock,
		interval:  func() time.Duration { return models.GetAppSettings().GetLazySweepInterval() },
		now:       time.Now,
	}
}

// redisLock uses the shared cache when it is configured. Without Redis it
// always grants, leaving throttling to the in-process timestamp.
func redisLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if cache.GetClientIfSet() == nil {
		return true, nil
	}
	return cache.TryLock(ctx, key, ttl)
}

// Sweep runs the bulk completion statement once. It is idempotent.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	_ = ctx
	start := time.Now()
	n, err := s.campaigns.ExpireDue(s.now())
	if err != nil {
		log.Errorf("[Sweep] expiry sweep failed: %v", err)
		return 0, err
	}
	if n > 0 {
		log.Infof("[Sweep] completed %d expired campaigns in %v", n, time.Since(start))
	}
	return n, nil
}

// SweepIfDue runs the sweep from read paths, at most once per interval per
// process and, with Redis, per cluster. Errors are logged and swallowed so a
// listing never fails because of the sweep.
func (s *Sweeper) SweepIfDue(ctx context.Context) bool {
	interval := s.interval()
	now := s.now()

	s.mu.Lock()
	if !s.lastRun.IsZero() && now.Sub(s.lastRun) < interval {
		s.mu.Unlock()
		return false
	}
	s.lastRun = now
	s.mu.Unlock()

	ok, err := s.lock(ctx, lazySweepLockKey, interval)
	if err != nil {
		log.Warnf("[Sweep] throttle lock unavailable, sweeping anyway: %v", err)
	} else if !ok {
		return false
	}

	_, _ = s.Sweep(ctx)
	return true
}
