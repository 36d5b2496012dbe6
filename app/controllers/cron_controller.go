package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/fundfox/fundfox/internal/pkg/statistics"
)

const creatorBatchSize = 200

// CronController exposes the scheduled tasks an external scheduler triggers.
// Each task is idempotent and safe to call repeatedly.
type CronController struct {
	s   *Services
	now func() time.Time
}

func NewCronController(s *Services) *CronController {
	return &CronController{s: s, now: time.Now}
}

// HandleExpireCampaigns completes every campaign whose end date has passed.
func (cc *CronController) HandleExpireCampaigns(c *fiber.Ctx) error {
	n, err := cc.s.Sweeper.Sweep(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"completed": n})
}

// HandlePublishUpdates releases scheduled campaign updates that are due.
func (cc *CronController) HandlePublishUpdates(c *fiber.Ctx) error {
	n, err := cc.s.Repos.Update.PublishDue(cc.now())
	if err != nil {
		return err
	}
	if n > 0 {
		log.Infof("[Cron] published %d scheduled updates", n)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"published": n})
}

// HandleWeeklySummary queues one summary per active creator. Without a queue
// the summaries are sent inline.
func (cc *CronController) HandleWeeklySummary(c *fiber.Ctx) error {
	ctx := c.UserContext()
	total := 0
	for offset := 0; ; offset += creatorBatchSize {
		creators, err := cc.s.Repos.User.ListCreators(offset, creatorBatchSize)
		if err != nil {
			return err
		}
		if len(creators) == 0 {
			break
		}
		if cc.s.Jobs != nil {
			ids := make([]uint, 0, len(creators))
			for _, u := range creators {
				ids = append(ids, u.ID)
			}
			n, err := cc.s.Jobs.EnqueueWeeklySummaries(ctx, ids)
			total += n
			if err != nil {
				return err
			}
		} else {
			for _, u := range creators {
				if err := cc.s.Notify.WeeklySummary(ctx, u.ID); err != nil {
					log.Warnf("[Cron] weekly summary for creator %d failed: %v", u.ID, err)
					continue
				}
				total++
			}
		}
		if len(creators) < creatorBatchSize {
			break
		}
	}
	return ok(c, fiber.StatusOK, fiber.Map{"creators": total})
}

// HandleReconcile checks every listed campaign's totals against its payments.
func (cc *CronController) HandleReconcile(c *fiber.Ctx) error {
	ids, err := cc.s.Repos.Campaign.ListActiveIDs()
	if err != nil {
		return err
	}
	if cc.s.Jobs != nil {
		n, err := cc.s.Jobs.EnqueueReconcile(c.UserContext(), ids)
		if err != nil {
			return err
		}
		return ok(c, fiber.StatusOK, fiber.Map{"queued": n})
	}
	drifts, err := cc.s.Ledger.ReconcileAll(c.UserContext(), ids)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"checked": len(ids), "drifted": drifts})
}

// HandleRefreshStatistics recomputes the cached platform statistics.
func (cc *CronController) HandleRefreshStatistics(c *fiber.Ctx) error {
	stats, err := statistics.UpdateStatisticsCache(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, stats)
}
