package jobqueue

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/fundfox/fundfox/internal/pkg/ledger"
	"github.com/fundfox/fundfox/internal/pkg/mail"
)

// errPermanent marks failures a retry cannot fix (bad payload, missing wiring).
var errPermanent = errors.New("permanent job failure")

type Reconciler interface {
	Reconcile(ctx context.Context, campaignID uint) (*ledger.Drift, error)
}

type WeeklySummarizer interface {
	WeeklySummary(ctx context.Context, creatorID uint) error
}

// Processors are the services job handlers delegate to.
type Processors struct {
	Mailer     mail.Mailer
	Reconciler Reconciler
	Summaries  WeeklySummarizer
}

func (q *Queue) processSendEmailJob(ctx context.Context, job *Job) error {
	payload, err := SendEmailJobPayloadFromMap(job.Payload)
	if err != nil || payload.To == "" {
		return fmt.Errorf("%w: invalid send email payload: %v", errPermanent, err)
	}
	if q.processors.Mailer == nil {
		return fmt.Errorf("%w: no mailer configured", errPermanent)
	}
	return q.processors.Mailer.Send(ctx, payload.To, payload.Subject, payload.Body)
}

func (q *Queue) processReconcileCampaignJob(ctx context.Context, job *Job) error {
	payload, err := ReconcileCampaignJobPayloadFromMap(job.Payload)
	if err != nil || payload.CampaignID == 0 {
		return fmt.Errorf("%w: invalid reconcile payload: %v", errPermanent, err)
	}
	if q.processors.Reconciler == nil {
		return fmt.Errorf("%w: no reconciler configured", errPermanent)
	}
	drift, err := q.processors.Reconciler.Reconcile(ctx, payload.CampaignID)
	if err != nil {
		return err
	}
	if drift.Corrected {
		log.Infof("[JobQueue] campaign %d totals corrected by job %s", payload.CampaignID, job.ID)
	}
	return nil
}

func (q *Queue) processWeeklySummaryJob(ctx context.Context, job *Job) error {
	payload, err := WeeklySummaryJobPayloadFromMap(job.Payload)
	if err != nil || payload.CreatorID == 0 {
		return fmt.Errorf("%w: invalid weekly summary payload: %v", errPermanent, err)
	}
	if q.processors.Summaries == nil {
		return fmt.Errorf("%w: no summarizer configured", errPermanent)
	}
	return q.processors.Summaries.WeeklySummary(ctx, payload.CreatorID)
}
