// Package notify turns domain events into in-app notifications and queued
// emails. Every method is best effort from the caller's point of view: the
// primary operation has already committed when it runs.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/fundfox/fundfox/app/models"
	"github.com/fundfox/fundfox/app/repository"
	"github.com/fundfox/fundfox/internal/pkg/assistant"
	"github.com/fundfox/fundfox/internal/pkg/moderation"
	"github.com/fundfox/fundfox/internal/pkg/money"
)

// EmailEnqueuer hands a mail to the background queue.
type EmailEnqueuer interface {
	EnqueueEmail(ctx context.Context, to, subject, body string) error
}

type Service struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	campaigns     repository.CampaignRepository
	payments      repository.PaymentRepository
	assistant     *assistant.Service
	email         EmailEnqueuer
	now           func() time.Time
}

// NewService wires the notifier. email may be nil, in which case only in-app
// notifications are written.
func NewService(repos *repository.Repositories, assist *assistant.Service, email EmailEnqueuer) *Service {
	return &Service{
		notifications: repos.Notification,
		users:         repos.User,
		campaigns:     repos.Campaign,
		payments:      repos.Payment,
		assistant:     assist,
		email:         email,
		now:           time.Now,
	}
}

func (s *Service) create(userID uint, kind, title, content string, ref uint) error {
	return s.notifications.Create(&models.Notification{
		UserID:      userID,
		Type:        kind,
		Title:       title,
		Content:     content,
		ReferenceID: ref,
	})
}

// mail queues an email to userID. Failures are logged only.
func (s *Service) mail(ctx context.Context, userID uint, subject, body string) {
	if s.email == nil {
		return
	}
	u, err := s.users.GetByID(userID)
	if err != nil {
		log.Warnf("[Notify] no recipient for user %d: %v", userID, err)
		return
	}
	if u.Email == "" {
		return
	}
	if err := s.email.EnqueueEmail(ctx, u.Email, subject, body); err != nil {
		log.Warnf("[Notify] email to user %d not queued: %v", userID, err)
	}
}

// PaymentReceived tells a creator about a settled contribution.
func (s *Service) PaymentReceived(ctx context.Context, campaign *models.Campaign, payment *models.Payment) error {
	who := "An anonymous supporter"
	if !payment.Anonymous && payment.PayerID != nil {
		if u, err := s.users.GetByID(*payment.PayerID); err == nil {
			who = u.Name
		}
	}
	amount := money.Format(payment.Amount, payment.Currency)
	title := fmt.Sprintf("New contribution of %s", amount)
	content := fmt.Sprintf("%s contributed %s to %q.", who, amount, campaign.Title)

	if err := s.create(campaign.CreatorID, models.NotificationPaymentReceived, title, content, campaign.ID); err != nil {
		return err
	}
	s.mail(ctx, campaign.CreatorID, title, content+"\n\nThe campaign has now raised "+
		money.Format(campaign.CurrentAmount, campaign.Currency)+".")
	return nil
}

// SubscriptionChanged tells a creator that a recurring supporter changed state.
func (s *Service) SubscriptionChanged(ctx context.Context, sub *models.Subscription) error {
	title := fmt.Sprintf("A monthly supporter is now %s", sub.Status)
	if sub.Interval == models.SubscriptionIntervalYearly {
		title = fmt.Sprintf("A yearly supporter is now %s", sub.Status)
	}
	content := fmt.Sprintf("Subscription of %s per %s changed to %s.",
		money.Format(sub.Amount, sub.Currency), intervalNoun(sub.Interval), sub.Status)
	return s.create(sub.CreatorID, models.NotificationSubscription, title, content, sub.CampaignID)
}

func intervalNoun(interval string) string {
	if interval == models.SubscriptionIntervalYearly {
		return "year"
	}
	return "month"
}

// CampaignModerated tells a creator their campaign needs review or was rejected.
func (s *Service) CampaignModerated(ctx context.Context, campaign *models.Campaign, d moderation.Decision) error {
	var kind, title, content string
	switch d.Outcome {
	case moderation.OutcomeFlagged:
		kind = models.NotificationCampaignFlagged
		title = "Your campaign is under review"
		content = fmt.Sprintf("%q is live, but our team will review it shortly.", campaign.Title)
	case moderation.OutcomeRejected:
		kind = models.NotificationCampaignRejected
		title = "Your campaign was not approved"
		content = fmt.Sprintf("%q did not pass review and is not publicly listed.", campaign.Title)
	default:
		return nil
	}
	if err := s.create(campaign.CreatorID, kind, title, content, campaign.ID); err != nil {
		return err
	}
	s.mail(ctx, campaign.CreatorID, title, content)
	return nil
}

// CommentAdded tells a creator about a comment by someone else.
func (s *Service) CommentAdded(ctx context.Context, campaign *models.Campaign, comment *models.CampaignComment) error {
	if comment.UserID == campaign.CreatorID {
		return nil
	}
	return s.create(campaign.CreatorID, models.NotificationComment, "New comment",
		fmt.Sprintf("Someone commented on %q.", campaign.Title), campaign.ID)
}
