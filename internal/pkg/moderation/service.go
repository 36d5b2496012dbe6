package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/fundfox/fundfox/app/models"
	"github.com/fundfox/fundfox/app/repository"
	"github.com/fundfox/fundfox/internal/pkg/apperror"
	"github.com/fundfox/fundfox/internal/pkg/lifecycle"
)

// Notifier tells creators about decisions they need to act on.
type Notifier interface {
	CampaignModerated(ctx context.Context, campaign *models.Campaign, decision Decision) error
}

type Service struct {
	campaigns  repository.CampaignRepository
	classifier Classifier
	notifier   Notifier
	now        func() time.Time
	enabled    func() bool
}

func NewService(campaigns repository.CampaignRepository, classifier Classifier, notifier Notifier) *Service {
	if classifier == nil {
		classifier = NewHeuristicClassifier()
	}
	return &Service{
		campaigns:  campaigns,
		classifier: classifier,
		notifier:   notifier,
		now:        time.Now,
		enabled:    func() bool { return models.GetAppSettings().IsModerationEnabled() },
	}
}

// PublishResult is what the creator learns after submitting a draft.
type PublishResult struct {
	Campaign *models.Campaign `json:"campaign"`
	Decision Decision         `json:"decision"`
}

// Publish classifies a draft and moves it to active or rejected in one
// conditional write.
func (s *Service) Publish(ctx context.Context, campaignID uint, actor lifecycle.Actor) (*PublishResult, error) {
	c, err := s.load(campaignID)
	if err != nil {
		return nil, err
	}
	if c.CreatorID != actor.UserID && !actor.IsAdmin {
		return nil, apperror.Forbidden("only the creator can publish this campaign")
	}
	if c.Status != models.CampaignStatusDraft {
		return nil, apperror.Conflict("only draft campaigns can be published")
	}
	now := s.now()
	if !c.EndDate.After(now) {
		return nil, apperror.Validation("end date must be in the future")
	}

	result := &Result{Source: "disabled"}
	if s.enabled() {
		result, err = s.classifier.Classify(ctx, Content{Title: c.Title, Summary: c.Summary, Story: c.Story})
		if err != nil {
			return nil, apperror.Upstream("content review is unavailable", err)
		}
	}

	decision := Decide(result.Score)
	update := repository.ModerationUpdate{
		Score:   decision.Score,
		Status:  decision.Status,
		Flagged: decision.Flagged,
	}
	if len(result.Categories) > 0 {
		update.Categories, _ = json.Marshal(result.Categories)
	}
	if decision.Visible() {
		update.PublishedAt = &now
	}

	ok, err := s.campaigns.ApplyModeration(c.ID, []string{models.CampaignStatusDraft}, update)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.Conflict("campaign status changed concurrently")
	}
	log.Infof("[Moderation] campaign %d scored %d (%s) -> %s", c.ID, decision.Score, result.Source, decision.Outcome)

	c.Status = decision.Status
	c.ModerationScore = decision.Score
	c.FlaggedForReview = decision.Flagged
	c.ModerationCategories = update.Categories
	c.PublishedAt = update.PublishedAt

	if decision.Outcome != OutcomeApproved {
		s.notify(ctx, c, decision)
	}
	return &PublishResult{Campaign: c, Decision: decision}, nil
}

// Approve clears the review marker on a flagged campaign.
func (s *Service) Approve(ctx context.Context, campaignID uint) (*models.Campaign, error) {
	return s.review(ctx, campaignID, Decision{
		Outcome: OutcomeApproved,
		Status:  models.CampaignStatusActive,
	})
}

// Reject takes a flagged campaign off the public listings.
func (s *Service) Reject(ctx context.Context, campaignID uint) (*models.Campaign, error) {
	return s.review(ctx, campaignID, Decision{
		Outcome: OutcomeRejected,
		Status:  models.CampaignStatusRejected,
	})
}

func (s *Service) review(ctx context.Context, campaignID uint, decision Decision) (*models.Campaign, error) {
	c, err := s.load(campaignID)
	if err != nil {
		return nil, err
	}
	if !c.FlaggedForReview || c.Status != models.CampaignStatusActive {
		return nil, apperror.Conflict("campaign is not awaiting review")
	}

	now := s.now()
	decision.Score = c.ModerationScore
	ok, err := s.campaigns.ApplyModeration(c.ID, []string{models.CampaignStatusActive}, repository.ModerationUpdate{
		Score:      c.ModerationScore,
		Status:     decision.Status,
		Flagged:    false,
		ReviewedAt: &now,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.Conflict("campaign status changed concurrently")
	}
	log.Infof("[Moderation] campaign %d reviewed: %s", c.ID, decision.Outcome)

	c.Status = decision.Status
	c.FlaggedForReview = false
	c.ReviewedAt = &now
	if decision.Outcome == OutcomeRejected {
		s.notify(ctx, c, decision)
	}
	return c, nil
}

func (s *Service) load(id uint) (*models.Campaign, error) {
	c, err := s.campaigns.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("campaign not found")
		}
		return nil, err
	}
	if c.Status == models.CampaignStatusDeleted {
		return nil, apperror.NotFound("campaign not found")
	}
	return c, nil
}

func (s *Service) notify(ctx context.Context, c *models.Campaign, d Decision) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.CampaignModerated(ctx, c, d); err != nil {
		log.Warnf("[Moderation] notification for campaign %d failed: %v", c.ID, err)
	}
}
