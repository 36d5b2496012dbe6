package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/fundfox/fundfox/app/models"
	"github.com/fundfox/fundfox/app/repository"
	"github.com/fundfox/fundfox/internal/pkg/apperror"
)

// Actor is who asks for a transition.
type Actor struct {
	UserID  uint
	IsAdmin bool
}

// Service applies owner and admin driven status transitions. Every write is a
// conditional update on the status the caller observed.
type Service struct {
	campaigns repository.CampaignRepository
	users     repository.UserRepository
	now       func() time.Time
}

func NewService(campaigns repository.CampaignRepository, users repository.UserRepository) *Service {
	return &Service{campaigns: campaigns, users: users, now: time.Now}
}

func (s *Service) load(id uint, actor Actor) (*models.Campaign, error) {
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
	if c.CreatorID != actor.UserID && !actor.IsAdmin {
		return nil, apperror.Forbidden("only the creator can change this campaign")
	}
	return c, nil
}

func (s *Service) transition(c *models.Campaign, to string) (*models.Campaign, error) {
	if !models.CanTransition(c.Status, to) {
		return nil, apperror.Conflict(fmt.Sprintf("campaign cannot move from %s to %s", c.Status, to))
	}
	ok, err := s.campaigns.TransitionStatus(c.ID, []string{c.Status}, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.Conflict("campaign status changed concurrently")
	}
	log.Infof("[Lifecycle] campaign %d %s -> %s", c.ID, c.Status, to)
	c.Status = to
	return c, nil
}

func (s *Service) Pause(ctx context.Context, campaignID uint, actor Actor) (*models.Campaign, error) {
	_ = ctx
	c, err := s.load(campaignID, actor)
	if err != nil {
		return nil, err
	}
	if c.IsExpired(s.now()) {
		return nil, apperror.Conflict("campaign has already ended")
	}
	return s.transition(c, models.CampaignStatusPaused)
}

func (s *Service) Resume(ctx context.Context, campaignID uint, actor Actor) (*models.Campaign, error) {
	_ = ctx
	c, err := s.load(campaignID, actor)
	if err != nil {
		return nil, err
	}
	if c.IsExpired(s.now()) {
		return nil, apperror.Conflict("campaign has already ended")
	}
	return s.transition(c, models.CampaignStatusActive)
}

// Delete soft-deletes the campaign. Payments and totals stay untouched.
func (s *Service) Delete(ctx context.Context, campaignID uint, actor Actor) error {
	_ = ctx
	c, err := s.load(campaignID, actor)
	if err != nil {
		return err
	}
	if _, err := s.transition(c, models.CampaignStatusDeleted); err != nil {
		return err
	}
	if err := s.users.IncrementCampaignCount(c.CreatorID, -1); err != nil {
		log.Warnf("[Lifecycle] campaign count for user %d not updated: %v", c.CreatorID, err)
	}
	return nil
}
