package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/fundfox/fundfox/app/models"
	"github.com/fundfox/fundfox/app/repository"
	"github.com/fundfox/fundfox/internal/pkg/apperror"
	"github.com/fundfox/fundfox/internal/pkg/cache"
	"github.com/fundfox/fundfox/internal/pkg/media"
	"github.com/fundfox/fundfox/internal/pkg/metrics/counter"
	"github.com/fundfox/fundfox/internal/pkg/money"
	"github.com/fundfox/fundfox/internal/pkg/shortener"
)

type CampaignController struct {
	s *Services
}

func NewCampaignController(s *Services) *CampaignController {
	return &CampaignController{s: s}
}

type createCampaignRequest struct {
	Title         string    `json:"title" validate:"required,min=5,max=200"`
	Summary       string    `json:"summary" validate:"max=500"`
	Story         string    `json:"story" validate:"required,min=20"`
	Category      string    `json:"category" validate:"max=50"`
	GoalAmount    int64     `json:"goal_amount" validate:"gt=0"`
	Currency      string    `json:"currency" validate:"omitempty,len=3"`
	EndDate       time.Time `json:"end_date" validate:"required"`
	CoverImageKey string    `json:"cover_image_key" validate:"max=255"`
}

type updateCampaignRequest struct {
	Title         *string    `json:"title" validate:"omitempty,min=5,max=200"`
	Summary       *string    `json:"summary" validate:"omitempty,max=500"`
	Story         *string    `json:"story" validate:"omitempty,min=20"`
	Category      *string    `json:"category" validate:"omitempty,max=50"`
	GoalAmount    *int64     `json:"goal_amount" validate:"omitempty,gt=0"`
	EndDate       *time.Time `json:"end_date"`
	CoverImageKey *string    `json:"cover_image_key" validate:"omitempty,max=255"`
}

// campaignView adds display fields to a campaign.
type campaignView struct {
	*models.Campaign
	ProgressPercent int    `json:"progress_percent"`
	RaisedDisplay   string `json:"raised_display"`
	GoalDisplay     string `json:"goal_display"`
	CoverURL        string `json:"cover_url,omitempty"`
	UnderReview     bool   `json:"under_review"`
	ShareURL        string `json:"share_url,omitempty"`
}

func (cc *CampaignController) view(c *fiber.Ctx, campaign *models.Campaign) campaignView {
	v := campaignView{
		Campaign:        campaign,
		ProgressPercent: campaign.ProgressPercent(),
		RaisedDisplay:   money.Format(campaign.CurrentAmount, campaign.Currency),
		GoalDisplay:     money.Format(campaign.GoalAmount, campaign.Currency),
		UnderReview:     campaign.FlaggedForReview && campaign.ReviewedAt == nil,
	}
	if cc.s.Media != nil && campaign.CoverImageKey != "" {
		v.CoverURL = cc.s.Media.PublicURL(campaign.CoverImageKey)
	}
	if campaign.ShareSlug != "" {
		v.ShareURL = c.BaseURL() + "/c/" + campaign.ShareSlug
	}
	return v
}

func (cc *CampaignController) views(c *fiber.Ctx, campaigns []models.Campaign) []campaignView {
	out := make([]campaignView, 0, len(campaigns))
	for i := range campaigns {
		out = append(out, cc.view(c, &campaigns[i]))
	}
	return out
}

// loadVisible returns a campaign the caller may read. Drafts and rejected
// campaigns are only visible to their creator and admins.
func (cc *CampaignController) loadVisible(c *fiber.Ctx, id uint) (*models.Campaign, error) {
	campaign, err := cc.s.Repos.Campaign.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("campaign not found")
		}
		return nil, err
	}
	if campaign.Status == models.CampaignStatusDeleted {
		return nil, apperror.NotFound("campaign not found")
	}
	if !campaign.IsPubliclyListed() {
		u := currentUser(c)
		if !u.IsAdmin && u.UserID != campaign.CreatorID {
			return nil, apperror.NotFound("campaign not found")
		}
	}
	return campaign, nil
}

// loadOwned returns a campaign the caller may edit.
func (cc *CampaignController) loadOwned(c *fiber.Ctx, id uint) (*models.Campaign, error) {
	campaign, err := cc.loadVisible(c, id)
	if err != nil {
		return nil, err
	}
	u := currentUser(c)
	if campaign.CreatorID != u.UserID && !u.IsAdmin {
		return nil, apperror.Forbidden("only the creator can change this campaign")
	}
	return campaign, nil
}

// HandleCreate stores a new draft.
func (cc *CampaignController) HandleCreate(c *fiber.Ctx) error {
	var req createCampaignRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if !req.EndDate.After(time.Now()) {
		return apperror.Validation("end_date must be in the future")
	}
	if req.CoverImageKey != "" && !media.OwnsKey(req.CoverImageKey) {
		return apperror.Validation("unknown cover image key")
	}
	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = models.GetAppSettings().GetDefaultCurrency()
	}

	slug, err := shortener.NewShareSlug(func(s string) (bool, error) {
		_, err := cc.s.Repos.Campaign.GetByShareSlug(s)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return err == nil, err
	})
	if err != nil {
		return apperror.Internal("failed to allocate share link", err)
	}

	u := currentUser(c)
	campaign := &models.Campaign{
		CreatorID:     u.UserID,
		Title:         strings.TrimSpace(req.Title),
		Summary:       strings.TrimSpace(req.Summary),
		Story:         req.Story,
		Category:      strings.TrimSpace(req.Category),
		CoverImageKey: req.CoverImageKey,
		GoalAmount:    req.GoalAmount,
		Currency:      currency,
		Status:        models.CampaignStatusDraft,
		EndDate:       req.EndDate.UTC(),
		ShareSlug:     slug,
	}
	if err := campaign.Validate(); err != nil {
		return apperror.Validation(err.Error())
	}
	if err := cc.s.Repos.Campaign.Create(campaign); err != nil {
		return err
	}
	if err := cc.s.Repos.User.IncrementCampaignCount(u.UserID, 1); err != nil {
		log.Warnf("[Campaign] campaign count for user %d not updated: %v", u.UserID, err)
	}
	log.Infof("[Campaign] user %d created draft %d", u.UserID, campaign.ID)
	return ok(c, fiber.StatusCreated, cc.view(c, campaign))
}

// HandleGet returns one campaign and records a view.
func (cc *CampaignController) HandleGet(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	cc.s.Sweeper.SweepIfDue(c.UserContext())

	campaign, err := cc.loadVisible(c, id)
	if err != nil {
		return err
	}
	if campaign.IsPubliclyListed() {
		cc.track(c, campaign.ID, "view_count")
	}
	return ok(c, fiber.StatusOK, cc.view(c, campaign))
}

// HandleGetBySlug resolves a short share link.
func (cc *CampaignController) HandleGetBySlug(c *fiber.Ctx) error {
	cc.s.Sweeper.SweepIfDue(c.UserContext())
	found, err := cc.s.Repos.Campaign.GetByShareSlug(c.Params("slug"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("campaign not found")
		}
		return err
	}
	campaign, err := cc.loadVisible(c, found.ID)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, cc.view(c, campaign))
}

// HandleList lists publicly visible campaigns, newest first with featured on top.
func (cc *CampaignController) HandleList(c *fiber.Ctx) error {
	cc.s.Sweeper.SweepIfDue(c.UserContext())

	filter := repository.CampaignFilter{
		Category: c.Query("category"),
		Query:    c.Query("q"),
		Featured: c.QueryBool("featured", false),
	}
	if status := c.Query("status"); status != "" {
		allowed := false
		for _, s := range models.PublicCampaignStatuses() {
			if s == status {
				allowed = true
			}
		}
		if !allowed {
			return apperror.Validation("status must be active, paused or completed")
		}
		filter.Status = status
	}

	offset, limit := page(c)
	campaigns, err := cc.s.Repos.Campaign.ListPublic(filter, offset, limit)
	if err != nil {
		return err
	}
	total, err := cc.s.Repos.Campaign.CountPublic(filter)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{
		"campaigns": cc.views(c, campaigns),
		"total":     total,
		"offset":    offset,
		"limit":     limit,
	})
}

// HandleMine lists the caller's campaigns in every status except deleted.
func (cc *CampaignController) HandleMine(c *fiber.Ctx) error {
	campaigns, err := cc.s.Repos.Campaign.ListByCreator(currentUser(c).UserID)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, cc.views(c, campaigns))
}

func (cc *CampaignController) HandleTrending(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)
	if limit < 1 || limit > maxPageSize {
		limit = 10
	}
	campaigns, err := cc.s.Trending.Top(c.UserContext(), limit)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, cc.views(c, campaigns))
}

// HandleUpdate edits content fields. Money, status and counters are never
// writable here.
func (cc *CampaignController) HandleUpdate(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req updateCampaignRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	campaign, err := cc.loadOwned(c, id)
	if err != nil {
		return err
	}
	switch campaign.Status {
	case models.CampaignStatusDraft, models.CampaignStatusActive, models.CampaignStatusPaused:
	default:
		return apperror.Conflict("campaign can no longer be edited")
	}

	if req.Title != nil {
		campaign.Title = strings.TrimSpace(*req.Title)
	}
	if req.Summary != nil {
		campaign.Summary = strings.TrimSpace(*req.Summary)
	}
	if req.Story != nil {
		campaign.Story = *req.Story
	}
	if req.Category != nil {
		campaign.Category = strings.TrimSpace(*req.Category)
	}
	if req.GoalAmount != nil {
		campaign.GoalAmount = *req.GoalAmount
	}
	if req.EndDate != nil {
		if !req.EndDate.After(time.Now()) {
			return apperror.Validation("end_date must be in the future")
		}
		campaign.EndDate = req.EndDate.UTC()
	}
	if req.CoverImageKey != nil {
		if *req.CoverImageKey != "" && !media.OwnsKey(*req.CoverImageKey) {
			return apperror.Validation("unknown cover image key")
		}
		campaign.CoverImageKey = *req.CoverImageKey
	}
	if err := campaign.Validate(); err != nil {
		return apperror.Validation(err.Error())
	}
	if err := cc.s.Repos.Campaign.Update(campaign); err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, cc.view(c, campaign))
}

// HandlePublish submits a draft through moderation.
func (cc *CampaignController) HandlePublish(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	res, err := cc.s.Moderation.Publish(c.UserContext(), id, currentUser(c).Actor())
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{
		"campaign":   cc.view(c, res.Campaign),
		"moderation": res.Decision,
	})
}

func (cc *CampaignController) HandlePause(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	campaign, err := cc.s.Lifecycle.Pause(c.UserContext(), id, currentUser(c).Actor())
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, cc.view(c, campaign))
}

func (cc *CampaignController) HandleResume(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	campaign, err := cc.s.Lifecycle.Resume(c.UserContext(), id, currentUser(c).Actor())
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, cc.view(c, campaign))
}

func (cc *CampaignController) HandleDelete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := cc.s.Lifecycle.Delete(c.UserContext(), id, currentUser(c).Actor()); err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

func (cc *CampaignController) HandleTrackView(c *fiber.Ctx) error {
	return cc.handleTrack(c, "view_count")
}

func (cc *CampaignController) HandleTrackShare(c *fiber.Ctx) error {
	return cc.handleTrack(c, "share_count")
}

func (cc *CampaignController) handleTrack(c *fiber.Ctx, column string) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	campaign, err := cc.loadVisible(c, id)
	if err != nil {
		return err
	}
	if !campaign.IsPubliclyListed() {
		return apperror.Conflict("campaign is not public")
	}
	cc.track(c, campaign.ID, column)
	return c.SendStatus(fiber.StatusNoContent)
}

// track buffers a counter in Redis, or writes it straight through when no
// cache is configured. Failures never reach the client.
func (cc *CampaignController) track(c *fiber.Ctx, campaignID uint, column string) {
	var err error
	switch {
	case cache.GetClientIfSet() == nil:
		err = cc.s.Repos.Campaign.IncrementCounter(campaignID, column, 1)
	case column == "share_count":
		err = counter.AddCampaignShare(c.UserContext(), campaignID)
	default:
		err = counter.AddCampaignView(c.UserContext(), campaignID)
	}
	if err != nil {
		log.Warnf("[Campaign] %s for campaign %d not recorded: %v", column, campaignID, err)
	}
}

type coverUploadRequest struct {
	ContentType string `json:"content_type" validate:"required"`
}

// HandleCoverUpload returns a presigned PUT URL for a cover image.
func (cc *CampaignController) HandleCoverUpload(c *fiber.Ctx) error {
	if cc.s.Media == nil {
		return apperror.New(apperror.KindUpstream, "cover uploads are not available")
	}
	var req coverUploadRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	upload, err := cc.s.Media.PresignCoverUpload(c.UserContext(), req.ContentType)
	if err != nil {
		if errors.Is(err, media.ErrUnsupportedType) {
			return apperror.Validation("cover must be a JPEG, PNG or WebP image")
		}
		return apperror.Upstream("could not prepare upload", err)
	}
	return ok(c, fiber.StatusOK, upload)
}

type rewardTierRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=120"`
	Description string `json:"description" validate:"max=2000"`
	MinAmount   int64  `json:"min_amount" validate:"gt=0"`
	LimitCount  int64  `json:"limit_count" validate:"gte=0"`
}

func (cc *CampaignController) HandleCreateRewardTier(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req rewardTierRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	campaign, err := cc.loadOwned(c, id)
	if err != nil {
		return err
	}
	switch campaign.Status {
	case models.CampaignStatusDraft, models.CampaignStatusActive, models.CampaignStatusPaused:
	default:
		return apperror.Conflict("campaign no longer accepts reward tiers")
	}
	if req.MinAmount > campaign.GoalAmount {
		return apperror.Validation("min_amount cannot exceed the goal")
	}
	tier := &models.RewardTier{
		CampaignID:  campaign.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		MinAmount:   req.MinAmount,
		LimitCount:  req.LimitCount,
	}
	if err := cc.s.Repos.RewardTier.Create(tier); err != nil {
		return err
	}
	return ok(c, fiber.StatusCreated, tier)
}

func (cc *CampaignController) HandleListRewardTiers(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if _, err := cc.loadVisible(c, id); err != nil {
		return err
	}
	tiers, err := cc.s.Repos.RewardTier.ListByCampaign(id)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, tiers)
}
