package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/fundfox/fundfox/app/models"
	"github.com/fundfox/fundfox/internal/pkg/apperror"
	"github.com/fundfox/fundfox/internal/pkg/hcaptcha"
)

type ReportController struct {
	s         *Services
	campaigns *CampaignController
}

func NewReportController(s *Services) *ReportController {
	return &ReportController{s: s, campaigns: NewCampaignController(s)}
}

type reportRequest struct {
	Reason       string `json:"reason" validate:"required,oneof=spam scam inappropriate prohibited other"`
	Details      string `json:"details" validate:"max=2000"`
	CaptchaToken string `json:"captcha_token"`
}

// HandleSubmit files a report against a campaign. Signed-in users may report
// a campaign once; guests must pass the captcha when it is configured.
func (rc *ReportController) HandleSubmit(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req reportRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if req.Reason == "other" && len(strings.TrimSpace(req.Details)) < 5 {
		return apperror.Validation("please describe the problem")
	}

	u := currentUser(c)
	if !u.IsLoggedIn && rc.s.Captcha != nil {
		if err := rc.s.Captcha.Verify(c.UserContext(), req.CaptchaToken); err != nil && !errors.Is(err, hcaptcha.ErrNotConfigured) {
			log.Infof("[Report] captcha rejected for campaign %d: %v", id, err)
			return apperror.Validation("captcha verification failed")
		}
	}

	campaign, err := rc.campaigns.loadVisible(c, id)
	if err != nil {
		return err
	}

	ipv4, ipv6 := GetClientIP(c)
	report := &models.CampaignReport{
		CampaignID:   campaign.ID,
		Reason:       req.Reason,
		Details:      strings.TrimSpace(req.Details),
		ReporterIPv4: ipv4,
		ReporterIPv6: ipv6,
	}
	if u.IsLoggedIn {
		reporter := u.UserID
		report.ReporterID = &reporter
	}
	if err := rc.s.Repos.Report.Create(report); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.Conflict("you have already reported this campaign")
		}
		return err
	}
	log.Infof("[Report] campaign %d reported for %s", campaign.ID, report.Reason)
	return ok(c, fiber.StatusCreated, fiber.Map{"id": report.ID, "status": report.Status})
}

// HandleAdminList returns open reports and the most recently closed ones.
func (rc *ReportController) HandleAdminList(c *fiber.Ctx) error {
	open, err := rc.s.Repos.Report.ListOpen()
	if err != nil {
		return err
	}
	closed, err := rc.s.Repos.Report.ListRecentClosed(20)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"open": open, "recent": closed})
}

func (rc *ReportController) HandleAdminResolve(c *fiber.Ctx) error {
	return rc.close(c, models.ReportStatusResolved)
}

func (rc *ReportController) HandleAdminDismiss(c *fiber.Ctx) error {
	return rc.close(c, models.ReportStatusDismissed)
}

func (rc *ReportController) close(c *fiber.Ctx, status string) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := rc.s.Repos.Report.Close(id, status, currentUser(c).UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("open report not found")
		}
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"id": id, "status": status})
}
