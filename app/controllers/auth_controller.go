package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/fundfox/fundfox/app/models"
	"github.com/fundfox/fundfox/internal/pkg/apperror"
	"github.com/fundfox/fundfox/internal/pkg/session"
	"github.com/fundfox/fundfox/internal/pkg/usercontext"
	"github.com/fundfox/fundfox/internal/pkg/utils"
)

type AuthController struct {
	s *Services
}

func NewAuthController(s *Services) *AuthController {
	return &AuthController{s: s}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=3,max=150"`
	Email    string `json:"email" validate:"required,email,max=200"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleRegister creates an active account and signs it in.
func (ac *AuthController) HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	user, err := models.CreateUser(strings.TrimSpace(req.Name), strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if err != nil {
		return apperror.Validation(err.Error())
	}
	user.AvatarURL = utils.GetGravatarURL(user.Email, 0)
	if err := ac.s.Repos.User.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.Conflict("email already registered")
		}
		return err
	}
	if err := signIn(c, user); err != nil {
		return err
	}
	log.Infof("[Auth] registered user %d", user.ID)
	return ok(c, fiber.StatusCreated, user)
}

func (ac *AuthController) HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	user, err := ac.s.Repos.User.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.Unauthorized("invalid email or password")
		}
		return err
	}
	if !user.CheckPassword(req.Password) {
		return apperror.Unauthorized("invalid email or password")
	}
	if !user.IsActive() {
		return apperror.Forbidden("account is not active")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := ac.s.Repos.User.Update(user); err != nil {
		log.Warnf("[Auth] failed to record login for user %d: %v", user.ID, err)
	}
	if err := signIn(c, user); err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, user)
}

func (ac *AuthController) HandleLogout(c *fiber.Ctx) error {
	if err := session.Destroy(c); err != nil {
		return apperror.Internal("logout failed", err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"logged_out": true})
}

// HandleMe returns the signed-in account.
func (ac *AuthController) HandleMe(c *fiber.Ctx) error {
	user, err := ac.s.Repos.User.GetByID(currentUser(c).UserID)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, user)
}

func signIn(c *fiber.Ctx, user *models.User) error {
	store := session.GetSessionStore()
	if store == nil {
		return apperror.Internal("session store not initialized", nil)
	}
	sess, err := store.Get(c)
	if err != nil {
		return apperror.Internal("failed to load session", err)
	}
	if err := sess.Regenerate(); err != nil {
		return apperror.Internal("failed to rotate session", err)
	}
	sess.Set(usercontext.AuthKey, true)
	sess.Set(usercontext.KeyUserID, user.ID)
	sess.Set(usercontext.KeyUsername, user.Name)
	sess.Set(usercontext.KeyIsAdmin, user.IsAdmin())
	if err := sess.Save(); err != nil {
		return apperror.Internal("failed to save session", err)
	}
	return nil
}
