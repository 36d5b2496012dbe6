package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fundfox/fundfox/app/models"
)

// CreateUser inserts an active user with a unique email.
func CreateUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	u := &models.User{
		Name:     name,
		Email:    fmt.Sprintf("%s-%d@example.com", name, time.Now().UnixNano()),
		Password: "$2a$10$abcdefghijklmnopqrstuv", // not a usable hash
		Role:     models.ROLE_USER,
		Status:   models.STATUS_ACTIVE,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateCampaign inserts an active campaign ending in a week; mutate may
// adjust fields before insert.
func CreateCampaign(t *testing.T, db *gorm.DB, creatorID uint, mutate func(c *models.Campaign)) *models.Campaign {
	t.Helper()
	c := &models.Campaign{
		CreatorID:  creatorID,
		Title:      "Community garden",
		Story:      "Turning the empty lot on Elm street into a vegetable garden.",
		GoalAmount: 10000,
		Currency:   "INR",
		Status:     models.CampaignStatusActive,
		EndDate:    time.Now().Add(7 * 24 * time.Hour),
	}
	if mutate != nil {
		mutate(c)
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

// CreatePendingPayment inserts a pending payment for campaignID with the given order id.
func CreatePendingPayment(t *testing.T, db *gorm.DB, campaignID uint, payerID *uint, orderID string, amount int64) *models.Payment {
	t.Helper()
	p := &models.Payment{
		CampaignID:     campaignID,
		PayerID:        payerID,
		Amount:         amount,
		Currency:       "INR",
		Status:         models.PaymentStatusPending,
		GatewayOrderID: orderID,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// ReloadCampaign reads the campaign fresh from the database.
func ReloadCampaign(t *testing.T, db *gorm.DB, id uint) *models.Campaign {
	t.Helper()
	var c models.Campaign
	require.NoError(t, db.First(&c, id).Error)
	return &c
}
