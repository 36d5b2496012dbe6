package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fundfox/fundfox/app/models"
	"github.com/fundfox/fundfox/internal/pkg/testutil"
)

func TestCommentRepository_CreateBumpsCounter(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCommentRepository(db)
	user := testutil.CreateUser(t, db, "supporter")
	c := testutil.CreateCampaign(t, db, user.ID, nil)

	require.NoError(t, repo.Create(&models.CampaignComment{UserID: user.ID, CampaignID: c.ID, Content: "Good luck!"}))
	require.NoError(t, repo.Create(&models.CampaignComment{UserID: user.ID, CampaignID: c.ID, Content: "Shared it."}))

	assert.Equal(t, int64(2), testutil.ReloadCampaign(t, db, c.ID).CommentCount)

	list, err := repo.ListByCampaign(c.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.NotNil(t, list[0].User)
}

func TestUpdateRepository_Scheduling(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUpdateRepository(db)
	user := testutil.CreateUser(t, db, "creator")
	c := testutil.CreateCampaign(t, db, user.ID, nil)

	future := time.Now().Add(time.Hour)
	require.NoError(t, repo.Create(&models.CampaignUpdate{CampaignID: c.ID, AuthorID: user.ID, Title: "Now", Content: "posted"}))
	require.NoError(t, repo.Create(&models.CampaignUpdate{CampaignID: c.ID, AuthorID: user.ID, Title: "Later", Content: "scheduled", PublishAt: &future}))

	list, err := repo.ListPublished(c.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Now", list[0].Title)

	n, err := repo.PublishDue(time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = repo.PublishDue(future.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	list, err = repo.ListPublished(c.ID, 0, 10)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestReportRepository_DuplicateReporter(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewReportRepository(db)
	user := testutil.CreateUser(t, db, "reporter")
	admin := testutil.CreateUser(t, db, "admin")
	c := testutil.CreateCampaign(t, db, admin.ID, nil)

	first := &models.CampaignReport{CampaignID: c.ID, ReporterID: &user.ID, Reason: "scam"}
	require.NoError(t, repo.Create(first))

	err := repo.Create(&models.CampaignReport{CampaignID: c.ID, ReporterID: &user.ID, Reason: "spam"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// guests have no reporter id and never collide
	require.NoError(t, repo.Create(&models.CampaignReport{CampaignID: c.ID, Reason: "spam"}))
	require.NoError(t, repo.Create(&models.CampaignReport{CampaignID: c.ID, Reason: "spam"}))

	open, err := repo.ListOpen()
	require.NoError(t, err)
	assert.Len(t, open, 3)

	require.NoError(t, repo.Close(first.ID, models.ReportStatusResolved, admin.ID))
	assert.ErrorIs(t, repo.Close(first.ID, models.ReportStatusDismissed, admin.ID), gorm.ErrRecordNotFound)

	closed, err := repo.ListRecentClosed(5)
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, models.ReportStatusResolved, closed[0].Status)
}

func TestNotificationRepository_ReadState(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewNotificationRepository(db)
	user := testutil.CreateUser(t, db, "user")
	stranger := testutil.CreateUser(t, db, "stranger")

	for i := 0; i < 3; i++ {
		require.NoError(t, models.CreateNotification(db, user.ID, models.NotificationSystem, "hello", "body", 0))
	}
	list, err := repo.ListByUser(user.ID, true, 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 3)

	ok, err := repo.MarkRead(stranger.ID, list[0].ID)
	require.NoError(t, err)
	assert.False(t, ok, "cannot read someone else's notification")

	ok, err = repo.MarkRead(user.ID, list[0].ID)
	require.NoError(t, err)
	assert.True(t, ok)

	unread, err := repo.CountUnread(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	n, err := repo.MarkAllRead(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestSubscriptionRepository_Transitions(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewSubscriptionRepository(db)
	supporter := testutil.CreateUser(t, db, "supporter")
	creator := testutil.CreateUser(t, db, "creator")
	c := testutil.CreateCampaign(t, db, creator.ID, nil)

	sub := &models.Subscription{
		CampaignID:            c.ID,
		CreatorID:             creator.ID,
		SupporterID:           supporter.ID,
		GatewaySubscriptionID: "sub_test_1",
		Amount:                500,
		Currency:              "INR",
	}
	require.NoError(t, repo.Create(sub))
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)

	ok, err := repo.TransitionStatus(sub.ID, []string{models.SubscriptionStatusActive, models.SubscriptionStatusPaused}, models.SubscriptionStatusCancelled)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.TransitionStatus(sub.ID, []string{models.SubscriptionStatusActive}, models.SubscriptionStatusPaused)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByGatewayID("sub_test_1")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusCancelled, got.Status)
	assert.NotNil(t, got.CancelledAt)

	end := time.Now().AddDate(0, 1, 0)
	require.NoError(t, repo.IncrementChargeCount(sub.ID, &end))
	got, err = repo.GetByUUID(sub.UUID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ChargeCount)
}
