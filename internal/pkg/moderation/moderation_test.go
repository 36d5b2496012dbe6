package moderation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundfox/fundfox/app/models"
	"github.com/fundfox/fundfox/app/repository"
	"github.com/fundfox/fundfox/internal/pkg/apperror"
	"github.com/fundfox/fundfox/internal/pkg/lifecycle"
	"github.com/fundfox/fundfox/internal/pkg/testutil"
)

type fixedClassifier struct {
	score      int
	categories []string
}

func (f fixedClassifier) Classify(ctx context.Context, content Content) (*Result, error) {
	return &Result{Score: f.score, Categories: f.categories, Source: "fixed"}, nil
}

type recordingNotifier struct {
	decisions []Decision
	err       error
}

func (r *recordingNotifier) CampaignModerated(ctx context.Context, c *models.Campaign, d Decision) error {
	r.decisions = append(r.decisions, d)
	return r.err
}

func TestDecide(t *testing.T) {
	tests := []struct {
		score   int
		outcome Outcome
		status  string
		flagged bool
	}{
		{0, OutcomeApproved, models.CampaignStatusActive, false},
		{45, OutcomeApproved, models.CampaignStatusActive, false},
		{49, OutcomeApproved, models.CampaignStatusActive, false},
		{50, OutcomeFlagged, models.CampaignStatusActive, true},
		{65, OutcomeFlagged, models.CampaignStatusActive, true},
		{89, OutcomeFlagged, models.CampaignStatusActive, true},
		{90, OutcomeRejected, models.CampaignStatusRejected, false},
		{95, OutcomeRejected, models.CampaignStatusRejected, false},
		{150, OutcomeRejected, models.CampaignStatusRejected, false},
	}
	for _, tt := range tests {
		d := Decide(tt.score)
		assert.Equal(t, tt.outcome, d.Outcome, "score %d", tt.score)
		assert.Equal(t, tt.status, d.Status, "score %d", tt.score)
		assert.Equal(t, tt.flagged, d.Flagged, "score %d", tt.score)
	}
	assert.Equal(t, 100, Decide(150).Score)
	assert.Equal(t, 0, Decide(-3).Score)
}

func newPublishFixture(t *testing.T, score int) (*Service, repository.CampaignRepository, *recordingNotifier, *models.Campaign) {
	t.Helper()
	db := testutil.NewDB(t)
	creator := testutil.CreateUser(t, db, "creator")
	c := testutil.CreateCampaign(t, db, creator.ID, func(c *models.Campaign) {
		c.Status = models.CampaignStatusDraft
	})
	campaigns := repository.NewCampaignRepository(db)
	notifier := &recordingNotifier{}
	svc := NewService(campaigns, fixedClassifier{score: score, categories: []string{CategorySpam}}, notifier)
	svc.enabled = func() bool { return true }
	return svc, campaigns, notifier, c
}

func TestPublish_Thresholds(t *testing.T) {
	tests := []struct {
		name     string
		score    int
		status   string
		flagged  bool
		listed   bool
		notified bool
	}{
		{"approved", 45, models.CampaignStatusActive, false, true, false},
		{"flagged but visible", 65, models.CampaignStatusActive, true, true, true},
		{"rejected and unlisted", 95, models.CampaignStatusRejected, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, campaigns, notifier, c := newPublishFixture(t, tt.score)

			res, err := svc.Publish(context.Background(), c.ID, lifecycle.Actor{UserID: c.CreatorID})
			require.NoError(t, err)
			assert.Equal(t, tt.status, res.Campaign.Status)

			got, err := campaigns.GetByID(c.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.flagged, got.FlaggedForReview)
			assert.Equal(t, tt.score, got.ModerationScore)
			assert.Equal(t, tt.listed, got.IsPubliclyListed())
			assert.Equal(t, tt.status == models.CampaignStatusActive, got.PublishedAt != nil)

			public, err := campaigns.ListPublic(repository.CampaignFilter{}, 0, 10)
			require.NoError(t, err)
			assert.Equal(t, tt.listed, len(public) == 1)

			assert.Equal(t, tt.notified, len(notifier.decisions) == 1)
		})
	}
}

func TestPublish_Rules(t *testing.T) {
	t.Run("not the owner", func(t *testing.T) {
		svc, _, _, c := newPublishFixture(t, 10)
		_, err := svc.Publish(context.Background(), c.ID, lifecycle.Actor{UserID: c.CreatorID + 100})
		assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
	})

	t.Run("already published", func(t *testing.T) {
		svc, _, _, c := newPublishFixture(t, 10)
		_, err := svc.Publish(context.Background(), c.ID, lifecycle.Actor{UserID: c.CreatorID})
		require.NoError(t, err)
		_, err = svc.Publish(context.Background(), c.ID, lifecycle.Actor{UserID: c.CreatorID})
		assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	})

	t.Run("end date passed", func(t *testing.T) {
		svc, _, _, c := newPublishFixture(t, 10)
		svc.now = func() time.Time { return c.EndDate.Add(time.Hour) }
		_, err := svc.Publish(context.Background(), c.ID, lifecycle.Actor{UserID: c.CreatorID})
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	})

	t.Run("moderation disabled approves", func(t *testing.T) {
		svc, _, _, c := newPublishFixture(t, 99)
		svc.enabled = func() bool { return false }
		res, err := svc.Publish(context.Background(), c.ID, lifecycle.Actor{UserID: c.CreatorID})
		require.NoError(t, err)
		assert.Equal(t, OutcomeApproved, res.Decision.Outcome)
	})

	t.Run("notifier failure does not fail publish", func(t *testing.T) {
		svc, _, notifier, c := newPublishFixture(t, 70)
		notifier.err = errors.New("smtp down")
		res, err := svc.Publish(context.Background(), c.ID, lifecycle.Actor{UserID: c.CreatorID})
		require.NoError(t, err)
		assert.True(t, res.Decision.Flagged)
	})
}

func TestReview(t *testing.T) {
	svc, campaigns, notifier, c := newPublishFixture(t, 70)
	_, err := svc.Publish(context.Background(), c.ID, lifecycle.Actor{UserID: c.CreatorID})
	require.NoError(t, err)

	flagged, err := campaigns.ListFlagged(0, 10)
	require.NoError(t, err)
	require.Len(t, flagged, 1)

	got, err := svc.Approve(context.Background(), c.ID)
	require.NoError(t, err)
	assert.False(t, got.FlaggedForReview)
	assert.NotNil(t, got.ReviewedAt)

	_, err = svc.Reject(context.Background(), c.ID)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err), "approved campaigns leave the queue")

	reloaded, err := campaigns.GetByID(c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusActive, reloaded.Status)
	assert.Equal(t, 70, reloaded.ModerationScore)
	assert.Len(t, notifier.decisions, 1)
}

func TestReview_Reject(t *testing.T) {
	svc, campaigns, notifier, c := newPublishFixture(t, 80)
	_, err := svc.Publish(context.Background(), c.ID, lifecycle.Actor{UserID: c.CreatorID})
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), c.ID)
	require.NoError(t, err)

	got, err := campaigns.GetByID(c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusRejected, got.Status)
	assert.False(t, got.IsPubliclyListed())
	require.Len(t, notifier.decisions, 2)
	assert.Equal(t, OutcomeRejected, notifier.decisions[1].Outcome)
}
