package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundfox/fundfox/app/models"
	"github.com/fundfox/fundfox/internal/pkg/apperror"
	"github.com/fundfox/fundfox/internal/pkg/testutil"
)

func TestSubscriptionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	supporter := testutil.CreateUser(t, f.db, "supporter")
	stranger := testutil.CreateUser(t, f.db, "stranger")

	sub, url, err := f.svc.Subscribe(ctx, SubscribeInput{CampaignID: f.campaign.ID, SupporterID: supporter.ID, Amount: 500, Interval: "yearly"})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example", url)
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, f.creator.ID, sub.CreatorID)

	_, err = f.svc.PauseSubscription(ctx, stranger.ID, sub.UUID)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	got, err := f.svc.PauseSubscription(ctx, supporter.ID, sub.UUID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusPaused, got.Status)

	_, err = f.svc.PauseSubscription(ctx, supporter.ID, sub.UUID)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	_, err = f.svc.ResumeSubscription(ctx, supporter.ID, sub.UUID)
	require.NoError(t, err)
	_, err = f.svc.CancelSubscription(ctx, supporter.ID, sub.UUID)
	require.NoError(t, err)

	_, err = f.svc.ResumeSubscription(ctx, supporter.ID, sub.UUID)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	gwID := sub.GatewaySubscriptionID
	assert.Equal(t, []string{"pause:" + gwID, "resume:" + gwID, "cancel:" + gwID}, f.gw.calls)

	// subscribing never moves campaign totals
	assert.Equal(t, int64(0), testutil.ReloadCampaign(t, f.db, f.campaign.ID).CurrentAmount)
}

func TestSubscribe_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	supporter := testutil.CreateUser(t, f.db, "supporter")

	_, _, err := f.svc.Subscribe(ctx, SubscribeInput{CampaignID: f.campaign.ID, SupporterID: supporter.ID, Amount: 500, Interval: "weekly"})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, _, err = f.svc.Subscribe(ctx, SubscribeInput{CampaignID: f.campaign.ID, SupporterID: f.creator.ID, Amount: 500})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	f.gw.fail = errors.New("timeout")
	_, _, err = f.svc.Subscribe(ctx, SubscribeInput{CampaignID: f.campaign.ID, SupporterID: supporter.ID, Amount: 500})
	assert.Equal(t, apperror.KindUpstream, apperror.KindOf(err))
}
