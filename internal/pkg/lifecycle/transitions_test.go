package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundfox/fundfox/app/models"
	"github.com/fundfox/fundfox/app/repository"
	"github.com/fundfox/fundfox/internal/pkg/apperror"
	"github.com/fundfox/fundfox/internal/pkg/testutil"
)

func TestTransitions(t *testing.T) {
	db := testutil.NewDB(t)
	repos := repository.NewRepositories(db)
	svc := NewService(repos.Campaign, repos.User)
	ctx := context.Background()

	creator := testutil.CreateUser(t, db, "creator")
	other := testutil.CreateUser(t, db, "other")
	c := testutil.CreateCampaign(t, db, creator.ID, nil)
	owner := Actor{UserID: creator.ID}

	_, err := svc.Pause(ctx, c.ID, Actor{UserID: other.ID})
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	got, err := svc.Pause(ctx, c.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusPaused, got.Status)

	_, err = svc.Pause(ctx, c.ID, owner)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	got, err = svc.Resume(ctx, c.ID, Actor{UserID: other.ID, IsAdmin: true})
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusActive, got.Status)

	require.NoError(t, svc.Delete(ctx, c.ID, owner))
	assert.Equal(t, models.CampaignStatusDeleted, testutil.ReloadCampaign(t, db, c.ID).Status)

	_, err = svc.Resume(ctx, c.ID, owner)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestResume_ExpiredCampaignStaysPaused(t *testing.T) {
	db := testutil.NewDB(t)
	repos := repository.NewRepositories(db)
	svc := NewService(repos.Campaign, repos.User)
	creator := testutil.CreateUser(t, db, "creator")
	c := testutil.CreateCampaign(t, db, creator.ID, func(c *models.Campaign) {
		c.Status = models.CampaignStatusPaused
		c.EndDate = time.Now().Add(-time.Hour)
	})

	_, err := svc.Resume(context.Background(), c.ID, Actor{UserID: creator.ID})
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	assert.Equal(t, models.CampaignStatusPaused, testutil.ReloadCampaign(t, db, c.ID).Status)
}

func TestCompletedCannotReopen(t *testing.T) {
	db := testutil.NewDB(t)
	repos := repository.NewRepositories(db)
	svc := NewService(repos.Campaign, repos.User)
	creator := testutil.CreateUser(t, db, "creator")
	c := testutil.CreateCampaign(t, db, creator.ID, func(c *models.Campaign) { c.Status = models.CampaignStatusCompleted })

	_, err := svc.Resume(context.Background(), c.ID, Actor{UserID: creator.ID})
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
}
