package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserSettingsIssueAPIKey(t *testing.T) {
	us := &UserSettings{UserID: 1}

	key, err := us.IssueAPIKey()
	require.NoError(t, err)
	require.NotEmpty(t, key)

	assert.NotEmpty(t, us.APIKeyHash)
	assert.NotEmpty(t, us.APIKeyPrefix)
	assert.NotNil(t, us.APIKeyCreatedAt)
	assert.Nil(t, us.APIKeyLastUsedAt)
	assert.True(t, us.HasActiveAPIKey())
	assert.Equal(t, HashAPIKey(key), us.APIKeyHash)
}

func TestUserSettingsRevokeAPIKey(t *testing.T) {
	us := &UserSettings{UserID: 99}
	_, err := us.IssueAPIKey()
	require.NoError(t, err)

	us.RevokeAPIKey()

	assert.False(t, us.HasActiveAPIKey())
	assert.Equal(t, "", us.APIKeyHash)
	assert.Equal(t, "", us.APIKeyPrefix)
	assert.NotNil(t, us.APIKeyRevokedAt)
}

func TestAppSettingsDefaultsValidate(t *testing.T) {
	s := DefaultAppSettings()
	require.NoError(t, s.Validate())
	assert.Equal(t, "INR", s.GetDefaultCurrency())
	assert.True(t, s.IsModerationEnabled())
	assert.Equal(t, 500, s.GetTrendingPoolSize())

	s.JobQueueWorkerCount = 0
	assert.Error(t, s.Validate())
	assert.Equal(t, 3, s.GetJobQueueWorkerCount())
}

func TestCreateUserHashesPassword(t *testing.T) {
	u, err := CreateUser("creator", "creator@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", u.Password)
	assert.True(t, u.CheckPassword("s3cret-pass"))
	assert.True(t, u.IsActive())

	_, err = CreateUser("x", "not-an-email", "short")
	assert.Error(t, err)
}
