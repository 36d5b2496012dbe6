package media

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
		Region:          "us-east-1",
		BucketName:      "fundfox-media",
		EndpointURL:     "http://minio.local:9000",
		PublicBaseURL:   "https://cdn.fundfox.test",
		UploadTTL:       10 * time.Minute,
		Enabled:         true,
	}
}

func TestCoverObjectKey(t *testing.T) {
	at := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "campaigns/2026/03/abc.png", CoverObjectKey("abc", ".png", at))
}

func TestPresignCoverUpload(t *testing.T) {
	c, err := NewClient(context.Background(), testConfig())
	require.NoError(t, err)
	c.now = func() time.Time { return time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC) }

	up, err := c.PresignCoverUpload(context.Background(), "image/PNG")
	require.NoError(t, err)

	assert.Equal(t, "PUT", up.Method)
	assert.True(t, strings.HasPrefix(up.Key, "campaigns/2026/03/"))
	assert.True(t, strings.HasSuffix(up.Key, ".png"))
	assert.True(t, strings.HasPrefix(up.URL, "http://minio.local:9000/fundfox-media/"+up.Key))
	assert.Contains(t, up.URL, "X-Amz-Signature=")
	assert.Equal(t, "image/png", up.Headers["Content-Type"])
	assert.Equal(t, "https://cdn.fundfox.test/"+up.Key, up.PublicURL)
	assert.Equal(t, c.now().Add(10*time.Minute), up.ExpiresAt)
	assert.True(t, OwnsKey(up.Key))

	_, err = c.PresignCoverUpload(context.Background(), "application/pdf")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestNewClientDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	_, err := NewClient(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestOwnsKey(t *testing.T) {
	assert.False(t, OwnsKey("images/2026/03/x.png"))
	assert.False(t, OwnsKey("campaigns/../secrets.png"))
	assert.False(t, OwnsKey("campaigns/2026/03/x.exe"))
	assert.True(t, OwnsKey("campaigns/2026/03/x.jpg"))
}
