package media

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fundfox/fundfox/internal/pkg/env"
)

// Config holds object storage settings for campaign media.
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // optional, for S3-compatible services
	PublicBaseURL   string // optional CDN or bucket URL used to build public links
	UploadTTL       time.Duration
	Enabled         bool
}

// LoadConfig loads S3 configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		PublicBaseURL:   strings.TrimRight(env.GetEnv("S3_PUBLIC_BASE_URL", ""), "/"),
		UploadTTL:       env.GetEnvDuration("S3_UPLOAD_URL_TTL", 15*time.Minute),
		Enabled:         env.GetEnvBool("S3_MEDIA_ENABLED", false),
	}

	if cfg.Enabled {
		if cfg.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when media uploads are enabled")
		}
		if cfg.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when media uploads are enabled")
		}
		if cfg.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when media uploads are enabled")
		}
	}
	return cfg, nil
}

// CoverObjectKey is the storage key of a cover image: campaigns/YYYY/MM/<uuid><ext>.
func CoverObjectKey(id, ext string, at time.Time) string {
	return fmt.Sprintf("campaigns/%04d/%02d/%s%s", at.Year(), int(at.Month()), id, ext)
}
