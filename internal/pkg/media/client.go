// Package media issues presigned upload URLs so clients can put campaign
// cover images straight into object storage.
package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

var ErrUnsupportedType = errors.New("unsupported image type")

// ErrDisabled is returned when object storage is not configured.
var ErrDisabled = errors.New("media uploads are disabled")

var coverTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Upload is what a client needs to PUT a file.
type Upload struct {
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	Key       string            `json:"key"`
	PublicURL string            `json:"public_url,omitempty"`
	ExpiresAt time.Time         `json:"expires_at"`
}

type Client struct {
	s3Client  *s3.Client
	presigner *s3.PresignClient
	config    *Config
	now       func() time.Time
}

func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true // S3-compatible services (MinIO, B2)
		}
	})

	log.Infof("[Media] presigning uploads for bucket %s", cfg.BucketName)
	return &Client{
		s3Client:  s3Client,
		presigner: s3.NewPresignClient(s3Client),
		config:    cfg,
		now:       time.Now,
	}, nil
}

// CheckBucket verifies the bucket is reachable.
func (c *Client) CheckBucket(ctx context.Context) error {
	_, err := c.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.config.BucketName)})
	if err != nil {
		return fmt.Errorf("bucket %s not accessible: %w", c.config.BucketName, err)
	}
	return nil
}

// PresignCoverUpload returns a short-lived PUT URL for a new cover image.
func (c *Client) PresignCoverUpload(ctx context.Context, contentType string) (*Upload, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	ext, ok := coverTypes[contentType]
	if !ok {
		return nil, ErrUnsupportedType
	}

	now := c.now()
	key := CoverObjectKey(uuid.New().String(), ext, now)
	req, err := c.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.config.BucketName),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(c.config.UploadTTL))
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}

	headers := map[string]string{"Content-Type": contentType}
	for name, values := range req.SignedHeader {
		if len(values) > 0 && !strings.EqualFold(name, "host") {
			headers[name] = values[0]
		}
	}
	return &Upload{
		URL:       req.URL,
		Method:    req.Method,
		Headers:   headers,
		Key:       key,
		PublicURL: c.PublicURL(key),
		ExpiresAt: now.Add(c.config.UploadTTL),
	}, nil
}

// PublicURL builds the public link for a stored key, or "" without a base URL.
func (c *Client) PublicURL(key string) string {
	if c == nil || c.config.PublicBaseURL == "" || key == "" {
		return ""
	}
	return c.config.PublicBaseURL + "/" + key
}

// OwnsKey reports whether key looks like a cover key this service issued.
func OwnsKey(key string) bool {
	if !strings.HasPrefix(key, "campaigns/") || strings.Contains(key, "..") {
		return false
	}
	for _, ext := range coverTypes {
		if strings.HasSuffix(key, ext) {
			return true
		}
	}
	return false
}
