package controllers

import (
	"context"

	"github.com/fundfox/fundfox/app/repository"
	"github.com/fundfox/fundfox/internal/pkg/assistant"
	"github.com/fundfox/fundfox/internal/pkg/ledger"
	"github.com/fundfox/fundfox/internal/pkg/lifecycle"
	"github.com/fundfox/fundfox/internal/pkg/media"
	"github.com/fundfox/fundfox/internal/pkg/moderation"
	"github.com/fundfox/fundfox/internal/pkg/notify"
	"github.com/fundfox/fundfox/internal/pkg/trending"
)

// CoverUploader issues upload URLs for campaign cover images.
type CoverUploader interface {
	PresignCoverUpload(ctx context.Context, contentType string) (*media.Upload, error)
	PublicURL(key string) string
}

// CaptchaVerifier checks a guest's captcha token.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token string) error
}

// JobEnqueuer hands batch work to the background queue.
type JobEnqueuer interface {
	EnqueueReconcile(ctx context.Context, campaignIDs []uint) (int, error)
	EnqueueWeeklySummaries(ctx context.Context, creatorIDs []uint) (int, error)
}

// Services bundles everything the HTTP handlers call. Media, Captcha and Jobs
// are optional.
type Services struct {
	Repos      *repository.Repositories
	Ledger     *ledger.Service
	Lifecycle  *lifecycle.Service
	Sweeper    *lifecycle.Sweeper
	Trending   *trending.Service
	Moderation *moderation.Service
	Assistant  *assistant.Service
	Notify     *notify.Service
	Media      CoverUploader
	Captcha    CaptchaVerifier
	Jobs       JobEnqueuer
}
