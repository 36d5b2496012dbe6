package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/fundfox/fundfox/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, *models.UserSettings, error)
	Update(user *models.User) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	ListCreators(offset, limit int) ([]models.User, error)
	IncrementCampaignCount(userID uint, delta int64) error
}

// CampaignFilter narrows public listings.
type CampaignFilter struct {
	Category string
	Status   string
	Query    string
	Featured bool
}

// CampaignRepository defines campaign persistence, including the atomic
// statements the lifecycle and ledger rely on.
type CampaignRepository interface {
	Create(campaign *models.Campaign) error
	GetByID(id uint) (*models.Campaign, error)
	GetByUUID(uuid string) (*models.Campaign, error)
	GetByShareSlug(slug string) (*models.Campaign, error)
	Update(campaign *models.Campaign) error
	ListPublic(filter CampaignFilter, offset, limit int) ([]models.Campaign, error)
	CountPublic(filter CampaignFilter) (int64, error)
	ListByCreator(creatorID uint) ([]models.Campaign, error)
	ListFlagged(offset, limit int) ([]models.Campaign, error)
	TransitionStatus(id uint, from []string, to string) (bool, error)
	ExpireDue(now time.Time) (int64, error)
	IncrementCounter(id uint, column string, delta int64) error
	TrendingCandidates(now time.Time, limit int) ([]models.Campaign, error)
	SetFeatured(id uint, featured bool) error
	ApplyModeration(id uint, from []string, update ModerationUpdate) (bool, error)
	ListActiveIDs() ([]uint, error)
}

// ModerationUpdate is the column set written when a moderation decision is applied.
type ModerationUpdate struct {
	Score       int
	Categories  []byte
	Status      string
	Flagged     bool
	PublishedAt *time.Time
	ReviewedAt  *time.Time
}

// PaymentRepository defines read access to the payment ledger. Writes that
// change settlement state live in the ledger package.
type PaymentRepository interface {
	ListSuccessfulByCampaign(campaignID uint, offset, limit int) ([]models.Payment, error)
	ListByPayer(payerID uint, offset, limit int) ([]models.Payment, error)
	GetDailyStatsForCreator(creatorID uint, startDate, endDate time.Time) ([]models.DailyStats, error)
	SumSuccessfulSince(creatorID uint, since time.Time) (int64, int64, error)
}

type RewardTierRepository interface {
	Create(tier *models.RewardTier) error
	GetByID(id uint) (*models.RewardTier, error)
	ListByCampaign(campaignID uint) ([]models.RewardTier, error)
}

type SubscriptionRepository interface {
	Create(sub *models.Subscription) error
	GetByUUID(uuid string) (*models.Subscription, error)
	GetByGatewayID(gatewaySubscriptionID string) (*models.Subscription, error)
	ListBySupporter(supporterID uint) ([]models.Subscription, error)
	TransitionStatus(id uint, from []string, to string) (bool, error)
	IncrementChargeCount(id uint, periodEnd *time.Time) error
}

type NotificationRepository interface {
	Create(n *models.Notification) error
	ListByUser(userID uint, unreadOnly bool, offset, limit int) ([]models.Notification, error)
	CountUnread(userID uint) (int64, error)
	MarkRead(userID, id uint) (bool, error)
	MarkAllRead(userID uint) (int64, error)
}

type ReportRepository interface {
	Create(report *models.CampaignReport) error
	GetByID(id uint) (*models.CampaignReport, error)
	ListOpen() ([]models.CampaignReport, error)
	ListRecentClosed(limit int) ([]models.CampaignReport, error)
	Close(id uint, status string, adminID uint) error
}

type CommentRepository interface {
	Create(comment *models.CampaignComment) error
	ListByCampaign(campaignID uint, offset, limit int) ([]models.CampaignComment, error)
}

type UpdateRepository interface {
	Create(update *models.CampaignUpdate) error
	ListPublished(campaignID uint, offset, limit int) ([]models.CampaignUpdate, error)
	PublishDue(now time.Time) (int64, error)
}

// SettingRepository defines the interface for application settings
type SettingRepository interface {
	Get() (*models.AppSettings, error)
	Save(settings *models.AppSettings) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User         UserRepository
	Campaign     CampaignRepository
	Payment      PaymentRepository
	RewardTier   RewardTierRepository
	Subscription SubscriptionRepository
	Notification NotificationRepository
	Report       ReportRepository
	Comment      CommentRepository
	Update       UpdateRepository
	Setting      SettingRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Campaign:     NewCampaignRepository(db),
		Payment:      NewPaymentRepository(db),
		RewardTier:   NewRewardTierRepository(db),
		Subscription: NewSubscriptionRepository(db),
		Notification: NewNotificationRepository(db),
		Report:       NewReportRepository(db),
		Comment:      NewCommentRepository(db),
		Update:       NewUpdateRepository(db),
		Setting:      NewSettingRepository(db),
	}
}
