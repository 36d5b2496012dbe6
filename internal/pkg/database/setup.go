package database

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fundfox/fundfox/app/models"
	"github.com/fundfox/fundfox/internal/pkg/env"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

var DB *gorm.DB

// GetDB returns the shared connection. Nil until SetupDatabase or SetDB ran.
func GetDB() *gorm.DB {
	return DB
}

// SetDB replaces the shared connection (tests, alternative drivers).
func SetDB(db *gorm.DB) {
	DB = db
}

// Config returns the gorm configuration shared by every driver. Duplicate key
// errors are translated to gorm.ErrDuplicatedKey so callers can map them to 409.
func Config() *gorm.Config {
	lvl := logger.Warn
	if env.IsDev() {
		lvl = logger.Info
	}
	return &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(lvl),
	}
}

func SetupDatabase() {
	var err error
	// "user:pass@tcp(127.0.0.1:3306)/dbname?charset=utf8mb4&parseTime=True&loc=UTC"
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		env.GetEnv("DB_USER", ""),
		env.GetEnv("DB_PASSWORD", ""),
		env.GetEnv("DB_HOST", "127.0.0.1"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", ""),
	)

	for i := 0; i < maxRetries; i++ {
		DB, err = gorm.Open(mysql.New(mysql.Config{
			DSN:                       dsn,
			DefaultStringSize:         256,
			DisableDatetimePrecision:  true,
			DontSupportRenameIndex:    true,
			DontSupportRenameColumn:   true,
			SkipInitializeWithVersion: false,
		}), Config())
		if err == nil {
			if merr := Migrate(DB); merr != nil {
				log.Errorf("[Database] auto-migrate failed: %v", merr)
			}
			if serr := models.LoadSettings(DB); serr != nil {
				log.Warnf("[Database] could not load settings, using defaults: %v", serr)
			}
			return
		}

		log.Warnf("[Database] failed to connect (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			log.Infof("[Database] retrying in %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		panic(err)
	}
}

// Migrate creates or updates every table the application uses.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserSettings{},
		&models.Setting{},
		&models.Campaign{},
		&models.RewardTier{},
		&models.Payment{},
		&models.CampaignSupporter{},
		&models.PaymentWebhookEvent{},
		&models.Subscription{},
		&models.Notification{},
		&models.CampaignReport{},
		&models.CampaignComment{},
		&models.CampaignUpdate{},
	)
}
