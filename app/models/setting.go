package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Setting represents a system setting
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"column:setting_key;size:255;not null;uniqueIndex" json:"key" validate:"required,min=1,max=255"`
	Value     string    `gorm:"type:text" json:"value"`
	Type      string    `gorm:"size:50;not null" json:"type" validate:"required"` // string, boolean, integer
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppSettings holds runtime settings editable by admins.
type AppSettings struct {
	SiteTitle                string `json:"site_title" validate:"required,min=1,max=255"`
	SiteDescription          string `json:"site_description" validate:"max=500"`
	DefaultCurrency          string `json:"default_currency" validate:"required,len=3"`
	ModerationEnabled        bool   `json:"moderation_enabled"`
	AIAssistEnabled          bool   `json:"ai_assist_enabled"`
	JobQueueWorkerCount      int    `json:"job_queue_worker_count" validate:"min=1,max=20"`
	TrendingPoolSize         int    `json:"trending_pool_size" validate:"min=10,max=5000"`
	LazySweepIntervalSeconds int    `json:"lazy_sweep_interval_seconds" validate:"min=5,max=3600"`
	mu                       sync.RWMutex
}

var (
	appSettings *AppSettings
	settingsMu  sync.RWMutex
)

// DefaultAppSettings returns the built-in defaults used before the database is read.
func DefaultAppSettings() *AppSettings {
	return &AppSettings{
		SiteTitle:                "FundFox",
		SiteDescription:          "Crowdfunding for creators",
		DefaultCurrency:          "INR",
		ModerationEnabled:        true,
		AIAssistEnabled:          true,
		JobQueueWorkerCount:      3,
		TrendingPoolSize:         500,
		LazySweepIntervalSeconds: 30,
	}
}

// GetAppSettings returns the current application settings, or the defaults
// when LoadSettings has not run.
func GetAppSettings() *AppSettings {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	if appSettings == nil {
		return DefaultAppSettings()
	}
	return appSettings
}

// LoadSettings loads settings from database into memory
func LoadSettings(db *gorm.DB) error {
	settingsMu.Lock()
	defer settingsMu.Unlock()

	loaded := DefaultAppSettings()

	var settings []Setting
	if err := db.Find(&settings).Error; err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	for _, setting := range settings {
		switch setting.Key {
		case "site_title":
			loaded.SiteTitle = setting.Value
		case "site_description":
			loaded.SiteDescription = setting.Value
		case "default_currency":
			loaded.DefaultCurrency = setting.Value
		case "moderation_enabled":
			loaded.ModerationEnabled = setting.Value == "true"
		case "ai_assist_enabled":
			loaded.AIAssistEnabled = setting.Value == "true"
		case "job_queue_worker_count":
			loaded.JobQueueWorkerCount = atoiOr(setting.Value, loaded.JobQueueWorkerCount)
		case "trending_pool_size":
			loaded.TrendingPoolSize = atoiOr(setting.Value, loaded.TrendingPoolSize)
		case "lazy_sweep_interval_seconds":
			loaded.LazySweepIntervalSeconds = atoiOr(setting.Value, loaded.LazySweepIntervalSeconds)
		}
	}

	appSettings = loaded
	return nil
}

// SaveSettings saves current settings to database
func SaveSettings(db *gorm.DB, settings *AppSettings) error {
	settingsMu.Lock()
	defer settingsMu.Unlock()

	if err := settings.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	settingsMap := map[string]interface{}{
		"site_title":                  settings.SiteTitle,
		"site_description":            settings.SiteDescription,
		"default_currency":            settings.DefaultCurrency,
		"moderation_enabled":          fmt.Sprintf("%t", settings.ModerationEnabled),
		"ai_assist_enabled":           fmt.Sprintf("%t", settings.AIAssistEnabled),
		"job_queue_worker_count":      settings.JobQueueWorkerCount,
		"trending_pool_size":          settings.TrendingPoolSize,
		"lazy_sweep_interval_seconds": settings.LazySweepIntervalSeconds,
	}

	for key, value := range settingsMap {
		var setting Setting
		result := db.Where("setting_key = ?", key).First(&setting)

		if result.Error != nil {
			if result.Error == gorm.ErrRecordNotFound {
				setting = Setting{
					Key:   key,
					Value: fmt.Sprintf("%v", value),
					Type:  getSettingType(key),
				}
				if err := db.Create(&setting).Error; err != nil {
					return fmt.Errorf("failed to create setting %s: %w", key, err)
				}
			} else {
				return fmt.Errorf("failed to query setting %s: %w", key, result.Error)
			}
		} else {
			setting.Value = fmt.Sprintf("%v", value)
			if err := db.Save(&setting).Error; err != nil {
				return fmt.Errorf("failed to update setting %s: %w", key, err)
			}
		}
	}

	appSettings = settings
	return nil
}

func getSettingType(key string) string {
	switch key {
	case "moderation_enabled", "ai_assist_enabled":
		return "boolean"
	case "job_queue_worker_count", "trending_pool_size", "lazy_sweep_interval_seconds":
		return "integer"
	default:
		return "string"
	}
}

func atoiOr(raw string, def int) int {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// Clone copies the editable fields without the lock.
func (s *AppSettings) Clone() *AppSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &AppSettings{
		SiteTitle:                s.SiteTitle,
		SiteDescription:          s.SiteDescription,
		DefaultCurrency:          s.DefaultCurrency,
		ModerationEnabled:        s.ModerationEnabled,
		AIAssistEnabled:          s.AIAssistEnabled,
		JobQueueWorkerCount:      s.JobQueueWorkerCount,
		TrendingPoolSize:         s.TrendingPoolSize,
		LazySweepIntervalSeconds: s.LazySweepIntervalSeconds,
	}
}

// Validate validates the settings
func (s *AppSettings) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}

// ToJSON converts settings to JSON
func (s *AppSettings) ToJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(s)
}

func (s *AppSettings) GetSiteTitle() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.SiteTitle
}

func (s *AppSettings) GetDefaultCurrency() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.DefaultCurrency
}

func (s *AppSettings) IsModerationEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ModerationEnabled
}

func (s *AppSettings) IsAIAssistEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.AIAssistEnabled
}

func (s *AppSettings) GetJobQueueWorkerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.JobQueueWorkerCount <= 0 {
		return 3
	}
	return s.JobQueueWorkerCount
}

func (s *AppSettings) GetTrendingPoolSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.TrendingPoolSize <= 0 {
		return 500
	}
	return s.TrendingPoolSize
}

// GetLazySweepInterval is the minimum gap between read-triggered expiry sweeps.
func (s *AppSettings) GetLazySweepInterval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.LazySweepIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.LazySweepIntervalSeconds) * time.Second
}
