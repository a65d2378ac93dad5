package database

import (
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/arnavshah/coverage-scheduler-go/pkg/models"
)

// APIKey represents the api_keys table. Name holds the agency id the key
// was issued for. Revoked keys keep their row so they are never re-created.
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"unique;not null" json:"-"`
	KeyPreview string     `json:"key_preview"`
	Name       string     `gorm:"not null" json:"name"`
	RateLimit  int        `gorm:"default:10000" json:"rate_limit"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}

// Revoked reports whether the key was revoked by an admin
func (k *APIKey) Revoked() bool {
	return k.RevokedAt != nil
}

// APIUsage represents the api_usage table
type APIUsage struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	KeyID           uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date            string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount    int    `gorm:"default:0" json:"request_count"`
	TotalElders     int    `gorm:"default:0" json:"total_elders"`
	TotalCaregivers int    `gorm:"default:0" json:"total_caregivers"`
	TotalUnfilled   int    `gorm:"default:0" json:"total_unfilled"`
}

// MasterUser represents the master_users table
type MasterUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// StoredSchedule is the current version of an agency's week
type StoredSchedule struct {
	ID         uint                  `gorm:"primaryKey" json:"id"`
	AgencyID   string                `gorm:"uniqueIndex:idx_agency_week;not null" json:"agency_id"`
	WeekStart  string                `gorm:"uniqueIndex:idx_agency_week;not null" json:"week_start"`
	Version    int                   `gorm:"not null" json:"version"`
	Archived   bool                  `gorm:"default:false" json:"archived"`
	ArchivedAt *time.Time            `json:"archived_at,omitempty"`
	Schedule   models.WeeklySchedule `gorm:"serializer:json" json:"schedule"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// ScheduleChange is one reconciled change event and the diff it produced
type ScheduleChange struct {
	ID        uint                `gorm:"primaryKey" json:"id"`
	AgencyID  string              `gorm:"index:idx_change_week;not null" json:"agency_id"`
	WeekStart string              `gorm:"index:idx_change_week;not null" json:"week_start"`
	EventID   string              `gorm:"not null" json:"event_id"`
	EventType string              `gorm:"not null" json:"event_type"`
	Version   int                 `json:"version"`
	Diff      models.ScheduleDiff `gorm:"serializer:json" json:"diff"`
	CreatedAt time.Time           `json:"created_at"`
}

// Open connects to Postgres when databaseURL is set and to a SQLite file otherwise
func Open(databaseURL, dataPath string) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	if databaseURL != "" {
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  databaseURL,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	} else {
		if dataPath == "" {
			dataPath = "scheduler.db"
		}
		db, err = gorm.Open(sqlite.Open(dataPath), &gorm.Config{})
	}
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&APIKey{}, &APIUsage{}, &MasterUser{}, &StoredSchedule{}, &ScheduleChange{})
}
