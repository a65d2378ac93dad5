package database

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arnavshah/coverage-scheduler-go/pkg/models"
)

var (
	// ErrScheduleNotFound is returned when no week is stored for an agency and date.
	ErrScheduleNotFound = errors.New("schedule not found")

	// ErrWeekArchived is returned when writing to a week that has been closed out.
	ErrWeekArchived = errors.New("week is archived")

	// ErrVersionConflict is returned when the stored week moved past the
	// version a write was based on.
	ErrVersionConflict = errors.New("schedule version conflict")
)

// Store persists weekly schedules keyed by (agency, week start)
type Store struct {
	DB *gorm.DB
}

// NewStore wraps an open database
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// SaveSchedule stores week as the newest version for its agency and week
// start. A non-zero expectedVersion makes the write conditional on the stored
// version still being expectedVersion.
func (s *Store) SaveSchedule(ctx context.Context, week *models.WeeklySchedule, expectedVersion int) (*StoredSchedule, error) {
	var saved StoredSchedule
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("agency_id = ? AND week_start = ?", week.AgencyID, week.WeekStart).First(&saved).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if expectedVersion > 0 {
				return ErrScheduleNotFound
			}
			saved = StoredSchedule{
				AgencyID:  week.AgencyID,
				WeekStart: week.WeekStart,
				Version:   1,
				Schedule:  *week,
			}
			return tx.Create(&saved).Error
		case err != nil:
			return err
		}

		if saved.Archived {
			return ErrWeekArchived
		}
		if expectedVersion > 0 && saved.Version != expectedVersion {
			return ErrVersionConflict
		}

		next := StoredSchedule{Version: saved.Version + 1, Schedule: *week, UpdatedAt: time.Now()}
		res := tx.Model(&StoredSchedule{}).
			Where("id = ? AND version = ? AND archived = ?", saved.ID, saved.Version, false).
			Select("version", "schedule", "updated_at").
			Updates(&next)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrVersionConflict
		}
		saved.Version = next.Version
		saved.Schedule = next.Schedule
		saved.UpdatedAt = next.UpdatedAt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// LoadSchedule returns the current version of a week
func (s *Store) LoadSchedule(ctx context.Context, agencyID, weekStart string) (*StoredSchedule, error) {
	var saved StoredSchedule
	err := s.DB.WithContext(ctx).
		Where("agency_id = ? AND week_start = ?", agencyID, weekStart).
		First(&saved).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrScheduleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// ArchiveWeek retires a week. Archived weeks accept no further changes.
func (s *Store) ArchiveWeek(ctx context.Context, agencyID, weekStart string) error {
	now := time.Now()
	res := s.DB.WithContext(ctx).Model(&StoredSchedule{}).
		Where("agency_id = ? AND week_start = ?", agencyID, weekStart).
		Updates(map[string]interface{}{"archived": true, "archived_at": &now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

// RecordChange appends a reconciled diff to the change log. The superseding
// schedule itself is stored by SaveSchedule, so it is dropped here.
func (s *Store) RecordChange(ctx context.Context, agencyID string, version int, diff *models.ScheduleDiff) error {
	trimmed := *diff
	trimmed.Schedule = nil
	weekStart := ""
	if diff.Schedule != nil {
		weekStart = diff.Schedule.WeekStart
	}
	return s.DB.WithContext(ctx).Create(&ScheduleChange{
		AgencyID:  agencyID,
		WeekStart: weekStart,
		EventID:   diff.Event.ID,
		EventType: string(diff.Event.Type),
		Version:   version,
		Diff:      trimmed,
	}).Error
}

// ListChanges returns a week's change log, oldest first
func (s *Store) ListChanges(ctx context.Context, agencyID, weekStart string) ([]ScheduleChange, error) {
	var changes []ScheduleChange
	err := s.DB.WithContext(ctx).
		Where("agency_id = ? AND week_start = ?", agencyID, weekStart).
		Order("id asc").
		Find(&changes).Error
	return changes, err
}

// RecordUsage records API usage using a single-query upsert
func (s *Store) RecordUsage(ctx context.Context, keyID uint, elders, caregivers, unfilled int) error {
	today := time.Now().Format("2006-01-02")

	// OnConflict is supported by both Postgres and SQLite
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count":    gorm.Expr("request_count + ?", 1),
			"total_elders":     gorm.Expr("total_elders + ?", elders),
			"total_caregivers": gorm.Expr("total_caregivers + ?", caregivers),
			"total_unfilled":   gorm.Expr("total_unfilled + ?", unfilled),
		}),
	}).Create(&APIUsage{
		KeyID:           keyID,
		Date:            today,
		RequestCount:    1,
		TotalElders:     elders,
		TotalCaregivers: caregivers,
		TotalUnfilled:   unfilled,
	}).Error
}

// Usage returns the most recent daily usage rows for a key
func (s *Store) Usage(ctx context.Context, keyID uint, days int) ([]APIUsage, error) {
	var usage []APIUsage
	err := s.DB.WithContext(ctx).Where("key_id = ?", keyID).Order("date desc").Limit(days).Find(&usage).Error
	return usage, err
}

// RequestsToday returns how many requests a key has made today
func (s *Store) RequestsToday(ctx context.Context, keyID uint) (int, error) {
	var usage APIUsage
	err := s.DB.WithContext(ctx).
		Where("key_id = ? AND date = ?", keyID, time.Now().Format("2006-01-02")).
		First(&usage).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	return usage.RequestCount, err
}
