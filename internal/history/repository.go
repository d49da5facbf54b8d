package history

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Keep is the number of records retained after each write.
const Keep = 100

// Store defines persistence operations for pipeline run history.
type Store interface {
	RecentKeys(ctx context.Context, window time.Duration, limit int) ([]string, error)
	Record(ctx context.Context, record *Record) error
	SuccessOn(ctx context.Context, date time.Time) (bool, error)
	Recent(ctx context.Context, limit int) ([]Record, error)
}

// GormStore persists run records using a Gorm database connection.
type GormStore struct {
	db     *gorm.DB
	logger *logrus.Logger
	keep   int
}

// NewStore constructs a Gorm-backed history store.
func NewStore(db *gorm.DB, logger *logrus.Logger) (*GormStore, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &GormStore{db: db, logger: logger, keep: Keep}, nil
}

var _ Store = (*GormStore)(nil)

// RecentKeys returns the topic keys of successful runs inside the window,
// newest first, capped at limit. A zero window means no time cutoff.
func (s *GormStore) RecentKeys(ctx context.Context, window time.Duration, limit int) ([]string, error) {
	query := s.db.WithContext(ctx).
		Model(&Record{}).
		Where("success = ? AND topic_key <> ''", true).
		Order("date DESC, id DESC")

	if window > 0 {
		query = query.Where("date >= ?", time.Now().Add(-window))
	}

	if limit > 0 {
		query = query.Limit(limit)
	}

	var keys []string
	if err := query.Pluck("topic_key", &keys).Error; err != nil {
		s.logError(nil, err, "querying recent topic keys")
		return nil, eris.Wrap(err, "querying recent topic keys")
	}

	return keys, nil
}

// Record stores the run outcome and prunes the table to the newest records.
func (s *GormStore) Record(ctx context.Context, record *Record) error {
	if record == nil {
		return eris.New("record is nil")
	}

	if record.Date.IsZero() {
		record.Date = time.Now()
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		s.logError(logrus.Fields{"topic": record.Topic}, err, "saving run record")
		return eris.Wrap(err, "saving run record")
	}

	return s.prune(ctx)
}

// prune keeps the newest records by primary key so rows sharing a timestamp
// cannot survive past the retention limit.
func (s *GormStore) prune(ctx context.Context) error {
	var keepIDs []uint
	err := s.db.WithContext(ctx).
		Model(&Record{}).
		Order("date DESC, id DESC").
		Limit(s.keep).
		Pluck("id", &keepIDs).Error
	if err != nil {
		s.logError(nil, err, "selecting records to keep")
		return eris.Wrap(err, "selecting records to keep")
	}

	if len(keepIDs) < s.keep {
		return nil
	}

	result := s.db.WithContext(ctx).
		Unscoped().
		Where("id NOT IN ?", keepIDs).
		Delete(&Record{})
	if result.Error != nil {
		s.logError(nil, result.Error, "pruning run records")
		return eris.Wrap(result.Error, "pruning run records")
	}

	return nil
}

// SuccessOn reports whether a successful run was already recorded on the given calendar day.
func (s *GormStore) SuccessOn(ctx context.Context, date time.Time) (bool, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var count int64
	err := s.db.WithContext(ctx).
		Model(&Record{}).
		Where("success = ? AND date >= ? AND date < ?", true, dayStart, dayEnd).
		Count(&count).Error
	if err != nil {
		s.logError(nil, err, "counting runs for day")
		return false, eris.Wrap(err, "counting runs for day")
	}

	return count > 0, nil
}

// Recent returns the newest records first, capped at limit.
func (s *GormStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	query := s.db.WithContext(ctx).Order("date DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []Record
	if err := query.Find(&records).Error; err != nil {
		s.logError(nil, err, "listing run records")
		return nil, eris.Wrap(err, "listing run records")
	}

	return records, nil
}

func (s *GormStore) logError(fields logrus.Fields, err error, message string) {
	if s.logger == nil {
		return
	}

	entry := s.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}
