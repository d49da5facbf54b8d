package history

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Record captures the outcome of a single pipeline run.
type Record struct {
	gorm.Model
	Date       time.Time `gorm:"index"`
	Topic      string
	TopicKey   string `gorm:"index"`
	Pillar     string
	Template   string
	Slug       string
	Success    bool
	Error      string
	DurationMS int64
}

// Migrate applies the history schema using Gorm's AutoMigrate and logs progress.
func Migrate(ctx context.Context, db *gorm.DB, logger *logrus.Logger) error {
	if db == nil {
		return eris.New("gorm DB is required")
	}

	logFields := logrus.Fields{"component": "history.migrate"}
	if logger != nil {
		logger.WithFields(logFields).Info("applying history schema")
	}

	if err := db.WithContext(ctx).AutoMigrate(&Record{}); err != nil {
		if logger != nil {
			logger.WithFields(logFields).WithField("error", err.Error()).Error("history schema migration failed")
		}
		return eris.Wrap(err, "auto migrating history schema")
	}

	if logger != nil {
		logger.WithFields(logFields).Info("history schema migration complete")
	}

	return nil
}
