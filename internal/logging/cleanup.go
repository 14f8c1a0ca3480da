package logging

import (
	"log/slog"
	"time"

	"github.com/carebridge/portal-api/internal/models"
	"gorm.io/gorm"
)

// PruneSystemLogs deletes system_logs rows written before cutoff.
func PruneSystemLogs(db *gorm.DB, cutoff time.Time) (int64, error) {
	result := db.Where("timestamp < ?", cutoff.UTC()).Delete(&models.SystemLog{})
	return result.RowsAffected, result.Error
}

// StartCleanup runs a daily goroutine that deletes system_logs older than
// retentionDays.
func StartCleanup(db *gorm.DB, retentionDays int, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				deleted, err := PruneSystemLogs(db, time.Now().AddDate(0, 0, -retentionDays))
				if err != nil {
					slog.Error("log cleanup failed", "action", "logs.cleanup", "error", err)
				} else if deleted > 0 {
					slog.Info("log cleanup completed", "action", "logs.cleanup", "deleted", deleted)
				}
			case <-done:
				return
			}
		}
	}()
}
