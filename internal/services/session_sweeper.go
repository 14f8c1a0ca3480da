package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/carebridge/portal-api/internal/metrics"
	"github.com/carebridge/portal-api/internal/repository"
)

// SessionSweeper deletes expired session rows. Expiry is still enforced on
// every read; the sweeper only keeps the table bounded.
type SessionSweeper struct {
	sessions repository.SessionRepository
	metrics  metrics.Recorder
	now      func() time.Time
}

func NewSessionSweeper(sessions repository.SessionRepository, rec metrics.Recorder) *SessionSweeper {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &SessionSweeper{sessions: sessions, metrics: rec, now: time.Now}
}

func (w *SessionSweeper) SweepOnce(ctx context.Context) (int64, error) {
	deleted, err := w.sessions.DeleteExpired(ctx, w.now().UTC())
	if err != nil {
		slog.Error("session sweep failed", "action", "session.sweep", "error", err)
		return 0, err
	}
	if deleted > 0 {
		w.metrics.RecordSessionsSwept(deleted)
		slog.Info("session sweep completed", "action", "session.sweep", "deleted", deleted)
	}
	return deleted, nil
}

// Start runs SweepOnce every interval until done is closed.
func (w *SessionSweeper) Start(interval time.Duration, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				w.SweepOnce(ctx)
				cancel()
			case <-done:
				return
			}
		}
	}()
}
