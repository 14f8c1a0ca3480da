package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/carebridge/portal-api/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultBatchSize     = 50
	defaultFlushInterval = 5 * time.Second
)

// dbSink is shared by a DBHandler and every handler derived from it through
// WithAttrs, so they all feed one buffer.
type dbSink struct {
	db       *gorm.DB
	mu       sync.Mutex
	buffer   []models.SystemLog
	size     int
	ticker   *time.Ticker
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
	// fallback reports flush failures; logging them through slog would feed
	// them back into this handler.
	fallback *slog.Logger
}

// DBHandler is an slog.Handler that batches ERROR+ records into the
// system_logs table.
type DBHandler struct {
	sink  *dbSink
	attrs []slog.Attr
}

func NewDBHandler(db *gorm.DB) *DBHandler {
	return newDBHandler(db, defaultBatchSize, defaultFlushInterval)
}

func newDBHandler(db *gorm.DB, batchSize int, interval time.Duration) *DBHandler {
	s := &dbSink{
		db:       db,
		buffer:   make([]models.SystemLog, 0, batchSize),
		size:     batchSize,
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		fallback: slog.New(slog.NewJSONHandler(os.Stderr, nil)),
	}
	go s.flushLoop()
	return &DBHandler{sink: s}
}

func (s *dbSink) flushLoop() {
	defer close(s.stopped)
	for {
		select {
		case <-s.ticker.C:
			s.flush()
		case <-s.done:
			s.flush()
			return
		}
	}
}

func (s *dbSink) flush() {
	s.mu.Lock()
	if len(s.buffer) == 0 {
		s.mu.Unlock()
		return
	}
	batch := s.buffer
	s.buffer = make([]models.SystemLog, 0, s.size)
	s.mu.Unlock()

	if err := s.db.CreateInBatches(batch, s.size).Error; err != nil {
		s.fallback.Error("failed to flush system logs to DB", "error", err, "count", len(batch))
	}
}

// Stop flushes what is buffered and waits for the flush loop to exit.
func (h *DBHandler) Stop() {
	h.sink.stopOnce.Do(func() {
		h.sink.ticker.Stop()
		close(h.sink.done)
	})
	<-h.sink.stopped
}

// Enabled only handles ERROR and above.
func (h *DBHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}

func (h *DBHandler) Handle(_ context.Context, record slog.Record) error {
	entry := models.SystemLog{
		Timestamp: record.Time.UTC(),
		Level:     record.Level.String(),
		Message:   record.Message,
	}

	extra := make(map[string]interface{})
	apply := func(a slog.Attr) bool {
		switch a.Key {
		case "request_id":
			entry.RequestID = a.Value.String()
		case "user_id":
			s := a.Value.String()
			entry.UserID = &s
		case "action":
			entry.Action = a.Value.String()
		case "error":
			entry.Error = a.Value.String()
		default:
			extra[a.Key] = a.Value.Resolve().Any()
		}
		return true
	}
	for _, a := range h.attrs {
		apply(a)
	}
	record.Attrs(apply)

	if len(extra) > 0 {
		if b, err := json.Marshal(extra); err == nil {
			entry.Extra = datatypes.JSON(b)
		}
	}

	s := h.sink
	s.mu.Lock()
	s.buffer = append(s.buffer, entry)
	needFlush := len(s.buffer) >= s.size
	s.mu.Unlock()

	if needFlush {
		go s.flush()
	}
	return nil
}

func (h *DBHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &DBHandler{sink: h.sink, attrs: merged}
}

// WithGroup is a no-op: system_logs rows are flat.
func (h *DBHandler) WithGroup(string) slog.Handler {
	return h
}
