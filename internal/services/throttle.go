package services

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type keyLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// LoginThrottle limits failed login attempts per email address, independent
// of the per-IP limiter in front of the auth routes. Successful logins are not
// charged.
type LoginThrottle struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	idle     time.Duration
	limiters map[string]*keyLimiter
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewLoginThrottle allows perMinute failures per email with an equal burst.
// Entries idle for longer than idle are dropped by a background loop.
func NewLoginThrottle(perMinute int, idle time.Duration) *LoginThrottle {
	t := &LoginThrottle{
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    perMinute,
		idle:     idle,
		limiters: make(map[string]*keyLimiter),
		stopCh:   make(chan struct{}),
	}
	go t.cleanupLoop()
	return t
}

// Blocked reports whether email has no failed attempts left. It does not
// consume anything.
func (t *LoginThrottle) Blocked(email string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	kl, ok := t.limiters[throttleKey(email)]
	if !ok {
		return false
	}
	return kl.limiter.Tokens() < 1
}

// RecordFailure charges one failed attempt to email.
func (t *LoginThrottle) RecordFailure(email string) {
	key := throttleKey(email)

	t.mu.Lock()
	defer t.mu.Unlock()

	kl, ok := t.limiters[key]
	if !ok {
		kl = &keyLimiter{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.limiters[key] = kl
	}
	kl.lastAccess = time.Now()
	kl.limiter.Allow()
}

func throttleKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (t *LoginThrottle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.limiters)
}

func (t *LoginThrottle) Stop() {
	t.stopOnce.Do(func() { close(t.stopCh) })
}

func (t *LoginThrottle) cleanupLoop() {
	ticker := time.NewTicker(t.idle)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.evictIdle(time.Now())
		case <-t.stopCh:
			return
		}
	}
}

func (t *LoginThrottle) evictIdle(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, kl := range t.limiters {
		if now.Sub(kl.lastAccess) > t.idle {
			delete(t.limiters, key)
		}
	}
}
