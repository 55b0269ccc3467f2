package http

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	apperrors "github.com/meli/auth-server/pkg/util/errorutil"
)

// CodeLoginRateLimited marks a login attempt rejected before any credential check.
const CodeLoginRateLimited = "AUTH012"

// LoginLimiterConfig controls per client throttling of POST /auth/login.
type LoginLimiterConfig struct {
	PerMinute       int
	Burst           int
	CleanupInterval time.Duration
}

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// LoginLimiter throttles login attempts per client IP.
type LoginLimiter struct {
	limit           rate.Limit
	burst           int
	cleanupInterval time.Duration
	now             func() time.Time

	mu      sync.Mutex
	clients map[string]*clientLimiter

	stopCh chan struct{}
	once   sync.Once
}

// NewLoginLimiter returns nil when PerMinute is not positive, which disables throttling.
func NewLoginLimiter(cfg LoginLimiterConfig) *LoginLimiter {
	if cfg.PerMinute <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	l := &LoginLimiter{
		limit:           rate.Limit(float64(cfg.PerMinute) / 60.0),
		burst:           burst,
		cleanupInterval: interval,
		now:             time.Now,
		clients:         make(map[string]*clientLimiter),
		stopCh:          make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Stop ends the background cleanup.
func (l *LoginLimiter) Stop() {
	if l == nil {
		return
	}
	l.once.Do(func() { close(l.stopCh) })
}

// Handle rejects the request with 429 once the client has spent its burst.
func (l *LoginLimiter) Handle(c *fiber.Ctx) error {
	if l == nil {
		return c.Next()
	}
	if !l.allow(c.IP()) {
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(l.retryAfterSeconds()))
		return apperrors.New(apperrors.KindRateLimited, CodeLoginRateLimited, "", nil)
	}
	return c.Next()
}

func (l *LoginLimiter) allow(client string) bool {
	now := l.now()

	l.mu.Lock()
	entry, ok := l.clients[client]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[client] = entry
	}
	entry.lastAccess = now
	l.mu.Unlock()

	return entry.limiter.AllowN(now, 1)
}

func (l *LoginLimiter) retryAfterSeconds() int {
	seconds := int(math.Ceil(1.0 / float64(l.limit)))
	if seconds < 1 {
		return 1
	}
	return seconds
}

func (l *LoginLimiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stopCh:
			return
		}
	}
}

// cleanup drops clients idle for two intervals.
func (l *LoginLimiter) cleanup() {
	cutoff := l.now().Add(-2 * l.cleanupInterval)

	l.mu.Lock()
	defer l.mu.Unlock()
	for client, entry := range l.clients {
		if entry.lastAccess.Before(cutoff) {
			delete(l.clients, client)
		}
	}
}

func (l *LoginLimiter) clientCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
