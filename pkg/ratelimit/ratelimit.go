package ratelimit

import (
	"sync"
	"time"

	"github.com/eglinebooks/egline/pkg/errcodes"
	"github.com/labstack/echo/v4"
	"github.com/robinjoseph08/golib/logger"
	"golang.org/x/time/rate"
)

const idleTTL = 10 * time.Minute

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter is a token bucket per key. Keys that stay idle are evicted so the
// map does not grow with every client that ever connected.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	limit   rate.Limit
	burst   int
	now     func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a limiter allowing rps requests per second per key with the
// given burst.
func New(rps float64, burst int) *Limiter {
	l := &Limiter{
		entries: map[string]*entry{},
		limit:   rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go l.janitor(idleTTL)
	return l
}

// Allow reports whether a request for key may proceed right now.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Limiter) evictIdle(ttl time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-ttl)
	for key, e := range l.entries {
		if e.lastSeen.Before(cutoff) {
			delete(l.entries, key)
		}
	}
}

func (l *Limiter) janitor(ttl time.Duration) {
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.evictIdle(ttl)
		}
	}
}

// Stop shuts down the eviction goroutine.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)
	})
}

// Done is closed once Stop has been called.
func (l *Limiter) Done() <-chan struct{} {
	return l.done
}

// Middleware rejects requests with 429 once the client IP runs out of tokens.
func (l *Limiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if !l.Allow(ip) {
				logger.FromContext(c.Request().Context()).Warn("rate limit exceeded", logger.Data{
					"ip":   ip,
					"path": c.Request().URL.Path,
				})
				return errcodes.TooManyRequests()
			}
			return next(c)
		}
	}
}
