package middleware

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"poetica/internal/apperr"
	"poetica/internal/logging"
)

// WindowCounter counts hits in a fixed window shared between instances.
type WindowCounter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RateLimiter enforces fixed-window limits per client IP. Counts live in
// the shared counter when one is configured and in process memory
// otherwise, or while the shared counter is failing.
type RateLimiter struct {
	shared  WindowCounter
	windows sync.Map // map[string]*window
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
	log     *zap.Logger
}

type window struct {
	mu    sync.Mutex
	count int64
	reset time.Time
	dead  bool // removed from the map; hits must start over on a fresh window
}

// NewRateLimiter creates a limiter with background cleanup of expired
// in-memory windows. shared may be nil. Call Stop() on shutdown.
func NewRateLimiter(shared WindowCounter, cleanupInterval time.Duration) *RateLimiter {
	rl := &RateLimiter{
		shared: shared,
		now:    time.Now,
		stop:   make(chan struct{}),
		log:    logging.WithComponent("ratelimit"),
	}
	go rl.cleanup(cleanupInterval)
	return rl
}

// Stop terminates the background cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// Limit allows max requests per IP per window for the named bucket.
func (rl *RateLimiter) Limit(name string, max int, per time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ratelimit:" + name + ":" + c.ClientIP()
		count, ttl := rl.hit(c.Request.Context(), key, per)
		if count > int64(max) {
			retry := int(math.Ceil(ttl.Seconds()))
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			Abort(c, apperr.TooManyRequests("Too many requests, please try again later"))
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) hit(ctx context.Context, key string, per time.Duration) (int64, time.Duration) {
	if rl.shared != nil {
		count, ttl, err := rl.shared.IncrWindow(ctx, key, per)
		if err == nil {
			return count, ttl
		}
		rl.log.Warn("Shared rate limit counter failed, using local window", zap.Error(err))
	}
	return rl.local(key, per)
}

func (rl *RateLimiter) local(key string, per time.Duration) (int64, time.Duration) {
	for {
		now := rl.now()
		val, _ := rl.windows.LoadOrStore(key, &window{reset: now.Add(per)})
		w := val.(*window)

		w.mu.Lock()
		if w.dead {
			w.mu.Unlock()
			continue
		}
		if !now.Before(w.reset) {
			w.count = 0
			w.reset = now.Add(per)
		}
		w.count++
		count, ttl := w.count, w.reset.Sub(now)
		w.mu.Unlock()
		return count, ttl
	}
}

func (rl *RateLimiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.sweep(rl.now())
		}
	}
}

// sweep drops windows that expired before now. A window is marked dead and
// removed while its lock is held, so a concurrent hit cannot count on it.
func (rl *RateLimiter) sweep(now time.Time) {
	rl.windows.Range(func(key, value any) bool {
		w := value.(*window)
		w.mu.Lock()
		if !now.Before(w.reset) {
			w.dead = true
			rl.windows.CompareAndDelete(key, w)
		}
		w.mu.Unlock()
		return true
	})
}
