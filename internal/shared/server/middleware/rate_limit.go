package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"recruit-backend/internal/shared/server/respond"
)

const defaultRateLimitGroup = "DEFAULT"

// limiterIdleTTL is how long an unused bucket is kept before it is swept.
const limiterIdleTTL = 10 * time.Minute

// RateLimitRule is a token bucket: Rate tokens per second up to Burst.
type RateLimitRule struct {
	Rate  float64
	Burst int
}

// RateLimitConfig maps request groups to rules. GroupFor picks the group
// for a request, falling back to DefaultGroup.
type RateLimitConfig struct {
	Rules        map[string]RateLimitRule
	DefaultGroup string
	GroupFor     func(*gin.Context) string
	Limiter      *RateLimiter
}

// RateLimiter keeps one limiter per principal and group. Buckets idle for
// longer than limiterIdleTTL are dropped when new ones are created.
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{
		limiters:  make(map[string]*bucket),
		lastSweep: now(),
		now:       now,
	}
}

// RateLimit rejects requests over the principal's budget for their group
// with a 429 and a Retry-After header. Groups without a rule are unlimited.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limiter == nil {
		cfg.Limiter = NewRateLimiter(nil)
	}
	if cfg.DefaultGroup == "" {
		cfg.DefaultGroup = defaultRateLimitGroup
	}
	return func(c *gin.Context) {
		group := cfg.DefaultGroup
		if cfg.GroupFor != nil {
			if g := strings.TrimSpace(cfg.GroupFor(c)); g != "" {
				group = g
			}
		}
		rule, ok := cfg.Rules[group]
		if !ok {
			c.Next()
			return
		}
		ok, wait := cfg.Limiter.Allow(principal(c)+"|"+group, rule)
		if ok {
			c.Next()
			return
		}
		if wait < time.Millisecond {
			wait = time.Second
		}
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		respond.Error(c, http.StatusTooManyRequests, "rate_limited", "too many requests",
			gin.H{"group": group, "retryAfterMs": wait.Milliseconds()})
	}
}

// principal is the authenticated actor, or the client IP before Auth ran.
func principal(c *gin.Context) string {
	if actor := ActorFromContext(c); actor.UserID != "" {
		return actor.Label()
	}
	return "ip:" + c.ClientIP()
}

// MethodGroup buckets reads separately from writes.
func MethodGroup(c *gin.Context) string {
	switch c.Request.Method {
	case http.MethodGet, http.MethodHead:
		return "READ"
	}
	return "WRITE"
}

// Allow consumes one token for key and reports how long to wait otherwise.
func (l *RateLimiter) Allow(key string, rule RateLimitRule) (bool, time.Duration) {
	if l == nil || rule.Rate <= 0 || rule.Burst <= 0 {
		return true, 0
	}
	now := l.now()
	lim := l.limiterFor(key, rule, now)
	res := lim.ReserveN(now, 1)
	if !res.OK() {
		return false, time.Second
	}
	delay := res.DelayFrom(now)
	if delay == 0 {
		return true, 0
	}
	res.CancelAt(now)
	return false, delay
}

func (l *RateLimiter) limiterFor(key string, rule RateLimitRule, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.limiters[key]; ok {
		b.lastSeen = now
		return b.lim
	}
	if now.Sub(l.lastSweep) >= limiterIdleTTL {
		for k, b := range l.limiters {
			if now.Sub(b.lastSeen) >= limiterIdleTTL {
				delete(l.limiters, k)
			}
		}
		l.lastSweep = now
	}
	b := &bucket{lim: rate.NewLimiter(rate.Limit(rule.Rate), rule.Burst), lastSeen: now}
	l.limiters[key] = b
	return b.lim
}

func (l *RateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}
