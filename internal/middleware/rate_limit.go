package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/noah-isme/visit-builder-api/internal/models"
	appErrors "github.com/noah-isme/visit-builder-api/pkg/errors"
	"github.com/noah-isme/visit-builder-api/pkg/response"
)

// RateLimitConfig sets the per-client token bucket.
type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
	// IdleTTL drops limiters for clients not seen for this long.
	IdleTTL time.Duration
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiterStore struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	limiters map[string]*clientLimiter
	sweptAt  time.Time
}

func newLimiterStore(cfg RateLimitConfig) *limiterStore {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 120
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 20
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	return &limiterStore{
		limit:    rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute)),
		burst:    cfg.Burst,
		idleTTL:  cfg.IdleTTL,
		limiters: make(map[string]*clientLimiter),
	}
}

func (s *limiterStore) get(key string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.sweptAt) > s.idleTTL {
		for k, entry := range s.limiters {
			if now.Sub(entry.lastSeen) > s.idleTTL {
				delete(s.limiters, k)
			}
		}
		s.sweptAt = now
	}

	entry, ok := s.limiters[key]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// RateLimit throttles requests per authenticated user, falling back to the
// client IP. Rejected requests get 429 with a Retry-After header.
func RateLimit(cfg RateLimitConfig, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	store := newLimiterStore(cfg)
	return func(c *gin.Context) {
		key := rateLimitKey(c)
		now := time.Now()
		limiter := store.get(key, now)

		reservation := limiter.ReserveN(now, 1)
		delay := reservation.DelayFrom(now)
		if delay == 0 {
			c.Next()
			return
		}
		reservation.CancelAt(now)

		retryAfter := int(math.Ceil(delay.Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		logger.Warn("rate limit exceeded", zap.String("client", key), zap.Int("retry_after", retryAfter))
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		response.Error(c, appErrors.ErrTooManyRequests)
		c.Abort()
	}
}

func rateLimitKey(c *gin.Context) string {
	if value, ok := c.Get(ContextUserKey); ok {
		if claims, ok := value.(*models.JWTClaims); ok && claims.UserID != "" {
			return "user:" + claims.UserID
		}
	}
	return "ip:" + c.ClientIP()
}
