package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"lectern/pkg/errors"
)

// RateLimitMiddleware applies a per-client token bucket to the REST API.
// Each client IP gets its own limiter; rejected requests get a 429 in the
// same shape the error handler produces. A rate of zero disables limiting.
func RateLimitMiddleware(rps float64, burst int, logger *zap.SugaredLogger) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)
	limiterFor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		limiter, ok := limiters[ip]
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(rps), burst)
			limiters[ip] = limiter
		}
		return limiter
	}

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !limiterFor(ip).Allow() {
			logger.Debugw("request rate limited",
				"client_ip", ip,
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
				"code":  string(errors.ErrCodeRateLimit),
			})
			return
		}
		c.Next()
	}
}
