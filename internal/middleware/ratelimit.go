package middleware

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/GoPolymarket/polyagent/internal/pkg/apperrors"
)

// RateLimitMiddleware caps request throughput for the whole gateway with a
// token bucket allowing 2x burst. qps <= 0 disables the limiter.
func RateLimitMiddleware(qps int) gin.HandlerFunc {
	if qps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := rate.NewLimiter(rate.Limit(qps), qps*2)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.Error(apperrors.New(apperrors.ErrRateLimited, "rate limit exceeded", nil))
			c.Abort()
			return
		}
		c.Next()
	}
}
