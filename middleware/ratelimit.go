package middleware

import (
	"net/http"
	"time"

	"github.com/didip/tollbooth"
	"github.com/didip/tollbooth/limiter"
	"github.com/gin-gonic/gin"
)

// RateLimit allows maxPerMinute requests per client IP.
// A non-positive limit disables the middleware. The limiter's burst is
// derived from the per-second rate, so rates under one per second are
// raised to one.
func RateLimit(maxPerMinute float64) gin.HandlerFunc {
	if maxPerMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	perSecond := maxPerMinute / 60.0
	if perSecond < 1 {
		perSecond = 1
	}

	lmt := tollbooth.NewLimiter(perSecond, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Minute})
	lmt.SetIPLookups([]string{"RemoteAddr", "X-Forwarded-For", "X-Real-IP"})

	return func(c *gin.Context) {
		if httpError := tollbooth.LimitByRequest(lmt, c.Writer, c.Request); httpError != nil {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "RATE_LIMITED",
					"message": "The API is at capacity, try again later.",
				},
			})
			return
		}
		c.Next()
	}
}
