package middleware

import (
	"net/http"

	"github.com/Miraines/videotube/internal/adapters/transport/http/dto"
	"github.com/Miraines/videotube/internal/adapters/transport/ratelimit"
	"github.com/gin-gonic/gin"
)

func RateLimitPerIP(limiter *ratelimit.PerIP) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				dto.NewAPIResponse(http.StatusTooManyRequests, nil, "Too many requests"))
			return
		}
		c.Next()
	}
}
