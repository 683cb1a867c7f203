package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func scrub(h http.Header) http.Header {
	clone := h.Clone()
	for k := range clone {
		lk := strings.ToLower(k)
		if strings.Contains(lk, "authorization") || strings.Contains(lk, "cookie") {
			clone[k] = []string{"[redacted]"}
		}
	}
	return clone
}

// RequestLogger logs every request with credentials stripped from the headers.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ce := log.Check(zap.DebugLevel, "incoming request"); ce != nil {
			ce.Write(
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("origin", c.GetHeader("Origin")),
				zap.Any("headers", scrub(c.Request.Header)),
			)
		}

		ts := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(ts)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("ip", c.ClientIP()),
		}

		// handler errors carry the cause; 4xx outcomes are expected traffic
		failed := c.Writer.Status() >= http.StatusInternalServerError
		for _, e := range c.Errors {
			if failed {
				log.Error("handler error", append(fields, zap.Error(e.Err))...)
			} else {
				log.Warn("handler error", append(fields, zap.Error(e.Err))...)
			}
		}

		switch {
		case failed:
			log.Error("completed", fields...)
		case c.IsAborted():
			log.Warn("aborted", fields...)
		default:
			log.Info("completed", fields...)
		}
	}
}
