package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const JSONBodyLimit = 16 << 10

// BodyLimit caps the number of bytes a handler may read from the request body.
func BodyLimit(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}
