package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/kikitori/internal/logger"
)

// requestIDHeader carries the correlation identifier on the wire.
const requestIDHeader = "X-Request-Id"

// RequestID assigns each request a correlation identifier. An id supplied by
// the caller is kept, otherwise a fresh UUID is generated; it is stored on
// the gin context under logger.FieldRequestID for the logging and recovery
// middleware and echoed on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(logger.FieldRequestID, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
