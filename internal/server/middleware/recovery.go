package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/kikitori/internal/logger"
)

// Recovery returns a Gin middleware that recovers from panics. The full
// stack is logged server-side together with the request's correlation
// identifier; the client gets a generic message plus that identifier so a
// reported failure can be matched to the log line.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				reqID := c.GetString(logger.FieldRequestID)
				logger.Error("Panic recovered", map[string]interface{}{
					logger.FieldRequestID: reqID,
					logger.FieldError:     fmt.Sprintf("%v", err),
					"stack":               string(debug.Stack()),
					"path":                c.Request.URL.Path,
					"method":              c.Request.Method,
					"client_ip":           c.ClientIP(),
				})
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":     "Internal server error",
					"requestId": reqID,
				})
			}
		}()
		c.Next()
	}
}
