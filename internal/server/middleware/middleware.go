// Package middleware holds the HTTP middleware stack applied in front of the
// transcription API.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Middleware wraps an http.Handler with additional behavior. This is the
// standard Go middleware signature, usable with any handler mounted on the
// server regardless of the routing framework.
type Middleware func(http.Handler) http.Handler

// Chain composes multiple middleware. The first in the list is the outermost
// (runs first on a request, last on a response).
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// GinWrap adapts a standard Middleware for use in a Gin middleware chain.
// When the middleware short-circuits (e.g. a CORS preflight answer), the
// rest of the Gin chain is aborted instead of falling through to routing.
func GinWrap(mw Middleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		advanced := false
		next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			advanced = true
			c.Request = r
			c.Next()
		})
		mw(next).ServeHTTP(c.Writer, c.Request)
		if !advanced {
			c.Abort()
		}
	}
}
