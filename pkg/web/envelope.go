package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	VideoCacheControl     = "public, max-age=86400"
	ThumbnailCacheControl = "public, max-age=31536000, immutable"
	ErrorCacheControl     = "no-store"
)

var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":   "*",
	"Access-Control-Allow-Methods":  "GET, OPTIONS",
	"Access-Control-Allow-Headers":  "Range, Content-Type",
	"Access-Control-Expose-Headers": "Content-Range, Content-Length, Accept-Ranges",
}

// Envelope applies the CORS policy to every response, answers pre-flight
// requests and rejects any method other than GET and OPTIONS.
func Envelope() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.Writer.Header()
		for k, v := range corsHeaders {
			header.Set(k, v)
		}

		switch c.Request.Method {
		case http.MethodGet:
			c.Next()
		case http.MethodOptions:
			c.AbortWithStatus(http.StatusNoContent)
		default:
			header.Set("Allow", "GET, OPTIONS")
			abortWithError(c, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

// abortWithError writes the JSON error body. Errors are never cached.
func abortWithError(c *gin.Context, status int, msg string) {
	c.Header("Cache-Control", ErrorCacheControl)
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// NoRoute answers unknown paths through the same envelope.
func NoRoute(c *gin.Context) {
	abortWithError(c, http.StatusNotFound, "not found")
}
