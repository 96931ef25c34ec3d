package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// corsMiddleware lets pages hosted elsewhere embed the widget API.
// Credentials are only allowed for origins named in the allow-list.
func corsMiddleware(allowed []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin, credentials := resolveOrigin(c.GetHeader("Origin"), allowed)
		headers := c.Writer.Header()
		if origin != "" {
			headers.Set("Access-Control-Allow-Origin", origin)
			headers.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			headers.Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if credentials {
			headers.Set("Access-Control-Allow-Credentials", "true")
		}
		headers.Add("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// resolveOrigin returns the Access-Control-Allow-Origin value and whether
// credentials may accompany it. An empty allow-list means a public "*".
func resolveOrigin(requestOrigin string, allowed []string) (string, bool) {
	if len(allowed) == 0 {
		return "*", false
	}
	wildcard := false
	for _, candidate := range allowed {
		if candidate == "*" {
			wildcard = true
			continue
		}
		if requestOrigin != "" && strings.EqualFold(candidate, requestOrigin) {
			return requestOrigin, true
		}
	}
	if wildcard {
		return "*", false
	}
	return "", false
}
