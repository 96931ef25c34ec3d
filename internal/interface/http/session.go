package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/clima-widget/internal/domain/widget"
)

// resolveSession maps the session cookie to a widget session, issuing a new cookie when needed.
func (h *Handler) resolveSession(c *gin.Context) *widget.Session {
	id, _ := c.Cookie(h.cookieName)
	session, created := h.registry.Resolve(id)
	if created || id != session.ID {
		secure := c.Request.TLS != nil
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(h.cookieName, session.ID, int(h.sessionTTL/time.Second), "/", "", secure, true)
	}
	return session
}
