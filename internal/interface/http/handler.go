package http

import (
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/clima-widget/internal/domain/weather"
	"github.com/yanqian/clima-widget/internal/domain/widget"
	"github.com/yanqian/clima-widget/internal/infra/config"
	"github.com/yanqian/clima-widget/pkg/util"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	weatherSvc weather.Service
	registry   *widget.Registry
	cookieName string
	sessionTTL time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewHandler constructs the root HTTP handler.
func NewHandler(cfg *config.Config, weatherSvc weather.Service, registry *widget.Registry, logger *slog.Logger) *Handler {
	return &Handler{
		weatherSvc: weatherSvc,
		registry:   registry,
		cookieName: cfg.Widget.CookieName,
		sessionTTL: cfg.Widget.SessionTTL,
		logger:     logger.With("component", "http.handler"),
		now:        util.NowUTC,
	}
}

type pageData struct {
	View           widget.View
	RefreshSeconds int
}

// Page renders the form, the result container and the alert banner.
func (h *Handler) Page(c *gin.Context) {
	session := h.resolveSession(c)
	view := session.Display().Snapshot()
	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, "index.html", pageData{
		View:           view,
		RefreshSeconds: h.refreshAfter(view),
	})
}

// SubmitForm handles the HTML form post and redirects back to the page.
func (h *Handler) SubmitForm(c *gin.Context) {
	var form widget.Form
	if err := c.ShouldBind(&form); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	session := h.resolveSession(c)
	session.Controller.Submit(c.Request.Context(), form)
	c.Redirect(http.StatusSeeOther, "/")
}

// WidgetState returns the caller's current view.
func (h *Handler) WidgetState(c *gin.Context) {
	session := h.resolveSession(c)
	c.JSON(http.StatusOK, session.Display().Snapshot())
}

// WidgetSubmit is the JSON counterpart of SubmitForm.
func (h *Handler) WidgetSubmit(c *gin.Context) {
	var form widget.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	session := h.resolveSession(c)
	started := session.Controller.Submit(c.Request.Context(), form)

	status := http.StatusOK
	if started {
		status = http.StatusAccepted
	}
	c.JSON(status, gin.H{
		"started": started,
		"view":    session.Display().Snapshot(),
	})
}

// Lookup performs a synchronous weather lookup.
func (h *Handler) Lookup(c *gin.Context) {
	var req weather.Query
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	report, err := h.weatherSvc.Lookup(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, lookupError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"report": report,
		"lines":  widget.ResultLines(report),
	})
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// refreshAfter tells the page when to reload: every second while a lookup
// is in flight, and when the current alert is due to disappear.
func (h *Handler) refreshAfter(view widget.View) int {
	if view.Pending {
		return 1
	}
	if view.Alert != nil {
		remaining := view.Alert.ExpiresAt.Sub(h.now())
		secs := int(math.Ceil(remaining.Seconds()))
		if secs < 1 {
			secs = 1
		}
		return secs
	}
	return 0
}
