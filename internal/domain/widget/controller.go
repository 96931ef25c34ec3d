package widget

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/yanqian/clima-widget/internal/domain/weather"
	apperrors "github.com/yanqian/clima-widget/pkg/errors"
)

// Dispatcher runs a lookup without blocking the submitter.
type Dispatcher interface {
	Dispatch(ctx context.Context, job func(ctx context.Context))
}

// Controller handles form submissions for one display.
type Controller struct {
	display    *Display
	svc        weather.Service
	dispatcher Dispatcher
	overlap    string
	logger     *slog.Logger

	mu  sync.Mutex
	seq uint64
}

// NewController wires a display to the weather service.
func NewController(display *Display, svc weather.Service, dispatcher Dispatcher, overlap string, logger *slog.Logger) *Controller {
	if overlap == "" {
		overlap = OverlapLastResolved
	}
	return &Controller{
		display:    display,
		svc:        svc,
		dispatcher: dispatcher,
		overlap:    overlap,
		logger:     logger.With("component", "widget.controller"),
	}
}

// Display exposes the display driven by this controller.
func (c *Controller) Display() *Display {
	return c.display
}

// Submit validates the form and, when both fields are present, shows the
// spinner and dispatches the lookup. It reports whether a lookup started.
func (c *Controller) Submit(ctx context.Context, form Form) bool {
	city := strings.TrimSpace(form.City)
	country := strings.TrimSpace(form.Country)
	if city == "" || country == "" {
		c.display.ShowAlert(MsgMissingFields)
		return false
	}

	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.display.ShowLoading()
	c.display.lookupStarted()
	c.mu.Unlock()

	q := weather.Query{City: city, Country: country}
	c.logger.Debug("weather lookup dispatched", "location", q.Location(), "seq", seq)
	c.dispatcher.Dispatch(context.WithoutCancel(ctx), func(jobCtx context.Context) {
		report, err := c.svc.Lookup(jobCtx, q)
		c.resolve(seq, report, err)
	})
	return true
}

func (c *Controller) resolve(seq uint64, report weather.Report, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.display.lookupFinished()

	if c.overlap == OverlapLatestSubmission && seq != c.seq {
		c.logger.Debug("stale weather lookup dropped", "seq", seq, "latest", c.seq)
		return
	}

	switch {
	case err == nil:
		c.display.ShowResult(report)
	case apperrors.IsCode(err, apperrors.CodeNotFound):
		c.display.Clear()
		c.display.ShowAlert(MsgNotFound)
	case apperrors.IsCode(err, apperrors.CodeInvalidInput):
		c.display.ShowAlert(MsgMissingFields)
	default:
		c.logger.Warn("weather lookup failed", "seq", seq, "error", err)
		c.display.ShowAlert(ConnectionErrorMessage(err))
	}
}

// ConnectionErrorMessage appends the underlying transport failure to the banner text.
func ConnectionErrorMessage(err error) string {
	if err == nil {
		return MsgConnectionError
	}
	return MsgConnectionError + ": " + apperrors.Cause(err).Error()
}
