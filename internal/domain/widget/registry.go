package widget

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/clima-widget/internal/domain/weather"
)

// Session is one visitor's page: a display and the controller driving it.
type Session struct {
	ID         string
	Controller *Controller
	lastSeen   time.Time
}

// Display returns the session's display.
func (s *Session) Display() *Display {
	return s.Controller.Display()
}

// Registry hands out sessions keyed by an opaque id and evicts idle ones.
type Registry struct {
	cfg        Config
	svc        weather.Service
	dispatcher Dispatcher
	logger     *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewRegistry builds an empty registry.
func NewRegistry(cfg Config, svc weather.Service, dispatcher Dispatcher, logger *slog.Logger) *Registry {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	return &Registry{
		cfg:        cfg,
		svc:        svc,
		dispatcher: dispatcher,
		logger:     logger.With("component", "widget.registry"),
		sessions:   make(map[string]*Session),
		now:        time.Now,
	}
}

// Resolve returns the session for id, creating a new one when id is unknown.
// The boolean reports whether a session was created.
func (r *Registry) Resolve(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.evictLocked(now)

	if s, ok := r.sessions[id]; ok {
		s.lastSeen = now
		return s, false
	}

	newID := uuid.NewString()
	display := NewDisplay(r.cfg.AlertDuration)
	s := &Session{
		ID:         newID,
		Controller: NewController(display, r.svc, r.dispatcher, r.cfg.Overlap, r.logger.With("session", newID)),
		lastSeen:   now,
	}
	r.sessions[newID] = s
	r.logger.Debug("widget session created", "session", newID)
	return s, true
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) evictLocked(now time.Time) {
	for id, s := range r.sessions {
		if now.Sub(s.lastSeen) > r.cfg.SessionTTL {
			s.Display().Close()
			delete(r.sessions, id)
		}
	}
}
