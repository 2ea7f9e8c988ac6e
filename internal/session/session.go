// Package session keeps one search page per browser. Sessions live in memory,
// are keyed by a cookie and are dropped after a period of inactivity.
package session

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/propfair-web/internal/events"
	"github.com/yourorg/propfair-web/internal/filter"
	"github.com/yourorg/propfair-web/internal/mapview"
	"github.com/yourorg/propfair-web/internal/search"
)

const CookieName = "propfair_session"

type Session struct {
	ID     string
	Page   *search.Page
	Camera *mapview.Camera
	Events *events.Broker

	mu       sync.Mutex
	form     *filter.Form
	lastSeen time.Time
}

// Form returns a copy of the filter values last submitted in this session.
func (s *Session) Form() *filter.Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.Clone()
}

func (s *Session) SetForm(f *filter.Form) {
	s.mu.Lock()
	s.form = f.Clone()
	s.mu.Unlock()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

type Deps struct {
	Searcher    search.Searcher
	DefaultCity string
	Initial     mapview.Viewport
	IdleTTL     time.Duration
	Logger      *slog.Logger
	// Secure marks the cookie Secure; set when served over TLS.
	Secure bool
	Now    func() time.Time
}

type Registry struct {
	deps Deps
	log  *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(d Deps) *Registry {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.IdleTTL <= 0 {
		d.IdleTTL = 30 * time.Minute
	}
	return &Registry{
		deps:     d,
		log:      d.Logger.With("component", "sessions"),
		sessions: make(map[string]*Session),
	}
}

func (r *Registry) newSession() *Session {
	id := uuid.NewString()
	broker := events.NewBroker()
	s := &Session{
		ID:       id,
		Events:   broker,
		Page:     search.NewPage(r.deps.Searcher, broker, r.deps.Logger.With("session_id", id)),
		Camera:   mapview.NewCamera(r.deps.Initial),
		form:     filter.New(r.deps.DefaultCity),
		lastSeen: r.deps.Now(),
	}
	s.Camera.OnChange(func(mapview.Viewport) {
		s.Page.Touch(context.Background(), events.ViewportMoved)
	})
	return s
}

// Get looks a session up and marks it active.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		s.touch(r.deps.Now())
	}
	return s, ok
}

// Create registers a fresh session.
func (r *Registry) Create() *Session {
	s := r.newSession()
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	r.log.Debug("session created", "session_id", s.ID)
	return s
}

// Resolve returns the request's session, creating it and setting the cookie
// when the request carries none or an unknown one.
func (r *Registry) Resolve(w http.ResponseWriter, req *http.Request) *Session {
	if c, err := req.Cookie(CookieName); err == nil {
		if s, ok := r.Get(c.Value); ok {
			return s
		}
	}
	s := r.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.deps.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return s
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were removed. Sessions with live event subscribers are kept.
func (r *Registry) Sweep() int {
	cutoff := r.deps.Now().Add(-r.deps.IdleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if s.idleSince().After(cutoff) || s.Events.Subscribers() > 0 {
			continue
		}
		delete(r.sessions, id)
		n++
	}
	return n
}

// Run sweeps periodically until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	every := r.deps.IdleTTL / 4
	if every < time.Second {
		every = time.Second
	}
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := r.Sweep(); n > 0 {
				r.log.Info("expired idle sessions", "removed", n, "active", r.Len())
			}
		}
	}
}
