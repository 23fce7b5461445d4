package dashboard

import (
	"context"
	"sync"
	"time"

	"civisense/pkg/session"
)

// Registry holds one View per signed-in session.
type Registry struct {
	source Source
	opts   []Option

	mu     sync.Mutex
	views  map[string]*View
	closed map[string]time.Time
}

func NewRegistry(src Source, opts ...Option) *Registry {
	return &Registry{
		source: src,
		opts:   opts,
		views:  make(map[string]*View),
		closed: make(map[string]time.Time),
	}
}

// Get returns the session's view, creating it on first use. A session that
// was closed never gets a view again.
func (r *Registry) Get(s session.Session) (*View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.closed[s.ID]; ok {
		return nil, ErrViewClosed
	}
	if v, ok := r.views[s.ID]; ok {
		return v, nil
	}
	v := NewView(s, r.source, r.opts...)
	r.views[s.ID] = v
	return v, nil
}

func (r *Registry) Lookup(sessionID string) (*View, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.views[sessionID]
	return v, ok
}

// Close drops and closes the session's view, if any, and refuses new views
// for it until the session expires.
func (r *Registry) Close(s session.Session) {
	r.mu.Lock()
	v, ok := r.views[s.ID]
	delete(r.views, s.ID)
	r.closed[s.ID] = s.ExpiresAt
	r.mu.Unlock()
	if ok {
		v.Close()
	}
}

// Sweep closes views whose session expired before now and returns how many
// were closed.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	var expired []*View
	for id, v := range r.views {
		if now.After(v.session.ExpiresAt) {
			expired = append(expired, v)
			delete(r.views, id)
		}
	}
	for id, exp := range r.closed {
		if now.After(exp) {
			delete(r.closed, id)
		}
	}
	r.mu.Unlock()

	for _, v := range expired {
		v.Close()
	}
	return len(expired)
}

// RefreshAll refetches every view that has live attachments. It returns the
// first error seen; other views are still refreshed.
func (r *Registry) RefreshAll(ctx context.Context) error {
	var firstErr error
	for _, v := range r.snapshot() {
		if v.Attached() == 0 {
			continue
		}
		if err := v.Refresh(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Registry) CloseAll() {
	r.mu.Lock()
	views := make([]*View, 0, len(r.views))
	for id, v := range r.views {
		views = append(views, v)
		delete(r.views, id)
	}
	r.mu.Unlock()

	for _, v := range views {
		v.Close()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

func (r *Registry) snapshot() []*View {
	r.mu.Lock()
	defer r.mu.Unlock()
	views := make([]*View, 0, len(r.views))
	for _, v := range r.views {
		views = append(views, v)
	}
	return views
}
