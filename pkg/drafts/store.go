// Package drafts persists citizen complaint forms between wizard requests.
package drafts

import (
	"context"
	"sync"
	"time"

	"civisense/pkg/complaint"
)

// Store keeps forms by ID. Get returns complaint.ErrNotFound for unknown or
// expired forms. Implementations return copies; callers Save changes back.
type Store interface {
	Create(ctx context.Context, f *complaint.Form) error
	Get(ctx context.Context, id string) (*complaint.Form, error)
	Save(ctx context.Context, f *complaint.Form) error
	Delete(ctx context.Context, id string) error
}

func clone(f *complaint.Form) *complaint.Form {
	c := *f
	if f.Result != nil {
		r := *f.Result
		r.NextSteps = append([]string(nil), f.Result.NextSteps...)
		c.Result = &r
	}
	return &c
}

// MemoryStore is an in-process Store. Forms idle for longer than the TTL
// are treated as gone.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.RWMutex
	forms map[string]*complaint.Form
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:   ttl,
		now:   time.Now,
		forms: make(map[string]*complaint.Form),
	}
}

func (s *MemoryStore) expired(f *complaint.Form) bool {
	return s.ttl > 0 && s.now().Sub(f.UpdatedAt) > s.ttl
}

func (s *MemoryStore) Create(_ context.Context, f *complaint.Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.forms {
		if s.expired(existing) {
			delete(s.forms, id)
		}
	}
	s.forms[f.ID] = clone(f)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*complaint.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.forms[id]
	if !ok || s.expired(f) {
		return nil, complaint.ErrNotFound
	}
	return clone(f), nil
}

func (s *MemoryStore) Save(_ context.Context, f *complaint.Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.forms[f.ID]; !ok {
		return complaint.ErrNotFound
	}
	s.forms[f.ID] = clone(f)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.forms, id)
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.forms)
}

// Locker serialises work on a single form ID within this process.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sync.Mutex
	refs int
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*keyLock)}
}

// Lock blocks until id is free and returns its unlock func.
func (l *Locker) Lock(id string) func() {
	l.mu.Lock()
	k, ok := l.locks[id]
	if !ok {
		k = &keyLock{}
		l.locks[id] = k
	}
	k.refs++
	l.mu.Unlock()

	k.Lock()
	return func() {
		k.Unlock()
		l.mu.Lock()
		k.refs--
		if k.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
