package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"civisense/pkg/session"

	"go.uber.org/zap"
)

// DefaultPollInterval is how often an attached view refetches.
const DefaultPollInterval = 5 * time.Second

// Source is the backend as seen by the dashboard.
type Source interface {
	FetchDashboard(ctx context.Context) ([]Complaint, Stats, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
}

// Options are the static dropdown choices sent with every frame.
type Options struct {
	Categories []string `json:"categories"`
	Areas      []string `json:"areas"`
	Statuses   []string `json:"statuses"`
}

func filterOptions() Options {
	statuses := make([]string, 0, len(Statuses)+1)
	statuses = append(statuses, AllStatuses)
	for _, s := range Statuses {
		statuses = append(statuses, string(s))
	}
	return Options{Categories: Categories, Areas: FilterAreas, Statuses: statuses}
}

// Frame is a snapshot of what the officer sees.
type Frame struct {
	Officer     string      `json:"officer"`
	Complaints  []Complaint `json:"complaints"`
	Stats       Stats       `json:"stats"`
	Filter      FilterState `json:"filter"`
	Sort        SortState   `json:"sort"`
	Shown       int         `json:"shown"`
	Total       int         `json:"total"`
	Loaded      bool        `json:"loaded"`
	RefreshedAt time.Time   `json:"refreshed_at,omitempty"`
	Options     Options     `json:"options"`
}

// Summary is the "Showing X of Y complaints" line.
func (f Frame) Summary() string {
	return fmt.Sprintf("Showing %d of %d complaints", f.Shown, f.Total)
}

type Option func(*View)

func WithPollInterval(d time.Duration) Option {
	return func(v *View) {
		if d > 0 {
			v.interval = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(v *View) {
		if l != nil {
			v.log = l
		}
	}
}

// View is one officer's dashboard. It is safe for concurrent use; all
// state changes happen under mu and are pushed to subscribers.
type View struct {
	session  session.Session
	source   Source
	interval time.Duration
	log      *zap.Logger
	now      func() time.Time

	seq atomic.Uint64

	mu          sync.Mutex
	raw         []Complaint
	stats       Stats
	filter      FilterState
	sort        SortState
	loaded      bool
	appliedSeq  uint64
	refreshedAt time.Time
	subs        map[chan Frame]struct{}
	attached    int
	cancel      context.CancelFunc
	done        chan struct{}
	closed      bool
}

func NewView(s session.Session, src Source, opts ...Option) *View {
	v := &View{
		session:  s,
		source:   src,
		interval: DefaultPollInterval,
		log:      zap.NewNop(),
		now:      time.Now,
		filter:   DefaultFilter(),
		sort:     DefaultSort(),
		subs:     make(map[chan Frame]struct{}),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.log = v.log.With(zap.String("session_id", s.ID), zap.String("officer_id", s.OfficerID))
	return v
}

func (v *View) Session() session.Session {
	return v.session
}

// Refresh fetches the dashboard and applies it unless a fetch started later
// has already been applied. On error the previous data is kept.
func (v *View) Refresh(ctx context.Context) error {
	seq := v.seq.Add(1)
	complaints, stats, err := v.source.FetchDashboard(ctx)
	if err != nil {
		return fmt.Errorf("refresh dashboard: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrViewClosed
	}
	if seq <= v.appliedSeq {
		v.log.Debug("dropping stale dashboard response",
			zap.Uint64("seq", seq), zap.Uint64("applied_seq", v.appliedSeq))
		return nil
	}
	v.appliedSeq = seq
	v.raw = complaints
	v.stats = stats
	v.loaded = true
	v.refreshedAt = v.now().UTC()
	v.publishLocked()
	return nil
}

// UpdateStatus patches one complaint on the backend then refetches. A failed
// refetch is logged; the patch itself already succeeded.
func (v *View) UpdateStatus(ctx context.Context, id string, status Status) (Frame, error) {
	if !status.Valid() {
		return Frame{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if v.isClosed() {
		return Frame{}, ErrViewClosed
	}
	if err := v.source.UpdateStatus(ctx, id, status); err != nil {
		return Frame{}, err
	}
	v.log.Info("complaint status updated", zap.String("complaint_id", id), zap.String("status", string(status)))

	if err := v.Refresh(ctx); err != nil {
		v.log.Warn("refresh after status update failed", zap.Error(err))
	}
	return v.Frame(), nil
}

func (v *View) Frame() Frame {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.frameLocked()
}

func (v *View) SetFilter(f FilterState) Frame {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filter = f.Normalize()
	return v.publishLocked()
}

func (v *View) ToggleSort(field SortField) Frame {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sort = v.sort.Toggle(field)
	return v.publishLocked()
}

// Subscribe returns a channel receiving the latest frame after every change.
// Slow readers only ever see the newest frame. The channel is closed by the
// returned cancel func or by Close.
func (v *View) Subscribe() (<-chan Frame, func()) {
	ch := make(chan Frame, 1)

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	v.subs[ch] = struct{}{}
	if v.loaded {
		ch <- v.frameLocked()
	}
	v.mu.Unlock()

	return ch, func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if _, ok := v.subs[ch]; ok {
			delete(v.subs, ch)
			close(ch)
		}
	}
}

// Attach keeps the view polling until the returned detach func is called.
// Polling runs while at least one attachment is live; the first attachment
// fetches immediately.
func (v *View) Attach() (func(), error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil, ErrViewClosed
	}

	v.attached++
	if v.attached == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		v.cancel = cancel
		v.done = make(chan struct{})
		go v.poll(ctx, v.done)
		v.log.Debug("dashboard polling started", zap.Duration("interval", v.interval))
	}

	var once sync.Once
	return func() { once.Do(v.detach) }, nil
}

// Attached reports the number of live attachments.
func (v *View) Attached() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.attached
}

func (v *View) detach() {
	v.mu.Lock()
	if v.attached == 0 {
		v.mu.Unlock()
		return
	}
	v.attached--
	if v.attached > 0 {
		v.mu.Unlock()
		return
	}
	cancel, done := v.cancel, v.done
	v.cancel, v.done = nil, nil
	v.mu.Unlock()

	stop(cancel, done)
	v.log.Debug("dashboard polling stopped")
}

// Close stops polling and closes every subscription. It is idempotent.
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.attached = 0
	cancel, done := v.cancel, v.done
	v.cancel, v.done = nil, nil
	for ch := range v.subs {
		close(ch)
		delete(v.subs, ch)
	}
	v.mu.Unlock()

	stop(cancel, done)
}

func (v *View) isClosed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

func stop(cancel context.CancelFunc, done chan struct{}) {
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// poll runs ticks one at a time, so a slow fetch delays the next tick
// rather than overlapping it.
func (v *View) poll(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()

	v.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v.tick(ctx)
		}
	}
}

func (v *View) tick(ctx context.Context) {
	err := v.Refresh(ctx)
	switch {
	case err == nil, ctx.Err() != nil, errors.Is(err, ErrViewClosed):
	default:
		v.log.Warn("dashboard poll failed", zap.Error(err))
	}
}

func (v *View) frameLocked() Frame {
	rows := Apply(v.raw, v.filter, v.sort)
	return Frame{
		Officer:     v.session.Name,
		Complaints:  rows,
		Stats:       v.stats,
		Filter:      v.filter,
		Sort:        v.sort,
		Shown:       len(rows),
		Total:       len(v.raw),
		Loaded:      v.loaded,
		RefreshedAt: v.refreshedAt,
		Options:     filterOptions(),
	}
}

func (v *View) publishLocked() Frame {
	f := v.frameLocked()
	for ch := range v.subs {
		offer(ch, f)
	}
	return f
}

// offer replaces any unread frame in ch with f. Callers hold mu, so they are
// the only sender.
func offer(ch chan Frame, f Frame) {
	select {
	case ch <- f:
	default:
		select {
		case <-ch:
		default:
		}
		ch <- f
	}
}
