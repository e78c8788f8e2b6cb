package timer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/five82/stint/internal/api"
)

// State is the reconciler state.
type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// Scope identifies whose timer, in which organization, is tracked.
type Scope struct {
	OrganizationID uuid.UUID
	UserID         uuid.UUID
}

// Fetcher returns the authoritative running time entry, nil when none runs.
type Fetcher interface {
	ActiveTimeEntry(ctx context.Context) (*api.TimeEntry, error)
}

const (
	defaultInterval = time.Second
	zeroDisplay     = "00:00:00"
)

// Option customizes a Reconciler.
type Option func(*Reconciler)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// WithInterval sets the tick interval.
func WithInterval(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithOnChange registers fn to run after a refetch changed the running entry.
func WithOnChange(fn func(context.Context, *api.TimeEntry)) Option {
	return func(r *Reconciler) { r.onChange = fn }
}

// Reconciler tracks the running timer. It is safe for concurrent use.
type Reconciler struct {
	fetcher  Fetcher
	now      func() time.Time
	interval time.Duration
	logger   *slog.Logger
	onChange func(context.Context, *api.TimeEntry)
	ticks    chan string

	mu       sync.Mutex
	scope    Scope
	gen      uint64
	entry    *api.TimeEntry
	stopTick context.CancelFunc
}

// New returns an Idle reconciler for scope.
func New(fetcher Fetcher, scope Scope, opts ...Option) *Reconciler {
	r := &Reconciler{
		fetcher:  fetcher,
		now:      time.Now,
		interval: defaultInterval,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		ticks:    make(chan string, 1),
		scope:    scope,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ticks delivers the formatted elapsed time on every tick while Running, and
// a final zero display when the timer stops. Slow readers only miss
// intermediate values.
func (r *Reconciler) Ticks() <-chan string {
	return r.ticks
}

// State returns the current state.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entry == nil {
		return Idle
	}
	return Running
}

// Scope returns the tracked scope.
func (r *Reconciler) Scope() Scope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scope
}

// Current returns a copy of the running entry, or nil when Idle.
func (r *Reconciler) Current() *api.TimeEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entry == nil {
		return nil
	}
	e := *r.entry
	return &e
}

// Ticking reports whether the tick loop is active.
func (r *Reconciler) Ticking() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopTick != nil
}

// Elapsed returns now - start for the running entry, zero when Idle.
func (r *Reconciler) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entry == nil {
		return 0
	}
	return r.entry.Elapsed(r.now())
}

// Display returns the elapsed time as HH:MM:SS. Idle displays 00:00:00.
func (r *Reconciler) Display() string {
	return Format(r.Elapsed())
}

// Start records a running entry after a local start succeeded. An entry from
// another organization is ignored; it was started before a switch.
func (r *Reconciler) Start(entry api.TimeEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.OrganizationID != r.scope.OrganizationID {
		r.logger.Debug("ignored start outside scope", "entry", entry.ID, "organization", entry.OrganizationID)
		return
	}
	r.gen++
	r.setLocked(&entry)
}

// Stop clears the running entry after a local stop succeeded.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	r.gen++
	r.setLocked(nil)
	r.mu.Unlock()
}

// Refresh re-fetches the running entry and replaces local state with it.
// The result is dropped when another transition happened while the request
// was in flight.
func (r *Reconciler) Refresh(ctx context.Context) error {
	r.mu.Lock()
	gen := r.gen
	r.mu.Unlock()

	entry, err := r.fetcher.ActiveTimeEntry(ctx)
	if err != nil {
		return fmt.Errorf("fetch active time entry: %w", err)
	}

	r.mu.Lock()
	if gen != r.gen {
		r.mu.Unlock()
		r.logger.Debug("discarding stale timer refresh")
		return nil
	}
	r.gen++
	changed := r.setLocked(entry)
	current := r.currentLocked()
	r.mu.Unlock()

	if changed && r.onChange != nil {
		r.onChange(ctx, current)
	}
	return nil
}

// Matches reports whether ev concerns the tracked user and organization.
func (r *Reconciler) Matches(ev api.Event) bool {
	if ev.Type != api.EventStarted && ev.Type != api.EventStopped {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return ev.OwnerID == r.scope.UserID && ev.OrganizationID == r.scope.OrganizationID
}

// Handle processes one push event. Non-matching events are ignored; matching
// ones trigger a Refresh regardless of direction. It reports whether the
// event matched.
func (r *Reconciler) Handle(ctx context.Context, ev api.Event) (bool, error) {
	if !r.Matches(ev) {
		r.logger.Debug("ignoring timer event", "seq", ev.Seq, "event", ev.Type, "owner", ev.OwnerID)
		return false, nil
	}
	r.logger.Debug("timer event", "seq", ev.Seq, "event", ev.Type)
	return true, r.Refresh(ctx)
}

// Run handles events until ctx is cancelled or events is closed.
func (r *Reconciler) Run(ctx context.Context, events <-chan api.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if _, err := r.Handle(ctx, ev); err != nil {
				r.logger.Warn("timer refresh failed", "seq", ev.Seq, "error", err)
			}
		}
	}
}

// Rescope drops to Idle, stops the ticker and adopts scope without fetching.
// Refreshes in flight for the previous scope are discarded.
func (r *Reconciler) Rescope(scope Scope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	r.setLocked(nil)
	r.scope = scope
}

// SwitchOrganization rescopes and then fetches the timer for the new scope.
func (r *Reconciler) SwitchOrganization(ctx context.Context, scope Scope) error {
	r.Rescope(scope)
	return r.Refresh(ctx)
}

// Close stops the tick loop. The reconciler keeps its state.
func (r *Reconciler) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopTickingLocked()
}

// setLocked installs entry and starts or stops the tick loop to match. It
// reports whether the running entry changed.
func (r *Reconciler) setLocked(entry *api.TimeEntry) bool {
	if entry != nil && (!entry.Running() || entry.OrganizationID != r.scope.OrganizationID) {
		entry = nil
	}
	prev := r.entry
	if entry == nil {
		r.entry = nil
		r.stopTickingLocked()
		if prev != nil {
			r.emit(zeroDisplay)
		}
		return prev != nil
	}

	e := *entry
	r.entry = &e
	changed := prev == nil || prev.ID != e.ID || !prev.Start.Equal(e.Start)
	if changed || r.stopTick == nil {
		r.stopTickingLocked()
		r.startTickingLocked()
	}
	return changed
}

func (r *Reconciler) currentLocked() *api.TimeEntry {
	if r.entry == nil {
		return nil
	}
	e := *r.entry
	return &e
}

func (r *Reconciler) startTickingLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	r.stopTick = cancel
	go r.tickLoop(ctx)
}

func (r *Reconciler) stopTickingLocked() {
	if r.stopTick != nil {
		r.stopTick()
		r.stopTick = nil
	}
}

func (r *Reconciler) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.publish(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.publish(ctx)
		}
	}
}

func (r *Reconciler) publish(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// The loop may have been cancelled while waiting for the lock.
	if ctx.Err() != nil || r.entry == nil {
		return
	}
	r.emit(Format(r.entry.Elapsed(r.now())))
}

// emit replaces any unread value so the channel always holds the latest.
func (r *Reconciler) emit(display string) {
	select {
	case r.ticks <- display:
		return
	default:
	}
	select {
	case <-r.ticks:
	default:
	}
	select {
	case r.ticks <- display:
	default:
	}
}

// Format renders d as HH:MM:SS. Hours are not capped at 24.
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}
