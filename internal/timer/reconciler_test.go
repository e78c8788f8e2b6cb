package timer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/five82/stint/internal/api"
)

type fakeFetcher struct {
	mu    sync.Mutex
	entry *api.TimeEntry
	err   error
	calls int
	gate  chan struct{}
}

func (f *fakeFetcher) ActiveTimeEntry(ctx context.Context) (*api.TimeEntry, error) {
	f.mu.Lock()
	gate := f.gate
	f.calls++
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.entry == nil {
		return nil, nil
	}
	e := *f.entry
	return &e, nil
}

func (f *fakeFetcher) set(entry *api.TimeEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entry = entry
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fixture struct {
	scope   Scope
	now     time.Time
	fetcher *fakeFetcher
	rec     *Reconciler
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		scope:   Scope{OrganizationID: uuid.New(), UserID: uuid.New()},
		now:     time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC),
		fetcher: &fakeFetcher{},
	}
	opts = append([]Option{WithClock(func() time.Time { return f.now })}, opts...)
	f.rec = New(f.fetcher, f.scope, opts...)
	t.Cleanup(f.rec.Close)
	return f
}

func (f *fixture) running(ago time.Duration) api.TimeEntry {
	return api.TimeEntry{
		ID:             uuid.New(),
		Start:          f.now.Add(-ago),
		UserID:         f.scope.UserID,
		OrganizationID: f.scope.OrganizationID,
	}
}

func (f *fixture) event(typ api.EventType) api.Event {
	return api.Event{Type: typ, OwnerID: f.scope.UserID, OrganizationID: f.scope.OrganizationID}
}

func TestReconciler_TickDisplayAndStoppedEvent(t *testing.T) {
	f := newFixture(t)
	entry := f.running(65 * time.Second)
	f.rec.Start(entry)

	require.Equal(t, Running, f.rec.State())
	require.True(t, f.rec.Ticking())
	require.Equal(t, "00:01:05", f.rec.Display())

	f.fetcher.set(nil)
	matched, err := f.rec.Handle(context.Background(), f.event(api.EventStopped))
	require.NoError(t, err)
	require.True(t, matched)

	require.Equal(t, Idle, f.rec.State())
	require.False(t, f.rec.Ticking())
	require.Equal(t, "00:00:00", f.rec.Display())

	f.now = f.now.Add(time.Hour)
	require.Equal(t, "00:00:00", f.rec.Display())
}

func TestReconciler_TickLoopPublishes(t *testing.T) {
	f := newFixture(t, WithInterval(5*time.Millisecond))
	f.rec.Start(f.running(3*time.Hour + 2*time.Minute + 1*time.Second))

	select {
	case got := <-f.rec.Ticks():
		require.Equal(t, "03:02:01", got)
	case <-time.After(2 * time.Second):
		t.Fatal("no tick published while running")
	}

	f.rec.Stop()
	require.Eventually(t, func() bool {
		select {
		case got := <-f.rec.Ticks():
			return got == "00:00:00"
		default:
			return false
		}
	}, 2*time.Second, 5*time.Millisecond)
}

func TestReconciler_IgnoresOtherUsersAndOrganizations(t *testing.T) {
	f := newFixture(t)
	f.fetcher.set(ptr(f.running(time.Minute)))

	other := f.event(api.EventStarted)
	other.OwnerID = uuid.New()
	matched, err := f.rec.Handle(context.Background(), other)
	require.NoError(t, err)
	require.False(t, matched)

	otherOrg := f.event(api.EventStarted)
	otherOrg.OrganizationID = uuid.New()
	matched, err = f.rec.Handle(context.Background(), otherOrg)
	require.NoError(t, err)
	require.False(t, matched)

	unknown := f.event(api.EventType("renamed"))
	require.False(t, f.rec.Matches(unknown))

	require.Zero(t, f.fetcher.callCount())
	require.Equal(t, Idle, f.rec.State())
}

func TestReconciler_RefetchesInsteadOfTrustingPayload(t *testing.T) {
	f := newFixture(t)
	current := f.running(10 * time.Minute)
	f.fetcher.set(&current)

	// A stale "stopped" notification delivered after a newer start: the
	// authoritative record says the timer runs.
	matched, err := f.rec.Handle(context.Background(), f.event(api.EventStopped))
	require.NoError(t, err)
	require.True(t, matched)
	require.Equal(t, Running, f.rec.State())
	require.Equal(t, current.ID, f.rec.Current().ID)
	require.Equal(t, 1, f.fetcher.callCount())
}

func TestReconciler_IgnoresEntriesFromOtherOrganizations(t *testing.T) {
	f := newFixture(t)
	foreign := f.running(time.Minute)
	foreign.OrganizationID = uuid.New()
	f.fetcher.set(&foreign)

	require.NoError(t, f.rec.Refresh(context.Background()))
	require.Equal(t, Idle, f.rec.State())
}

func TestReconciler_SwitchOrganizationGoesIdleFirst(t *testing.T) {
	f := newFixture(t)
	f.rec.Start(f.running(time.Minute))

	next := Scope{OrganizationID: uuid.New(), UserID: f.scope.UserID}
	gate := make(chan struct{})
	f.fetcher.mu.Lock()
	f.fetcher.gate = gate
	f.fetcher.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- f.rec.SwitchOrganization(context.Background(), next) }()

	require.Eventually(t, func() bool { return f.fetcher.callCount() == 1 }, 2*time.Second, time.Millisecond)
	require.Equal(t, Idle, f.rec.State())
	require.False(t, f.rec.Ticking())
	require.Equal(t, next, f.rec.Scope())

	entry := api.TimeEntry{ID: uuid.New(), Start: f.now.Add(-time.Second), UserID: next.UserID, OrganizationID: next.OrganizationID}
	f.fetcher.set(&entry)
	close(gate)
	require.NoError(t, <-done)

	require.Equal(t, Running, f.rec.State())
	require.Equal(t, entry.ID, f.rec.Current().ID)
}

func TestReconciler_StartFromPreviousOrganizationIgnored(t *testing.T) {
	f := newFixture(t)
	current := f.running(time.Minute)
	f.rec.Start(current)

	late := f.running(time.Second)
	late.OrganizationID = uuid.New()
	f.rec.Start(late)

	require.Equal(t, Running, f.rec.State())
	require.Equal(t, current.ID, f.rec.Current().ID)
}

func TestReconciler_StaleRefreshDiscarded(t *testing.T) {
	f := newFixture(t)
	f.fetcher.set(ptr(f.running(time.Minute)))
	gate := make(chan struct{})
	f.fetcher.mu.Lock()
	f.fetcher.gate = gate
	f.fetcher.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- f.rec.Refresh(context.Background()) }()
	require.Eventually(t, func() bool { return f.fetcher.callCount() == 1 }, 2*time.Second, time.Millisecond)

	// A local stop lands while the refresh is in flight.
	f.rec.Stop()
	close(gate)
	require.NoError(t, <-done)
	require.Equal(t, Idle, f.rec.State())
}

func TestReconciler_RefreshErrorKeepsState(t *testing.T) {
	f := newFixture(t)
	entry := f.running(time.Minute)
	f.rec.Start(entry)

	f.fetcher.mu.Lock()
	f.fetcher.err = errors.New("boom")
	f.fetcher.mu.Unlock()

	err := f.rec.Refresh(context.Background())
	require.ErrorContains(t, err, "fetch active time entry")
	require.Equal(t, entry.ID, f.rec.Current().ID)
}

func TestReconciler_OnChangeFiresForRefetchedTransitions(t *testing.T) {
	var seen []*api.TimeEntry
	f := newFixture(t, WithOnChange(func(_ context.Context, e *api.TimeEntry) { seen = append(seen, e) }))

	entry := f.running(time.Minute)
	f.fetcher.set(&entry)
	require.NoError(t, f.rec.Refresh(context.Background()))
	require.NoError(t, f.rec.Refresh(context.Background()))

	f.fetcher.set(nil)
	require.NoError(t, f.rec.Refresh(context.Background()))

	require.Len(t, seen, 2)
	require.Equal(t, entry.ID, seen[0].ID)
	require.Nil(t, seen[1])
}

func TestReconciler_RunConsumesQueue(t *testing.T) {
	f := newFixture(t)
	entry := f.running(time.Minute)
	f.fetcher.set(&entry)

	events := make(chan api.Event, 3)
	events <- api.Event{Type: api.EventStarted, OwnerID: uuid.New(), OrganizationID: f.scope.OrganizationID}
	events <- f.event(api.EventStarted)
	close(events)

	f.rec.Run(context.Background(), events)
	require.Equal(t, 1, f.fetcher.callCount())
	require.Equal(t, Running, f.rec.State())
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00:00"},
		{-time.Second, "00:00:00"},
		{65 * time.Second, "00:01:05"},
		{59*time.Minute + 59*time.Second + 900*time.Millisecond, "00:59:59"},
		{26 * time.Hour, "26:00:00"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Format(tt.in), "Format(%v)", tt.in)
	}
}

func ptr[T any](v T) *T { return &v }
