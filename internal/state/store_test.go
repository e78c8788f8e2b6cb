package state

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/five82/stint/internal/page"
)

type client struct {
	ID       int
	Archived bool
}

func clientKey(c client) int { return c.ID }

func mustMeta(t *testing.T, total, current, size int) page.Meta {
	t.Helper()
	m, err := page.FromServer(total, current, size)
	if err != nil {
		t.Fatalf("FromServer: %v", err)
	}
	return m
}

func TestCollection_UpdateAndSnapshotClone(t *testing.T) {
	c := NewCollection(clientKey, ViewActive, ViewArchived)

	before := time.Now()
	if !c.Update(ViewActive, c.Begin(ViewActive), []client{{ID: 1}, {ID: 2}}, mustMeta(t, 2, 1, 10), nil) {
		t.Fatalf("Update returned false for first response")
	}

	snap := c.Snapshot(ViewActive)
	if !snap.Loaded || snap.Meta.Total != 2 {
		t.Fatalf("snapshot meta = %+v loaded=%v, want total=2", snap.Meta, snap.Loaded)
	}
	if len(snap.Items) != 2 || snap.Items[0].ID != 1 {
		t.Fatalf("snapshot items = %#v, want 2 items", snap.Items)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError != nil {
		t.Fatalf("LastError = %v, want nil", snap.LastError)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Items[0].ID = 999
	if c.Snapshot(ViewActive).Items[0].ID != 1 {
		t.Fatalf("Snapshot should clone items")
	}

	if c.Snapshot(ViewArchived).Loaded {
		t.Fatalf("archived view loaded without a response")
	}
}

func TestCollection_UpdateErrorKeepsPreviousData(t *testing.T) {
	c := NewCollection(clientKey)
	c.Update(ViewAll, c.Begin(ViewAll), []client{{ID: 1}}, mustMeta(t, 1, 1, 10), nil)
	prev := c.Snapshot(ViewAll)

	origErr := errors.New("boom")
	if c.Update(ViewAll, c.Begin(ViewAll), nil, page.Meta{}, origErr) {
		t.Fatalf("Update with error returned true")
	}

	snap := c.Snapshot(ViewAll)
	if diff := cmp.Diff(prev.Items, snap.Items); diff != "" {
		t.Fatalf("items changed on error (-want +got):\n%s", diff)
	}
	if snap.Meta != prev.Meta {
		t.Fatalf("meta changed on error: got %+v want %+v", snap.Meta, prev.Meta)
	}
	if snap.LastError != origErr {
		t.Fatalf("LastError = %v, want the recorded error itself", snap.LastError)
	}
}

func TestCollection_ConsecutiveFailures(t *testing.T) {
	c := NewCollection(clientKey)

	if c.Snapshot(ViewAll).IsOffline() {
		t.Fatal("IsOffline() = true, want false with 0 failures")
	}
	c.Update(ViewAll, c.Begin(ViewAll), nil, page.Meta{}, errors.New("fail 1"))
	if c.Snapshot(ViewAll).IsOffline() {
		t.Fatal("IsOffline() = true, want false with 1 failure")
	}
	c.Update(ViewAll, c.Begin(ViewAll), nil, page.Meta{}, errors.New("fail 2"))
	if snap := c.Snapshot(ViewAll); !snap.IsOffline() || snap.ConsecutiveFailures != 2 {
		t.Fatalf("failures = %d offline=%v, want 2 and offline", snap.ConsecutiveFailures, snap.IsOffline())
	}

	c.Update(ViewAll, c.Begin(ViewAll), nil, mustMeta(t, 0, 1, 10), nil)
	if snap := c.Snapshot(ViewAll); snap.ConsecutiveFailures != 0 || snap.LastError != nil {
		t.Fatalf("success did not reset failures: %+v", snap)
	}
}

func TestCollection_MoveIsAtomicForReaders(t *testing.T) {
	c := NewCollection(clientKey, ViewActive, ViewArchived)
	var active []client
	for i := 1; i <= 50; i++ {
		active = append(active, client{ID: i})
	}
	c.Update(ViewActive, c.Begin(ViewActive), active, mustMeta(t, 50, 1, 50), nil)
	c.Update(ViewArchived, c.Begin(ViewArchived), nil, mustMeta(t, 0, 1, 50), nil)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			c.mu.RLock()
			total := c.views[ViewActive].cache.Meta().Total + c.views[ViewArchived].cache.Meta().Total
			c.mu.RUnlock()
			if total != 50 {
				t.Errorf("observed combined total %d mid-move", total)
				return
			}
		}
	}()

	for i := 1; i <= 50; i++ {
		c.Move(ViewActive, ViewArchived, i, func(cl client) client {
			cl.Archived = true
			return cl
		})
	}
	close(done)
	wg.Wait()

	if got := c.Snapshot(ViewArchived).Meta.Total; got != 50 {
		t.Fatalf("archived total = %d, want 50", got)
	}
	if v, ok := c.Locate(7); !ok || v != ViewArchived {
		t.Fatalf("Locate(7) = %q %v, want archived", v, ok)
	}
}

func TestCollection_StaleUpdateDropped(t *testing.T) {
	c := NewCollection(clientKey)
	older := c.Begin(ViewAll)
	newer := c.Begin(ViewAll)

	c.Update(ViewAll, newer, []client{{ID: 2}}, mustMeta(t, 1, 2, 1), nil)
	if c.Update(ViewAll, older, []client{{ID: 1}}, mustMeta(t, 1, 1, 1), nil) {
		t.Fatalf("stale response applied")
	}
	if got := c.Page(ViewAll); got != 1 {
		t.Fatalf("Page = %d, want clamped page 1 from newer response", got)
	}
	if items := c.Snapshot(ViewAll).Items; len(items) != 1 || items[0].ID != 2 {
		t.Fatalf("items = %#v, want newer response", items)
	}
}

func TestCollection_ResetClearsViews(t *testing.T) {
	c := NewCollection(clientKey, ViewActive, ViewArchived)
	c.Update(ViewActive, c.Begin(ViewActive), []client{{ID: 1}}, mustMeta(t, 1, 1, 10), nil)
	c.Update(ViewArchived, c.Begin(ViewArchived), nil, page.Meta{}, errors.New("boom"))

	c.Reset()

	for _, v := range c.Views() {
		snap := c.Snapshot(v)
		if snap.Loaded || len(snap.Items) != 0 || snap.LastError != nil {
			t.Fatalf("view %q not reset: %+v", v, snap)
		}
	}
}

func TestCollection_UnknownViewPanics(t *testing.T) {
	c := NewCollection(clientKey)
	defer func() {
		if recover() == nil {
			t.Fatalf("Snapshot of unknown view did not panic")
		}
	}()
	c.Snapshot(ViewArchived)
}
