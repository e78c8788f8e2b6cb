package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/stint/internal/collection"
	"github.com/five82/stint/internal/page"
)

// View names one list view of an entity type.
type View string

const (
	ViewAll      View = "all"
	ViewActive   View = "active"
	ViewArchived View = "archived"
)

// Snapshot is a copy of one view handed to the UI.
type Snapshot[T any] struct {
	View                View
	Items               []T
	Meta                page.Meta
	Loaded              bool
	NeedsRefetch        bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
}

// IsOffline returns true when the API has been unreachable for multiple fetches.
func (s Snapshot[T]) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

type viewState[T any, K comparable] struct {
	cache       *collection.Cache[T, K]
	lastUpdated time.Time
	lastError   error
	failures    int
}

// Collection holds every view of one entity type behind a single lock, so a
// move between two views is never observed half applied.
type Collection[T any, K comparable] struct {
	mu    sync.RWMutex
	order []View
	views map[View]*viewState[T, K]
}

// NewCollection returns a collection with one empty cache per view.
func NewCollection[T any, K comparable](key func(T) K, views ...View) *Collection[T, K] {
	if len(views) == 0 {
		views = []View{ViewAll}
	}
	c := &Collection[T, K]{views: make(map[View]*viewState[T, K], len(views))}
	for _, v := range views {
		if _, dup := c.views[v]; dup {
			continue
		}
		c.order = append(c.order, v)
		c.views[v] = &viewState[T, K]{cache: collection.New(key)}
	}
	return c
}

// Views lists the views in declaration order.
func (c *Collection[T, K]) Views() []View {
	return append([]View(nil), c.order...)
}

// Has reports whether view belongs to the collection.
func (c *Collection[T, K]) Has(view View) bool {
	_, ok := c.views[view]
	return ok
}

// Begin issues a fetch token for view.
func (c *Collection[T, K]) Begin(view View) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view(view).cache.Begin()
}

// Update applies the outcome of a fetch issued under token. When err is
// non-nil the previous page is kept but the error is recorded for visibility.
// It reports whether the response replaced the page.
func (c *Collection[T, K]) Update(view View, token uint64, items []T, meta page.Meta, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	vs := c.view(view)
	vs.lastUpdated = time.Now()
	if err != nil {
		vs.lastError = err
		vs.failures++
		return false
	}
	if !vs.cache.Seed(token, items, meta) {
		return false
	}
	vs.lastError = nil
	vs.failures = 0
	return true
}

// Snapshot returns a copy of view.
func (c *Collection[T, K]) Snapshot(view View) Snapshot[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	vs := c.view(view)
	snap := Snapshot[T]{
		View:                view,
		Items:               vs.cache.Items(),
		NeedsRefetch:        vs.cache.NeedsRefetch(),
		LastUpdated:         vs.lastUpdated,
		LastError:           vs.lastError,
		ConsecutiveFailures: vs.failures,
	}
	if m := vs.cache.Meta(); m != nil {
		snap.Meta = *m
		snap.Loaded = true
	}
	return snap
}

// Loaded reports whether view holds a server response.
func (c *Collection[T, K]) Loaded(view View) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view(view).cache.Meta() != nil
}

// Page returns the page currently held for view, or 1 when nothing is loaded.
func (c *Collection[T, K]) Page(view View) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if m := c.view(view).cache.Meta(); m != nil {
		return m.Page
	}
	return 1
}

// Locate returns the view whose page holds id.
func (c *Collection[T, K]) Locate(id K) (View, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, v := range c.order {
		if c.views[v].cache.Contains(id) {
			return v, true
		}
	}
	return "", false
}

// Get returns the record with id from whichever view holds it.
func (c *Collection[T, K]) Get(id K) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, v := range c.order {
		if item, ok := c.views[v].cache.Get(id); ok {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Insert puts item at the head of view. It reports whether a tail record was
// evicted to the next page.
func (c *Collection[T, K]) Insert(view View, item T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view(view).cache.InsertAtHead(item)
}

// Remove drops id from view. Missing ids are ignored.
func (c *Collection[T, K]) Remove(view View, id K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view(view).cache.RemoveByID(id)
}

// Replace swaps the record with id in view.
func (c *Collection[T, K]) Replace(view View, id K, item T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view(view).cache.ReplaceByID(id, item)
}

// Move transfers id from one view to another in a single critical section.
func (c *Collection[T, K]) Move(from, to View, id K, transform func(T) T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return collection.Move(c.view(from).cache, c.view(to).cache, id, transform)
}

// NeedsRefetch reports whether view has drifted from the server.
func (c *Collection[T, K]) NeedsRefetch(view View) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view(view).cache.NeedsRefetch()
}

// Reset discards every view, including recorded errors.
func (c *Collection[T, K]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, vs := range c.views {
		vs.cache.Reset()
		vs.lastError = nil
		vs.lastUpdated = time.Time{}
		vs.failures = 0
	}
}

func (c *Collection[T, K]) view(v View) *viewState[T, K] {
	vs, ok := c.views[v]
	if !ok {
		panic(fmt.Sprintf("state: unknown view %q", v))
	}
	return vs
}
