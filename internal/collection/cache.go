package collection

import (
	"slices"

	"github.com/five82/stint/internal/page"
)

// Cache is the current page of one list view.
type Cache[T any, K comparable] struct {
	key     func(T) K
	items   []T
	meta    *page.Meta
	issued  uint64
	applied uint64
	// optimistic is set once a local mutation changed the counts since the
	// last authoritative Seed.
	optimistic bool
}

// New returns an empty, unloaded cache. key extracts the identity of a record.
func New[T any, K comparable](key func(T) K) *Cache[T, K] {
	if key == nil {
		panic("collection: nil key func")
	}
	return &Cache[T, K]{key: key}
}

// Items returns a copy of the records on the current page, in display order.
func (c *Cache[T, K]) Items() []T {
	return clone(c.items)
}

// Len returns the number of records held.
func (c *Cache[T, K]) Len() int {
	return len(c.items)
}

// Meta returns a copy of the pagination state, or nil when nothing has been
// loaded yet.
func (c *Cache[T, K]) Meta() *page.Meta {
	if c.meta == nil {
		return nil
	}
	m := *c.meta
	return &m
}

// Get returns the record with the given id.
func (c *Cache[T, K]) Get(id K) (T, bool) {
	if i := c.index(id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// Contains reports whether a record with the given id is on the page.
func (c *Cache[T, K]) Contains(id K) bool {
	return c.index(id) >= 0
}

// Begin issues the token for a new fetch of this view.
func (c *Cache[T, K]) Begin() uint64 {
	c.issued++
	return c.issued
}

// Seed replaces the page with an authoritative response fetched under token.
// It reports false and leaves the cache untouched when a response for a
// newer token has already been applied. Records past meta.PageSize are
// dropped so the page never holds more than one page.
func (c *Cache[T, K]) Seed(token uint64, items []T, meta page.Meta) bool {
	if token <= c.applied {
		return false
	}
	c.applied = token
	if token > c.issued {
		c.issued = token
	}
	if meta.PageSize > 0 && len(items) > meta.PageSize {
		items = items[:meta.PageSize]
	}
	c.items = clone(items)
	c.meta = &meta
	c.optimistic = false
	return true
}

// Reset discards the page and its meta, returning the cache to the unloaded
// state. Outstanding fetch tokens are invalidated.
func (c *Cache[T, K]) Reset() {
	c.items = nil
	c.meta = nil
	c.optimistic = false
	c.issued++
	c.applied = c.issued
}

// InsertAtHead prepends item and counts it in the total. When the page grows
// past the page size the tail record is evicted since it now belongs to the
// next page. It returns whether a record was evicted.
//
// Inserting a record whose id is already on the page replaces it in place
// without touching the total.
func (c *Cache[T, K]) InsertAtHead(item T) bool {
	if i := c.index(c.key(item)); i >= 0 {
		c.items[i] = item
		return false
	}
	c.items = slices.Insert(c.items, 0, item)
	c.meta = page.ApplyDelta(c.meta, 1)
	c.optimistic = true
	if c.meta != nil && len(c.items) > c.meta.PageSize {
		c.items = c.items[:c.meta.PageSize]
		return true
	}
	return false
}

// RemoveByID drops the record with the given id and uncounts it. A missing
// id is a no-op: a concurrent action already removed it.
func (c *Cache[T, K]) RemoveByID(id K) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.items = slices.Delete(c.items, i, i+1)
	c.meta = page.ApplyDelta(c.meta, -1)
	c.optimistic = true
	return true
}

// ReplaceByID swaps the record with the given id for updated, keeping its
// position. The total never changes.
func (c *Cache[T, K]) ReplaceByID(id K, updated T) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.items[i] = updated
	return true
}

// NeedsRefetch reports whether the page must be pulled from the server again.
// That is the case when nothing is loaded, when the page is empty or short
// while the server holds records for it, or when an optimistic mutation left
// records past the boundary of the current page that the cache cannot place.
// A page fresh from the server is never flagged.
func (c *Cache[T, K]) NeedsRefetch() bool {
	if c.meta == nil {
		return true
	}
	if len(c.items) == 0 && c.meta.Total > 0 {
		return true
	}
	if len(c.items) < c.meta.Expected() {
		return true
	}
	return c.optimistic && c.meta.Total > c.meta.Boundary()
}

// Move removes the record with the given id from src and inserts transform of
// it at the head of dst, adjusting both metas. The record is never in both
// caches or in neither once Move returns. It reports false when id is not in
// src.
//
// The sum of both totals is conserved. When a stale dst page already shows
// the record it is replaced in place and still counted, which leaves dst
// flagged for a refetch.
func Move[T any, K comparable](src, dst *Cache[T, K], id K, transform func(T) T) bool {
	item, ok := src.Get(id)
	if !ok {
		return false
	}
	if transform != nil {
		item = transform(item)
	}
	src.RemoveByID(id)
	if i := dst.index(dst.key(item)); i >= 0 {
		dst.items[i] = item
		dst.meta = page.ApplyDelta(dst.meta, 1)
		dst.optimistic = true
		return true
	}
	dst.InsertAtHead(item)
	return true
}

func (c *Cache[T, K]) index(id K) int {
	return slices.IndexFunc(c.items, func(item T) bool { return c.key(item) == id })
}

func clone[T any](items []T) []T {
	if len(items) == 0 {
		return nil
	}
	dup := make([]T, len(items))
	copy(dup, items)
	return dup
}
