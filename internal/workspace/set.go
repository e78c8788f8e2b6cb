package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/five82/stint/internal/api"
	"github.com/five82/stint/internal/page"
	"github.com/five82/stint/internal/state"
)

// Remote is the server side of one resource. api.Resource satisfies it.
type Remote[T any] interface {
	List(ctx context.Context, org uuid.UUID, query api.ListQuery) (api.Page[T], error)
	Create(ctx context.Context, org uuid.UUID, body any) (T, error)
	Update(ctx context.Context, org, id uuid.UUID, body any) (T, error)
	Delete(ctx context.Context, org, id uuid.UUID) error
}

// Set binds a remote resource to the cached views of its records. Every
// mutation hits the server first and touches the cache only on success.
type Set[T api.Entity] struct {
	name   string
	remote Remote[T]
	store  *state.Collection[T, uuid.UUID]
	org    func() uuid.UUID
	logger *slog.Logger

	perPage int
	// home receives newly created records.
	home       state.View
	archivable bool

	// mu orders cache edits against reset. epoch counts resets so a
	// mutation that was in flight across an organization switch is not
	// applied to the new organization's pages.
	mu    sync.Mutex
	epoch uint64
}

func newSet[T api.Entity](name string, remote Remote[T], org func() uuid.UUID, perPage int, logger *slog.Logger, archivable bool) *Set[T] {
	views := []state.View{state.ViewAll}
	home := state.ViewAll
	if archivable {
		views = []state.View{state.ViewActive, state.ViewArchived}
		home = state.ViewActive
	}
	return &Set[T]{
		name:       name,
		remote:     remote,
		store:      state.NewCollection(api.Key[T], views...),
		org:        org,
		logger:     logger.With("resource", name),
		perPage:    perPage,
		home:       home,
		archivable: archivable,
	}
}

// Name returns the resource name.
func (s *Set[T]) Name() string { return s.name }

// Views lists the views of the set.
func (s *Set[T]) Views() []state.View { return s.store.Views() }

// Archivable reports whether records move between active and archived views.
func (s *Set[T]) Archivable() bool { return s.archivable }

// Snapshot returns a copy of view for rendering.
func (s *Set[T]) Snapshot(view state.View) state.Snapshot[T] {
	return s.store.Snapshot(view)
}

// Load fetches page n of view and replaces the cached page with it. The
// response is dropped if a newer fetch of the same view already landed.
func (s *Set[T]) Load(ctx context.Context, view state.View, n int) error {
	if n < 1 {
		n = 1
	}
	token := s.store.Begin(view)
	query := api.ListQuery{Page: n, PerPage: s.perPage}
	if s.archivable {
		archived := view == state.ViewArchived
		query.Archived = &archived
	}

	resp, err := s.remote.List(ctx, s.org(), query)
	if err != nil {
		s.store.Update(view, token, nil, page.Meta{}, err)
		return err
	}
	meta, err := resp.PageMeta()
	if err != nil {
		err = fmt.Errorf("list %s: %w", s.name, err)
		s.store.Update(view, token, nil, page.Meta{}, err)
		return err
	}
	if !s.store.Update(view, token, resp.Data, meta, nil) {
		s.logger.Debug("dropped stale page", "view", view, "page", n)
	}
	return nil
}

// Reload fetches the page currently held for view again.
func (s *Set[T]) Reload(ctx context.Context, view state.View) error {
	return s.Load(ctx, view, s.store.Page(view))
}

// Create creates a record and places it at the head of the home view.
func (s *Set[T]) Create(ctx context.Context, body any) (T, error) {
	org, epoch := s.begin()
	created, err := s.remote.Create(ctx, org, body)
	if err != nil {
		return created, err
	}
	if s.apply(epoch, "create", func() { s.store.Insert(s.home, created) }) {
		s.settle(ctx, s.home)
	}
	return created, nil
}

// Update updates a record and replaces it in place wherever it is shown.
func (s *Set[T]) Update(ctx context.Context, id uuid.UUID, body any) (T, error) {
	org, epoch := s.begin()
	updated, err := s.remote.Update(ctx, org, id, body)
	if err != nil {
		return updated, err
	}
	s.apply(epoch, "update", func() {
		if view, ok := s.store.Locate(id); ok {
			s.store.Replace(view, id, updated)
		}
	})
	return updated, nil
}

// Delete deletes a record and drops it from its view. A record the server
// no longer knows was deleted elsewhere and is dropped all the same.
func (s *Set[T]) Delete(ctx context.Context, id uuid.UUID) error {
	org, epoch := s.begin()
	if err := s.remote.Delete(ctx, org, id); err != nil {
		if !api.IsNotFound(err) {
			return err
		}
		s.logger.Debug("record already deleted", "id", id)
	}
	var (
		view  state.View
		shown bool
	)
	applied := s.apply(epoch, "delete", func() {
		if view, shown = s.store.Locate(id); shown {
			s.store.Remove(view, id)
		}
	})
	if applied && shown {
		s.settle(ctx, view)
	}
	return nil
}

// Archive moves a record from the active to the archived view.
func (s *Set[T]) Archive(ctx context.Context, id uuid.UUID) (T, error) {
	return s.setArchived(ctx, id, true)
}

// Unarchive moves a record from the archived to the active view.
func (s *Set[T]) Unarchive(ctx context.Context, id uuid.UUID) (T, error) {
	return s.setArchived(ctx, id, false)
}

func (s *Set[T]) setArchived(ctx context.Context, id uuid.UUID, archived bool) (T, error) {
	var zero T
	if !s.archivable {
		return zero, fmt.Errorf("%s cannot be archived", s.name)
	}
	org, epoch := s.begin()
	updated, err := s.remote.Update(ctx, org, id, api.ArchiveRequest{IsArchived: archived})
	if err != nil {
		return zero, err
	}
	from, to := state.ViewActive, state.ViewArchived
	if !archived {
		from, to = to, from
	}
	var moved bool
	if !s.apply(epoch, "archive", func() { moved = s.store.Move(from, to, id, func(T) T { return updated }) }) {
		return updated, nil
	}
	if !moved {
		s.logger.Debug("archived record not on the current page", "id", id, "archived", archived)
	}
	s.settle(ctx, from)
	s.settle(ctx, to)
	return updated, nil
}

// settle runs the refresh policy for a loaded view after a mutation. A failed
// refetch is recorded on the view and logged; the mutation itself stands.
func (s *Set[T]) settle(ctx context.Context, view state.View) {
	if !s.store.Loaded(view) || !s.store.NeedsRefetch(view) {
		return
	}
	if err := s.Reload(ctx, view); err != nil {
		s.logger.Warn("refetch after mutation failed", "view", view, "error", err)
	}
}

// begin captures the organization and epoch a mutation runs under.
func (s *Set[T]) begin() (uuid.UUID, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.org(), s.epoch
}

// apply runs edit against the cached pages unless the set was reset since
// epoch was captured. It reports whether edit ran.
func (s *Set[T]) apply(epoch uint64, op string, edit func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		s.logger.Debug("dropped result from a previous organization", "op", op)
		return false
	}
	edit()
	return true
}

func (s *Set[T]) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.store.Reset()
}
