package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/five82/stint/internal/api"
	"github.com/five82/stint/internal/state"
	"github.com/five82/stint/internal/timer"
)

var (
	// ErrTimerRunning is returned when starting a timer while one runs.
	ErrTimerRunning = errors.New("a timer is already running")
	// ErrNoTimer is returned when stopping a timer while none runs.
	ErrNoTimer = errors.New("no timer is running")
)

const maxParallelLoads = 4

// Remotes groups the server-side resources a workspace talks to.
type Remotes struct {
	Customers   Remote[api.Customer]
	Projects    Remote[api.Project]
	Members     Remote[api.Member]
	Invitations Remote[api.Invitation]
	TimeEntries Remote[api.TimeEntry]
	Reports     Remote[api.Report]
	Timer       timer.Fetcher
}

// RemotesFor wires every resource to client.
func RemotesFor(client *api.Client) Remotes {
	return Remotes{
		Customers:   client.Customers(),
		Projects:    client.Projects(),
		Members:     client.Members(),
		Invitations: client.Invitations(),
		TimeEntries: client.TimeEntries(),
		Reports:     client.Reports(),
		Timer:       client,
	}
}

// Options configures a Workspace.
type Options struct {
	Organization uuid.UUID
	User         uuid.UUID
	// PageSize is requested for every list; zero uses the server default.
	PageSize     int
	Logger       *slog.Logger
	Now          func() time.Time
	TickInterval time.Duration
}

// Workspace holds the cached collections and the running timer of one user
// within one organization.
type Workspace struct {
	mu   sync.RWMutex
	org  uuid.UUID
	user uuid.UUID

	now    func() time.Time
	logger *slog.Logger

	Customers   *Set[api.Customer]
	Projects    *Set[api.Project]
	Members     *Set[api.Member]
	Invitations *Set[api.Invitation]
	TimeEntries *Set[api.TimeEntry]
	Reports     *Set[api.Report]
	Timer       *timer.Reconciler
}

// New builds a workspace over remotes. Nothing is fetched until LoadAll.
func New(remotes Remotes, opts Options) *Workspace {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	w := &Workspace{
		org:    opts.Organization,
		user:   opts.User,
		now:    now,
		logger: logger,
	}
	w.Customers = newSet("clients", remotes.Customers, w.Organization, opts.PageSize, logger, true)
	w.Projects = newSet("projects", remotes.Projects, w.Organization, opts.PageSize, logger, true)
	w.Members = newSet("members", remotes.Members, w.Organization, opts.PageSize, logger, false)
	w.Invitations = newSet("invitations", remotes.Invitations, w.Organization, opts.PageSize, logger, false)
	w.TimeEntries = newSet("time-entries", remotes.TimeEntries, w.Organization, opts.PageSize, logger, false)
	w.Reports = newSet("reports", remotes.Reports, w.Organization, opts.PageSize, logger, false)

	timerOpts := []timer.Option{
		timer.WithClock(now),
		timer.WithLogger(logger.With("component", "timer")),
		timer.WithOnChange(w.timerChanged),
	}
	if opts.TickInterval > 0 {
		timerOpts = append(timerOpts, timer.WithInterval(opts.TickInterval))
	}
	w.Timer = timer.New(remotes.Timer, timer.Scope{OrganizationID: opts.Organization, UserID: opts.User}, timerOpts...)
	return w
}

// Organization returns the current organization.
func (w *Workspace) Organization() uuid.UUID {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.org
}

// User returns the authenticated user.
func (w *Workspace) User() uuid.UUID {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.user
}

// LoadAll fetches the first page of every view and the running timer
// concurrently. One failing view does not cancel the others; each failure is
// recorded on its view and the first one is returned.
func (w *Workspace) LoadAll(ctx context.Context) error {
	var g errgroup.Group
	g.SetLimit(maxParallelLoads)
	for _, load := range w.loaders() {
		g.Go(func() error { return load(ctx) })
	}
	g.Go(func() error { return w.Timer.Refresh(ctx) })
	return g.Wait()
}

func (w *Workspace) loaders() []func(context.Context) error {
	var fns []func(context.Context) error
	add := func(views []state.View, load func(context.Context, state.View, int) error) {
		for _, view := range views {
			fns = append(fns, func(ctx context.Context) error { return load(ctx, view, 1) })
		}
	}
	add(w.Customers.Views(), w.Customers.Load)
	add(w.Projects.Views(), w.Projects.Load)
	add(w.Members.Views(), w.Members.Load)
	add(w.Invitations.Views(), w.Invitations.Load)
	add(w.TimeEntries.Views(), w.TimeEntries.Load)
	add(w.Reports.Views(), w.Reports.Load)
	return fns
}

// StartTimer creates a running time entry. The timer only moves to Running
// after the server accepted the entry.
func (w *Workspace) StartTimer(ctx context.Context, req api.TimeEntryRequest) (api.TimeEntry, error) {
	if w.Timer.State() == timer.Running {
		return api.TimeEntry{}, ErrTimerRunning
	}
	if req.Start.IsZero() {
		req.Start = w.now().UTC()
	}
	req.End = nil
	entry, err := w.TimeEntries.Create(ctx, req)
	if err != nil {
		return api.TimeEntry{}, fmt.Errorf("start timer: %w", err)
	}
	w.Timer.Start(entry)
	return entry, nil
}

// StopTimer ends the running time entry now.
func (w *Workspace) StopTimer(ctx context.Context) (api.TimeEntry, error) {
	current := w.Timer.Current()
	if current == nil {
		return api.TimeEntry{}, ErrNoTimer
	}
	end := w.now().UTC()
	req := api.TimeEntryRequest{
		Start:       current.Start,
		End:         &end,
		Description: current.Description,
		ProjectID:   current.ProjectID,
		TaskID:      current.TaskID,
		Tags:        current.Tags,
		Billable:    current.Billable,
	}
	entry, err := w.TimeEntries.Update(ctx, current.ID, req)
	if err != nil {
		return api.TimeEntry{}, fmt.Errorf("stop timer: %w", err)
	}
	if held := w.Timer.Current(); held != nil && held.ID == current.ID {
		w.Timer.Stop()
	}
	return entry, nil
}

// SwitchOrganization drops every cached page and the timer, adopts org and
// loads it from scratch.
func (w *Workspace) SwitchOrganization(ctx context.Context, org uuid.UUID) error {
	w.mu.Lock()
	w.org = org
	user := w.user
	w.mu.Unlock()

	w.Timer.Rescope(timer.Scope{OrganizationID: org, UserID: user})
	w.Customers.reset()
	w.Projects.reset()
	w.Members.reset()
	w.Invitations.reset()
	w.TimeEntries.reset()
	w.Reports.reset()

	w.logger.Info("switched organization", "organization", org)
	return w.LoadAll(ctx)
}

// Close stops the timer tick loop.
func (w *Workspace) Close() {
	w.Timer.Close()
}

// timerChanged reloads the time entries view after a remote start or stop so
// the list reflects the entry the timer refetched.
func (w *Workspace) timerChanged(ctx context.Context, _ *api.TimeEntry) {
	if !w.TimeEntries.store.Loaded(state.ViewAll) {
		return
	}
	if err := w.TimeEntries.Reload(ctx, state.ViewAll); err != nil {
		w.logger.Warn("reload time entries after timer change failed", "error", err)
	}
}

// UpdateMemberRole changes the role of a member.
func (w *Workspace) UpdateMemberRole(ctx context.Context, id uuid.UUID, role string) (api.Member, error) {
	return w.Members.Update(ctx, id, api.MemberRequest{Role: role})
}

// RemoveMember removes a member from the organization.
func (w *Workspace) RemoveMember(ctx context.Context, id uuid.UUID) error {
	return w.Members.Delete(ctx, id)
}

// Invite sends an invitation to email.
func (w *Workspace) Invite(ctx context.Context, email, role string) (api.Invitation, error) {
	return w.Invitations.Create(ctx, api.InvitationRequest{Email: email, Role: role})
}

// RevokeInvitation withdraws a pending invitation.
func (w *Workspace) RevokeInvitation(ctx context.Context, id uuid.UUID) error {
	return w.Invitations.Delete(ctx, id)
}

// SetReportVisibility shares or unshares a report. until is ignored for
// private reports.
func (w *Workspace) SetReportVisibility(ctx context.Context, report api.Report, public bool, until *time.Time) (api.Report, error) {
	req := api.ReportRequest{
		Name:        report.Name,
		Description: report.Description,
		IsPublic:    public,
	}
	if public {
		req.PublicUntil = until
	}
	return w.Reports.Update(ctx, report.ID, req)
}
