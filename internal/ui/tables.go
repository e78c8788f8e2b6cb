package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/five82/stint/internal/api"
	"github.com/five82/stint/internal/page"
	"github.com/five82/stint/internal/state"
	"github.com/five82/stint/internal/timer"
	"github.com/five82/stint/internal/workspace"
)

type column struct {
	title string
	width int // zero takes the remaining width
	wide  bool
}

// listing is the rendering view of one cached view of a set.
type listing struct {
	ids          []uuid.UUID
	rows         [][]string
	badges       []string
	meta         page.Meta
	loaded       bool
	needsRefetch bool
	lastError    error
	failures     int
}

func (l listing) offline() bool { return l.failures >= 2 }

// table adapts one workspace set to the tab it is shown in.
type table struct {
	title      string
	columns    []column
	archivable bool

	list    func(view state.View, now time.Time) listing
	load    func(ctx context.Context, view state.View, n int) error
	remove  func(ctx context.Context, id uuid.UUID) error
	archive func(ctx context.Context, id uuid.UUID, archived bool) error
}

func newTable[T api.Entity](title string, set *workspace.Set[T], columns []column, row func(T, time.Time) ([]string, string)) table {
	t := table{
		title:      title,
		columns:    columns,
		archivable: set.Archivable(),
		load:       set.Load,
		remove:     set.Delete,
	}
	t.list = func(view state.View, now time.Time) listing {
		snap := set.Snapshot(view)
		l := listing{
			meta:         snap.Meta,
			loaded:       snap.Loaded,
			needsRefetch: snap.NeedsRefetch,
			lastError:    snap.LastError,
			failures:     snap.ConsecutiveFailures,
		}
		for _, item := range snap.Items {
			cells, badge := row(item, now)
			l.ids = append(l.ids, item.Key())
			l.rows = append(l.rows, cells)
			l.badges = append(l.badges, badge)
		}
		return l
	}
	if t.archivable {
		t.archive = func(ctx context.Context, id uuid.UUID, archived bool) error {
			var err error
			if archived {
				_, err = set.Archive(ctx, id)
			} else {
				_, err = set.Unarchive(ctx, id)
			}
			return err
		}
	}
	return t
}

// view returns the cached view a tab shows.
func (t table) view(archived bool) state.View {
	if !t.archivable {
		return state.ViewAll
	}
	if archived {
		return state.ViewArchived
	}
	return state.ViewActive
}

func buildTables(ws *workspace.Workspace) []table {
	return []table{
		newTable("Time entries", ws.TimeEntries, []column{
			{title: "Start", width: 17},
			{title: "Duration", width: 10},
			{title: "Description"},
			{title: "Project", width: 10, wide: true},
		}, timeEntryRow),
		newTable("Projects", ws.Projects, []column{
			{title: "Name"},
			{title: "Color", width: 9, wide: true},
			{title: "Spent", width: 10},
		}, projectRow),
		newTable("Clients", ws.Customers, []column{
			{title: "Name"},
			{title: "Created", width: 12, wide: true},
		}, customerRow),
		newTable("Members", ws.Members, []column{
			{title: "Name"},
			{title: "Email", width: 28, wide: true},
			{title: "Role", width: 10},
		}, memberRow),
		newTable("Invitations", ws.Invitations, []column{
			{title: "Email"},
			{title: "Role", width: 10},
		}, invitationRow),
		newTable("Reports", ws.Reports, []column{
			{title: "Name"},
			{title: "Description", width: 30, wide: true},
			{title: "Shared until", width: 12},
		}, reportRow),
	}
}

func timeEntryRow(e api.TimeEntry, now time.Time) ([]string, string) {
	badge := ""
	if e.Running() {
		badge = "running"
	} else if e.Billable {
		badge = "billable"
	}
	return []string{
		e.Start.Local().Format("2006-01-02 15:04"),
		timer.Format(e.Elapsed(now)),
		orDash(e.Description),
		shortID(e.ProjectID),
	}, badge
}

func projectRow(p api.Project, _ time.Time) ([]string, string) {
	badge := ""
	switch {
	case p.IsArchived:
		badge = "archived"
	case p.IsBillable:
		badge = "billable"
	}
	return []string{
		p.Name,
		orDash(p.Color),
		timer.Format(time.Duration(p.SpentTime) * time.Second),
	}, badge
}

func customerRow(c api.Customer, _ time.Time) ([]string, string) {
	badge := ""
	if c.IsArchived {
		badge = "archived"
	}
	created := "-"
	if !c.CreatedAt.IsZero() {
		created = c.CreatedAt.Local().Format("2006-01-02")
	}
	return []string{c.Name, created}, badge
}

func memberRow(m api.Member, _ time.Time) ([]string, string) {
	return []string{m.Name, orDash(m.Email), m.Role}, ""
}

func invitationRow(i api.Invitation, _ time.Time) ([]string, string) {
	return []string{i.Email, i.Role}, ""
}

func reportRow(r api.Report, _ time.Time) ([]string, string) {
	badge := ""
	until := "-"
	if r.IsPublic {
		badge = "public"
		if r.PublicUntil != nil {
			until = r.PublicUntil.Local().Format("2006-01-02")
		}
	}
	return []string{r.Name, orDash(r.Description), until}, badge
}

// pageLabel renders the pagination footer for a view.
func pageLabel(l listing) string {
	if !l.loaded {
		return "loading…"
	}
	label := fmt.Sprintf("page %d of %d · %d total", l.meta.Page, l.meta.TotalPages, l.meta.Total)
	if l.needsRefetch {
		label += " · refreshing"
	}
	return label
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func shortID(id *uuid.UUID) string {
	if id == nil {
		return "-"
	}
	return id.String()[:8]
}
