package api

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/five82/stint/internal/page"
)

// Entity is implemented by every record the dashboard lists.
type Entity interface {
	Key() uuid.UUID
}

// Key returns the identity of a listed record. It is used as the cache key
// extractor for every collection.
func Key[T Entity](v T) uuid.UUID {
	return v.Key()
}

// ListMeta mirrors the pagination block of every list response.
type ListMeta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

// Page is one page of a list endpoint.
type Page[T any] struct {
	Data []T      `json:"data"`
	Meta ListMeta `json:"meta"`
}

// PageMeta converts the response pagination into a validated page.Meta. A
// last_page that disagrees with total and per_page is rejected.
func (p Page[T]) PageMeta() (page.Meta, error) {
	meta, err := page.FromServer(p.Meta.Total, p.Meta.CurrentPage, p.Meta.PerPage)
	if err != nil {
		return page.Meta{}, err
	}
	if p.Meta.LastPage > 0 {
		reported := meta
		reported.TotalPages = p.Meta.LastPage
		if err := reported.Validate(); err != nil {
			return page.Meta{}, fmt.Errorf("inconsistent pagination: %w", err)
		}
	}
	return meta, nil
}

type item[T any] struct {
	Data T `json:"data"`
}

// Customer is a client of the organization, the party time is billed to.
type Customer struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	IsArchived bool      `json:"is_archived"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (c Customer) Key() uuid.UUID { return c.ID }

// Project groups time entries, optionally under a customer.
type Project struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Color         string     `json:"color"`
	ClientID      *uuid.UUID `json:"client_id"`
	IsArchived    bool       `json:"is_archived"`
	IsBillable    bool       `json:"is_billable"`
	BillableRate  *int       `json:"billable_rate"`
	EstimatedTime *int       `json:"estimated_time"`
	SpentTime     int        `json:"spent_time"`
}

func (p Project) Key() uuid.UUID { return p.ID }

// Member is a user's membership in the organization.
type Member struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	IsPlaceholder bool      `json:"is_placeholder"`
	BillableRate  *int      `json:"billable_rate"`
}

func (m Member) Key() uuid.UUID { return m.ID }

// Invitation is a pending invite to join the organization.
type Invitation struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

func (i Invitation) Key() uuid.UUID { return i.ID }

// TimeEntry is a tracked span of work. A nil End marks the running timer.
type TimeEntry struct {
	ID             uuid.UUID   `json:"id"`
	Start          time.Time   `json:"start"`
	End            *time.Time  `json:"end"`
	Duration       *int        `json:"duration"`
	Description    string      `json:"description"`
	ProjectID      *uuid.UUID  `json:"project_id"`
	TaskID         *uuid.UUID  `json:"task_id"`
	UserID         uuid.UUID   `json:"user_id"`
	OrganizationID uuid.UUID   `json:"organization_id"`
	Tags           []uuid.UUID `json:"tags"`
	Billable       bool        `json:"billable"`
}

func (e TimeEntry) Key() uuid.UUID { return e.ID }

// Running reports whether the entry has not been stopped.
func (e TimeEntry) Running() bool {
	return e.End == nil
}

// Elapsed returns the tracked duration, measured against now while running.
func (e TimeEntry) Elapsed(now time.Time) time.Duration {
	end := now
	if e.End != nil {
		end = *e.End
	}
	if end.Before(e.Start) {
		return 0
	}
	return end.Sub(e.Start)
}

// Report is a saved, optionally shared, report definition.
type Report struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	IsPublic      bool       `json:"is_public"`
	PublicUntil   *time.Time `json:"public_until"`
	ShareableLink *string    `json:"shareable_link"`
}

func (r Report) Key() uuid.UUID { return r.ID }

// User is the authenticated account.
type User struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// Organization is a tenant the user belongs to.
type Organization struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Membership links the user to an organization.
type Membership struct {
	ID           uuid.UUID    `json:"id"`
	Organization Organization `json:"organization"`
	Role         string       `json:"role"`
}

// EventType is the direction of a timer push notification.
type EventType string

const (
	EventStarted EventType = "started"
	EventStopped EventType = "stopped"
)

// Event is a push notification about a time entry starting or stopping.
type Event struct {
	Seq            uint64     `json:"seq"`
	Type           EventType  `json:"event"`
	OwnerID        uuid.UUID  `json:"owner_id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	Entry          *TimeEntry `json:"entry"`
}

// EventBatch aggregates events with the cursor for the next poll.
type EventBatch struct {
	Events []Event `json:"events"`
	Next   uint64  `json:"next"`
}

// CustomerRequest creates or updates a customer.
type CustomerRequest struct {
	Name string `json:"name"`
}

// ProjectRequest creates or updates a project.
type ProjectRequest struct {
	Name       string     `json:"name"`
	Color      string     `json:"color,omitempty"`
	ClientID   *uuid.UUID `json:"client_id,omitempty"`
	IsBillable bool       `json:"is_billable"`
}

// ArchiveRequest flips the archived flag of a customer or project.
type ArchiveRequest struct {
	IsArchived bool `json:"is_archived"`
}

// MemberRequest updates a membership.
type MemberRequest struct {
	Role string `json:"role"`
}

// InvitationRequest invites an email address.
type InvitationRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// TimeEntryRequest creates or updates a time entry. A nil End starts a timer.
type TimeEntryRequest struct {
	MemberID    *uuid.UUID  `json:"member_id,omitempty"`
	Start       time.Time   `json:"start"`
	End         *time.Time  `json:"end"`
	Description string      `json:"description"`
	ProjectID   *uuid.UUID  `json:"project_id,omitempty"`
	TaskID      *uuid.UUID  `json:"task_id,omitempty"`
	Tags        []uuid.UUID `json:"tags,omitempty"`
	Billable    bool        `json:"billable"`
}

// ReportRequest creates or updates a report.
type ReportRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	IsPublic    bool       `json:"is_public"`
	PublicUntil *time.Time `json:"public_until,omitempty"`
}
