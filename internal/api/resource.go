package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
)

// ListQuery configures a list request.
type ListQuery struct {
	Page     int
	PerPage  int // zero leaves the page size to the server
	Archived *bool
}

// Resource is one organization-scoped CRUD endpoint such as clients or
// projects.
type Resource[T any] struct {
	client *Client
	name   string
}

// NewResource binds the endpoint name under /organizations/{org}/ to c.
func NewResource[T any](c *Client, name string) Resource[T] {
	return Resource[T]{client: c, name: name}
}

// Name returns the endpoint segment.
func (r Resource[T]) Name() string {
	return r.name
}

// List fetches one page of records.
func (r Resource[T]) List(ctx context.Context, org uuid.UUID, query ListQuery) (Page[T], error) {
	values := url.Values{}
	if query.Page > 0 {
		values.Set("page", strconv.Itoa(query.Page))
	}
	if query.PerPage > 0 {
		values.Set("per_page", strconv.Itoa(query.PerPage))
	}
	if query.Archived != nil {
		values.Set("archived", strconv.FormatBool(*query.Archived))
	}
	rel := &url.URL{Path: orgPath(org, r.name), RawQuery: values.Encode()}
	var payload Page[T]
	if err := r.client.do(ctx, http.MethodGet, rel, nil, &payload); err != nil {
		return Page[T]{}, fmt.Errorf("list %s: %w", r.name, err)
	}
	return payload, nil
}

// Create posts body and returns the created record.
func (r Resource[T]) Create(ctx context.Context, org uuid.UUID, body any) (T, error) {
	var payload item[T]
	rel := &url.URL{Path: orgPath(org, r.name)}
	if err := r.client.do(ctx, http.MethodPost, rel, body, &payload); err != nil {
		return payload.Data, fmt.Errorf("create %s: %w", r.name, err)
	}
	return payload.Data, nil
}

// Update puts body to the record and returns the updated record.
func (r Resource[T]) Update(ctx context.Context, org, id uuid.UUID, body any) (T, error) {
	var payload item[T]
	rel := &url.URL{Path: orgPath(org, r.name, id.String())}
	if err := r.client.do(ctx, http.MethodPut, rel, body, &payload); err != nil {
		return payload.Data, fmt.Errorf("update %s: %w", r.name, err)
	}
	return payload.Data, nil
}

// Delete removes the record.
func (r Resource[T]) Delete(ctx context.Context, org, id uuid.UUID) error {
	rel := &url.URL{Path: orgPath(org, r.name, id.String())}
	if err := r.client.do(ctx, http.MethodDelete, rel, nil, nil); err != nil {
		return fmt.Errorf("delete %s: %w", r.name, err)
	}
	return nil
}
