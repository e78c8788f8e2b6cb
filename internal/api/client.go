package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client talks to the time-tracking HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	token     string
	userAgent string
}

const (
	defaultUserAgent = "stint/0.1"
	requestTimeout   = 10 * time.Second
	maxErrorBody     = 4 << 10
)

// NewClient builds a Client for the API rooted at baseURL, authenticating
// with the given bearer token.
func NewClient(baseURL, token string) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{},
		token:     strings.TrimSpace(token),
		userAgent: defaultUserAgent,
	}, nil
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (User, error) {
	var payload item[User]
	if err := c.do(ctx, http.MethodGet, &url.URL{Path: "users/me"}, nil, &payload); err != nil {
		return User{}, err
	}
	return payload.Data, nil
}

// Memberships lists the organizations the user belongs to.
func (c *Client) Memberships(ctx context.Context) ([]Membership, error) {
	var payload struct {
		Data []Membership `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, &url.URL{Path: "users/me/memberships"}, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

// ActiveTimeEntry returns the user's running time entry, or nil when no timer
// is running.
func (c *Client) ActiveTimeEntry(ctx context.Context) (*TimeEntry, error) {
	var payload item[TimeEntry]
	err := c.do(ctx, http.MethodGet, &url.URL{Path: "users/me/time-entries/active"}, nil, &payload)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if payload.Data.ID == uuid.Nil || !payload.Data.Running() {
		return nil, nil
	}
	return &payload.Data, nil
}

// EventQuery configures long-poll requests against the event feed.
type EventQuery struct {
	Since uint64
	Wait  time.Duration
}

// FetchEvents long-polls the organization's event feed for timer
// notifications newer than query.Since.
func (c *Client) FetchEvents(ctx context.Context, org uuid.UUID, query EventQuery) (EventBatch, error) {
	values := url.Values{}
	if query.Since > 0 {
		values.Set("since", strconv.FormatUint(query.Since, 10))
	}
	if secs := int(query.Wait / time.Second); secs > 0 {
		values.Set("wait", strconv.Itoa(secs))
	}
	rel := &url.URL{Path: orgPath(org, "events"), RawQuery: values.Encode()}

	ctx, cancel := context.WithTimeout(ctx, query.Wait+requestTimeout)
	defer cancel()

	var payload EventBatch
	if err := c.do(ctx, http.MethodGet, rel, nil, &payload); err != nil {
		return EventBatch{}, err
	}
	return payload, nil
}

// Customers returns the customers resource.
func (c *Client) Customers() Resource[Customer] { return NewResource[Customer](c, "clients") }

// Projects returns the projects resource.
func (c *Client) Projects() Resource[Project] { return NewResource[Project](c, "projects") }

// Members returns the members resource.
func (c *Client) Members() Resource[Member] { return NewResource[Member](c, "members") }

// Invitations returns the invitations resource.
func (c *Client) Invitations() Resource[Invitation] {
	return NewResource[Invitation](c, "invitations")
}

// TimeEntries returns the time entries resource.
func (c *Client) TimeEntries() Resource[TimeEntry] {
	return NewResource[TimeEntry](c, "time-entries")
}

// Reports returns the reports resource.
func (c *Client) Reports() Resource[Report] { return NewResource[Report](c, "reports") }

func (c *Client) do(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, requestTimeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return newStatusError(method, rel, resp)
	}
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func newStatusError(method string, rel *url.URL, resp *http.Response) error {
	se := &StatusError{Method: method, Path: rel.Path, Status: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		se.Message = strings.TrimSpace(payload.Message)
	}
	return se
}

func orgPath(org uuid.UUID, parts ...string) string {
	return "organizations/" + org.String() + "/" + strings.Join(parts, "/")
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("api url is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("api url %q has no host", raw)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	if !strings.HasSuffix(u.Path, "/api/v1") {
		u.Path += "/api/v1"
	}
	u.Path += "/"
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
