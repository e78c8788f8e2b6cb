package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/five82/stint/internal/api"
)

const (
	defaultRetryInterval = 2 * time.Second
	maxBackoff           = 30 * time.Second
)

// EventSource is the push channel: a long-poll feed of timer events.
type EventSource interface {
	FetchEvents(ctx context.Context, org uuid.UUID, query api.EventQuery) (api.EventBatch, error)
}

// Poller long-polls the event feed of the current organization and forwards
// every event in order. The cursor restarts whenever the organization
// changes, and batches fetched for a previous organization are dropped.
type Poller struct {
	source EventSource
	org    func() uuid.UUID
	wait   time.Duration
	retry  time.Duration
	logger *slog.Logger
	out    chan api.Event
}

// NewPoller builds a poller for the organization returned by org. wait is
// the long-poll window; retry is the base delay between failed polls and,
// when wait is zero, between successful ones.
func NewPoller(source EventSource, org func() uuid.UUID, wait, retry time.Duration, logger *slog.Logger) *Poller {
	if retry <= 0 {
		retry = defaultRetryInterval
	}
	return &Poller{
		source: source,
		org:    org,
		wait:   wait,
		retry:  retry,
		logger: logger,
		out:    make(chan api.Event, 16),
	}
}

// Events returns the channel events are delivered on. It is closed when Run
// returns.
func (p *Poller) Events() <-chan api.Event {
	return p.out
}

// Start runs the poller in a background goroutine. It returns immediately.
func (p *Poller) Start(ctx context.Context) {
	go p.Run(ctx)
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	defer close(p.out)

	var (
		current  uuid.UUID
		cursor   uint64
		failures int
	)
	for ctx.Err() == nil {
		org := p.org()
		if org != current {
			current, cursor = org, 0
		}

		batch, err := p.source.FetchEvents(ctx, org, api.EventQuery{Since: cursor, Wait: p.wait})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			failures++
			delay := calculateBackoff(failures, p.retry)
			p.logger.Warn("event poll failed", "organization", org, "failures", failures, "retry_in", delay, "error", err)
			if !sleep(ctx, delay) {
				return
			}
			continue
		}
		if failures > 0 {
			p.logger.Info("event poll recovered", "organization", org, "failures", failures)
			failures = 0
		}

		if p.org() != org {
			p.logger.Debug("dropping events for previous organization", "organization", org, "events", len(batch.Events))
			continue
		}
		for _, ev := range batch.Events {
			select {
			case p.out <- ev:
			case <-ctx.Done():
				return
			}
		}
		if batch.Next > cursor {
			cursor = batch.Next
		}

		if p.wait <= 0 && !sleep(ctx, p.retry) {
			return
		}
	}
}

// calculateBackoff doubles base for every consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	delay := base
	for range failures {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
