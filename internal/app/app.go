package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/five82/stint/internal/api"
	"github.com/five82/stint/internal/config"
	"github.com/five82/stint/internal/prefs"
	"github.com/five82/stint/internal/ui"
	"github.com/five82/stint/internal/workspace"
)

// Options configure the stint application.
type Options struct {
	ConfigPath   string
	PrefsPath    string    // empty uses default ~/.config/stint/prefs.toml
	Organization uuid.UUID // overrides prefs and config when set
	PollEvery    int       // seconds between retries of a failed event poll; zero uses default
}

// Run boots the stint TUI until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLog, err := newLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer closeLog()

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	client, err := api.NewClient(cfg.APIURL, cfg.APIToken)
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}

	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	me, err := client.Me(startCtx)
	if err != nil {
		return fmt.Errorf("fetch user: %w", err)
	}
	memberships, err := client.Memberships(startCtx)
	if err != nil {
		return fmt.Errorf("fetch memberships: %w", err)
	}
	orgs := organizations(memberships)
	org, err := chooseOrganization(orgs, opts.Organization, userPrefs.Organization(), cfg.OrganizationID)
	if err != nil {
		return err
	}
	logger.Info("starting", "user", me.ID, "organization", org, "page_size", cfg.PageSize)

	ws := workspace.New(workspace.RemotesFor(client), workspace.Options{
		Organization: org,
		User:         me.ID,
		PageSize:     cfg.PageSize,
		Logger:       logger,
	})
	defer ws.Close()

	retry := defaultRetryInterval
	if opts.PollEvery > 0 {
		retry = time.Duration(opts.PollEvery) * time.Second
	}
	poller := NewPoller(client, ws.Organization, cfg.PollWait, retry, logger.With("component", "events"))
	poller.Start(ctx)
	go ws.Timer.Run(ctx, poller.Events())

	// Do initial load to populate views before UI starts. Failures are
	// recorded per view and shown by the UI.
	if err := ws.LoadAll(ctx); err != nil {
		logger.Warn("initial load incomplete", "error", err)
	}

	return ui.Run(ui.Options{
		Context:       ctx,
		Workspace:     ws,
		User:          me,
		Organizations: orgs,
		Prefs:         userPrefs,
		PrefsPath:     opts.PrefsPath,
		Logger:        logger,
	})
}

func organizations(memberships []api.Membership) []api.Organization {
	orgs := make([]api.Organization, 0, len(memberships))
	for _, m := range memberships {
		orgs = append(orgs, m.Organization)
	}
	return orgs
}

// chooseOrganization picks the first candidate the user belongs to, falling
// back to the first membership.
func chooseOrganization(orgs []api.Organization, candidates ...uuid.UUID) (uuid.UUID, error) {
	if len(orgs) == 0 {
		return uuid.Nil, errors.New("user belongs to no organization")
	}
	for _, id := range candidates {
		if id == uuid.Nil {
			continue
		}
		for _, o := range orgs {
			if o.ID == id {
				return id, nil
			}
		}
	}
	return orgs[0].ID, nil
}

// newLogger writes JSON logs to path since the terminal belongs to the TUI.
func newLogger(path string, level slog.Level) (*slog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}))
	return logger, func() { _ = file.Close() }, nil
}
