package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	flag "github.com/spf13/pflag"

	"github.com/five82/stint/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("stint", flag.ContinueOnError)
	configPath := fs.StringP("config", "c", "", "override config path (optional)")
	prefsPath := fs.String("prefs", "", "override preferences path (optional)")
	orgID := fs.String("org", "", "organization id to open (optional)")
	pollSeconds := fs.Int("poll", 0, "retry interval in seconds after a failed event poll (optional, defaults to 2s)")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "stint: %v\n", err)
		return 2
	}

	opts := app.Options{ConfigPath: *configPath, PrefsPath: *prefsPath}
	if *orgID != "" {
		id, err := uuid.Parse(*orgID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "stint: invalid --org: %v\n", err)
			return 2
		}
		opts.Organization = id
	}
	if poll := *pollSeconds; poll > 0 {
		opts.PollEvery = poll
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "stint: %v\n", err)
		return 1
	}
	return 0
}
