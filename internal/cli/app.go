package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/marcin-skalski/actions-status/internal/auth"
	"github.com/marcin-skalski/actions-status/internal/browser"
	"github.com/marcin-skalski/actions-status/internal/config"
	"github.com/marcin-skalski/actions-status/internal/daemon"
	"github.com/marcin-skalski/actions-status/internal/github"
	"github.com/marcin-skalski/actions-status/internal/logging"
	"github.com/marcin-skalski/actions-status/internal/notify"
	"github.com/marcin-skalski/actions-status/internal/repo"
	"github.com/marcin-skalski/actions-status/internal/status"
)

const feedSize = 32

// app is everything a command needs, built from the config file and the
// global flags.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	client  *github.Client
	session *auth.Session
	browser *browser.Client
	feed    *notify.Feed
	daemon  *daemon.Daemon
}

type appOptions struct {
	// tui keeps logs off stderr while the board owns the screen.
	tui bool
	// quiet caps logging at warnings for commands whose stdout is the
	// product.
	quiet bool
	// onTick observes the overall status after each poll.
	onTick func(status.Status)
}

func configPath() (string, error) {
	if globalOpts.ConfigPath != "" {
		return globalOpts.ConfigPath, nil
	}
	return config.DefaultPath()
}

func tokenPath(cfg *config.Config) (string, error) {
	if globalOpts.TokenFile != "" {
		return globalOpts.TokenFile, nil
	}
	if cfg.TokenFile != "" {
		return cfg.TokenFile, nil
	}
	return auth.DefaultTokenPath()
}

func newApp(cmd *cobra.Command, opts appOptions) (*app, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	cfg, created, err := config.LoadOrCreate(path)
	if err != nil {
		return nil, err
	}
	if created {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote default config to %s\n", path)
	}
	if globalOpts.Interval != 0 {
		if err := cfg.SetInterval(globalOpts.Interval); err != nil {
			return nil, err
		}
	}

	verbosity := cfg.Level()
	if cmd.Flags().Changed("verbose") {
		verbosity = globalOpts.Verbose
	}
	level := logging.LevelFromVerbosity(verbosity)
	if opts.quiet && level > slog.LevelWarn {
		level = slog.LevelWarn
	}
	logger, err := logging.SetupLogger(cfg.LogPath(), level, opts.tui)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	client := github.NewClient(github.Config{
		APIURL: cfg.APIURL,
		WebURL: cfg.WebURL,
		Logger: logger,
	})

	tokens, err := tokenPath(cfg)
	if err != nil {
		return nil, err
	}

	feed := notify.NewFeed(feedSize)
	notifier := notify.Multi{
		notify.Log{Logger: logger},
		&notify.Bell{W: os.Stderr},
		feed,
	}

	session := auth.NewSession(auth.Config{
		ClientID: auth.ClientID(cfg.OAuthClientID, logger),
		API:      client,
		Store:    auth.FileStore{Path: tokens},
		Logger:   logger,
		Notifier: notifier,
	})

	opener := browser.New(logger)

	repos := make([]*repo.Repo, 0, len(cfg.Repos))
	for _, rc := range cfg.Repos {
		repos = append(repos, repo.New(rc, client, session, logger))
	}

	d := daemon.New(daemon.Config{
		Repos:     repos,
		Interval:  cfg.PollInterval,
		Logger:    logger,
		Notifier:  notifier,
		Session:   session,
		RateLimit: client,
		Browser:   opener,
		Feed:      feed,
		OnTick:    opts.onTick,
	})

	logger.Debug("configuration loaded",
		"config", path,
		"repos", len(cfg.Repos),
		"interval", cfg.PollInterval,
		"auth", session.State().String())

	return &app{
		cfg:     cfg,
		logger:  logger,
		client:  client,
		session: session,
		browser: opener,
		feed:    feed,
		daemon:  d,
	}, nil
}

func (a *app) Close() {
	_ = logging.CloseFile()
}
