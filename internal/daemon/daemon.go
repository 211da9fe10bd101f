// Package daemon drives the poll cycle: every interval it checks all
// repositories concurrently, folds their statuses into one, and raises
// alerts on the transitions that deserve them.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marcin-skalski/actions-status/internal/auth"
	"github.com/marcin-skalski/actions-status/internal/browser"
	"github.com/marcin-skalski/actions-status/internal/clock"
	"github.com/marcin-skalski/actions-status/internal/github"
	"github.com/marcin-skalski/actions-status/internal/notify"
	"github.com/marcin-skalski/actions-status/internal/repo"
	"github.com/marcin-skalski/actions-status/internal/status"
	"github.com/marcin-skalski/actions-status/internal/tui"
)

// Session is the view of the auth session the daemon needs.
type Session interface {
	Reload()
	State() auth.State
}

// RateLimiter reports the last rate limit seen by the API client.
type RateLimiter interface {
	RateLimit() (github.RateLimit, bool)
}

type Config struct {
	Repos    []*repo.Repo
	Interval time.Duration
	Clock    clock.Clock
	Logger   *slog.Logger
	Notifier notify.Notifier

	// Optional.
	Session   Session
	RateLimit RateLimiter
	Browser   browser.Opener
	// Feed is read for the board's notice line. Alerts reach it only when
	// it is also part of Notifier.
	Feed *notify.Feed
	// OnTick is called after every completed tick with the overall
	// status.
	OnTick func(status.Status)
}

type Daemon struct {
	repos    []*repo.Repo
	byName   map[string]*repo.Repo
	interval time.Duration
	clock    clock.Clock
	logger   *slog.Logger
	notifier notify.Notifier
	session  Session
	limiter  RateLimiter
	browser  browser.Opener
	feed     *notify.Feed
	onTick   func(status.Status)

	refresh chan struct{}

	mu       sync.Mutex
	overall  status.Status
	lastTick time.Time
}

func New(cfg Config) *Daemon {
	d := &Daemon{
		repos:    cfg.Repos,
		byName:   make(map[string]*repo.Repo, len(cfg.Repos)),
		interval: cfg.Interval,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
		notifier: cfg.Notifier,
		session:  cfg.Session,
		limiter:  cfg.RateLimit,
		browser:  cfg.Browser,
		feed:     cfg.Feed,
		onTick:   cfg.OnTick,
		refresh:  make(chan struct{}, 1),
		overall:  status.Disconnected,
	}
	if d.clock == nil {
		d.clock = clock.Real()
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.notifier == nil {
		d.notifier = notify.Log{Logger: d.logger}
	}
	for _, r := range cfg.Repos {
		d.byName[strings.ToLower(r.FullName())] = r
	}
	return d
}

// Run ticks once immediately, then every interval until ctx is done.
// Ticks run on this goroutine, so they never overlap.
func (d *Daemon) Run(ctx context.Context) error {
	d.logger.Info("daemon started", "poll_interval", d.interval, "repos", len(d.repos))

	// Initial poll
	d.Tick(ctx)

	ticker := d.clock.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("daemon stopped")
			return nil
		case <-ticker.C:
			d.Tick(ctx)
		case <-d.refresh:
			d.logger.Debug("manual refresh")
			d.Tick(ctx)
		}
	}
}

// Refresh asks Run for an extra tick. Requests made while one is already
// pending are merged.
func (d *Daemon) Refresh() {
	select {
	case d.refresh <- struct{}{}:
	default:
	}
}

// Tick checks every repository, waits for all of them, and returns the
// overall status.
func (d *Daemon) Tick(ctx context.Context) status.Status {
	started := d.clock.Now()
	previous := d.worst()

	if d.session != nil {
		d.session.Reload()
	}

	var g errgroup.Group
	for _, r := range d.repos {
		r := r
		g.Go(func() error {
			// Per-repo failures are already folded into its status.
			_ = r.Check(ctx)
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		return d.Overall()
	}

	overall := d.worst()
	d.mu.Lock()
	d.overall = overall
	d.lastTick = d.clock.Now()
	d.mu.Unlock()

	d.logger.Log(ctx, logLevel(overall), "tick complete",
		"overall", overall.String(),
		"previous", previous.String(),
		"elapsed", d.clock.Now().Sub(started))

	d.alert(previous, overall)

	if d.onTick != nil {
		d.onTick(overall)
	}
	return overall
}

func logLevel(s status.Status) slog.Level {
	if s.Severe() {
		return slog.LevelInfo
	}
	return slog.LevelDebug
}

func (d *Daemon) worst() status.Status {
	statuses := make([]status.Status, len(d.repos))
	for i, r := range d.repos {
		statuses[i] = r.Status()
	}
	return status.Max(statuses...)
}

func (d *Daemon) alert(previous, overall status.Status) {
	var n notify.Notification
	switch status.AlertFor(previous, overall) {
	case status.AlertNetwork:
		n = notify.Notification{
			Kind:    notify.KindNetwork,
			Title:   "Network error",
			Message: "Unexpected error calling GitHub API: " + d.namesWith(status.Disconnected),
		}
	case status.AlertFailure:
		n = notify.Notification{
			Kind:    notify.KindFailure,
			Title:   "Failure",
			Message: "GitHub Actions workflow run failed: " + d.namesWith(overall),
		}
	default:
		return
	}
	n.Time = d.clock.Now()
	d.notifier.Notify(n)
}

func (d *Daemon) namesWith(s status.Status) string {
	var names []string
	for _, r := range d.repos {
		if r.Status() == s {
			names = append(names, r.FullName())
		}
	}
	return strings.Join(names, ", ")
}

// Overall is the status computed by the last completed tick.
func (d *Daemon) Overall() status.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.overall
}

func (d *Daemon) Repos() []*repo.Repo { return d.repos }

// Find looks a repository up by "owner/repo", ignoring case.
func (d *Daemon) Find(fullName string) (*repo.Repo, error) {
	r, ok := d.byName[strings.ToLower(fullName)]
	if !ok {
		return nil, fmt.Errorf("%s is not a watched repository", fullName)
	}
	return r, nil
}

// Open resolves action for the named repository and opens it.
func (d *Daemon) Open(ctx context.Context, fullName string, action repo.Action) (string, error) {
	r, err := d.Find(fullName)
	if err != nil {
		return "", err
	}
	target, err := r.Target(action)
	if err != nil {
		return "", err
	}
	if d.browser == nil {
		return target, nil
	}
	if err := d.browser.Open(ctx, target); err != nil {
		return target, err
	}
	return target, nil
}

// Rerun re-runs the failed jobs of the named repository's last run and
// schedules a refresh so the board picks up the new run.
func (d *Daemon) Rerun(ctx context.Context, fullName string) error {
	r, err := d.Find(fullName)
	if err != nil {
		return err
	}
	if err := r.RerunFailedJobs(ctx); err != nil {
		return err
	}
	d.Refresh()
	return nil
}

func (d *Daemon) GetSnapshot() tui.Snapshot {
	now := d.clock.Now()

	d.mu.Lock()
	overall, lastTick := d.overall, d.lastTick
	d.mu.Unlock()

	repos := make([]tui.RepoState, 0, len(d.repos))
	for _, r := range d.repos {
		v := r.View()
		state := tui.RepoState{
			FullName:   v.FullName,
			Status:     v.Status,
			Title:      v.Title(now),
			Rerunnable: v.Status == status.Failed && v.LastRun != nil,
		}
		if v.Err != nil {
			state.Err = v.Err.Error()
		}
		repos = append(repos, state)
	}

	snap := tui.Snapshot{
		Timestamp: now,
		LastTick:  lastTick,
		Overall:   overall,
		Repos:     repos,
	}
	if d.session != nil {
		snap.Auth = d.session.State().Label()
	}
	if d.limiter != nil {
		if rl, ok := d.limiter.RateLimit(); ok {
			snap.RateLimit = tui.RateLimitState{
				Known:     true,
				Limit:     rl.Limit,
				Remaining: rl.Remaining,
				Reset:     rl.Reset,
				Low:       rl.Low(),
			}
		}
	}
	if d.feed != nil {
		if n, ok := d.feed.Latest(); ok {
			snap.Notice = n.Time.Local().Format(time.TimeOnly) + " " + n.Title + ": " + n.Message
		}
	}
	return snap
}
