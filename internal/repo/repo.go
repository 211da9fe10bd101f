// Package repo tracks one watched repository: its latest status, the run
// that status is keyed on, and the cache validator for the next poll.
package repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/marcin-skalski/actions-status/internal/config"
	"github.com/marcin-skalski/actions-status/internal/github"
	"github.com/marcin-skalski/actions-status/internal/status"
)

var (
	// ErrNoRuns means GitHub reported no runs at all for the filters.
	ErrNoRuns = errors.New("repo: no workflow runs")
	// ErrNothingToRerun means the repository is not in the failed state.
	ErrNothingToRerun = errors.New("repo: no workflow failure to re-run")
	// ErrNoLastRun means no completed run has been seen yet.
	ErrNoLastRun = errors.New("repo: no run seen yet")
)

// API is the part of the GitHub client a repository needs.
type API interface {
	ListWorkflowRuns(ctx context.Context, q github.RunsQuery, token, etag string) (*github.RunsPage, error)
	RerunFailedJobs(ctx context.Context, owner, repo string, runID int64, token string) error
	RunsURL(q github.RunsQuery) string
	WebURL() string
}

// Tokens supplies the credential for each request and is told when
// GitHub rejects it.
type Tokens interface {
	Token() string
	Expire()
}

type Repo struct {
	cfg    config.RepoConfig
	api    API
	tokens Tokens
	logger *slog.Logger

	mu           sync.Mutex
	status       status.Status
	lastRun      *github.WorkflowRun
	etag         string
	workflowName string
	lastErr      error
	checkedAt    time.Time
}

// New starts the repository as Disconnected: nothing is known until the
// first check.
func New(cfg config.RepoConfig, api API, tokens Tokens, logger *slog.Logger) *Repo {
	return &Repo{
		cfg:    cfg,
		api:    api,
		tokens: tokens,
		logger: logger.With("repo", cfg.FullName()),
		status: status.Disconnected,
	}
}

func (r *Repo) Config() config.RepoConfig { return r.cfg }

func (r *Repo) FullName() string { return r.cfg.FullName() }

func (r *Repo) query() github.RunsQuery {
	return github.RunsQuery{
		Owner:    r.cfg.Owner,
		Repo:     r.cfg.Name,
		Workflow: r.cfg.Workflow,
		Actor:    r.cfg.Actor,
		Branch:   r.cfg.Branch,
		Event:    r.cfg.Event,
	}
}

// Check polls GitHub once and updates the status. Every failure is
// folded into the status; the returned error only says what happened.
// A 304 is not an error.
func (r *Repo) Check(ctx context.Context) error {
	r.mu.Lock()
	etag, previous := r.etag, r.status
	r.mu.Unlock()

	page, err := r.api.ListWorkflowRuns(ctx, r.query(), r.tokens.Token(), etag)
	if ctx.Err() != nil {
		// Shutting down; a cancelled request says nothing about GitHub.
		return ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkedAt = time.Now()

	switch {
	case errors.Is(err, github.ErrNotModified):
		r.logger.Debug("no updates detected")
		r.lastErr = nil
		return nil

	case errors.Is(err, github.ErrUnauthorized):
		r.logger.Warn("unauthorized, expiring token", "err", err)
		r.tokens.Expire()
		r.disconnectLocked(err)

	case err != nil:
		r.logger.Error("check failed", "url", r.runsURL(), "err", err)
		r.disconnectLocked(err)

	case page.TotalCount == 0:
		r.logger.Warn("no repo runs detected", "url", r.runsURL())
		r.etag = page.ETag
		r.status = status.NoRuns
		r.lastErr = ErrNoRuns
		err = ErrNoRuns

	default:
		r.logger.Debug("updates detected", "runs", len(page.Runs))
		r.etag = page.ETag
		r.lastErr = nil
		res := status.Resolve(status.Relevant(page.Runs), r.status)
		if res.LastRun != nil {
			r.lastRun = res.LastRun
			if r.cfg.Workflow != "" {
				r.workflowName = res.LastRun.Name
			}
		}
		r.status = res.Status
	}

	if r.status != previous {
		r.logger.Info("repo status changed", "from", previous.String(), "to", r.status.String())
	}
	return err
}

func (r *Repo) disconnectLocked(err error) {
	r.status = status.Disconnected
	r.etag = ""
	r.lastErr = err
}

func (r *Repo) runsURL() string { return r.api.RunsURL(r.query()) }

func (r *Repo) Status() status.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// LastRun returns the completed run the status is keyed on, or nil.
func (r *Repo) LastRun() *github.WorkflowRun {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRun
}

// ETag is the cache validator the next check will send.
func (r *Repo) ETag() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.etag
}

// View is a consistent copy of the repository's state.
type View struct {
	FullName     string
	Config       config.RepoConfig
	Status       status.Status
	LastRun      *github.WorkflowRun
	WorkflowName string
	Err          error
	CheckedAt    time.Time
}

func (r *Repo) View() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return View{
		FullName:     r.cfg.FullName(),
		Config:       r.cfg,
		Status:       r.status,
		LastRun:      r.lastRun,
		WorkflowName: r.workflowName,
		Err:          r.lastErr,
		CheckedAt:    r.checkedAt,
	}
}

// Title renders the one-line summary, for example
// "🔴 brunns/brunns-matchers 🧹CI 🌳master - 5 minutes ago".
func (r *Repo) Title(now time.Time) string {
	return r.View().Title(now)
}

func (v View) Title(now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", v.Status.Glyph(), v.FullName)
	if v.Config.Workflow != "" {
		name := v.WorkflowName
		if name == "" {
			name = v.Config.Workflow
		}
		b.WriteString(" 🧹" + name)
	}
	if v.Config.Branch != "" {
		b.WriteString(" 🌳" + v.Config.Branch)
	}
	if v.Config.Event != "" {
		b.WriteString(" 🎉" + v.Config.Event)
	}
	if v.Config.Actor != "" {
		b.WriteString(" 🎭" + v.Config.Actor)
	}
	b.WriteString(" - ")
	if v.LastRun != nil {
		b.WriteString(humanize.RelTime(v.LastRun.UpdatedAt, now, "ago", "from now"))
	} else {
		b.WriteString("never")
	}
	return b.String()
}
