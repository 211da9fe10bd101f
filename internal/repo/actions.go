package repo

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/marcin-skalski/actions-status/internal/github"
	"github.com/marcin-skalski/actions-status/internal/status"
)

// Action is something the user can do with a repository row.
type Action int

const (
	ActionOpenRun Action = iota
	ActionOpenActor
	ActionOpenCommit
	ActionOpenRepo
)

func (a Action) String() string {
	switch a {
	case ActionOpenRun:
		return "run"
	case ActionOpenActor:
		return "actor"
	case ActionOpenCommit:
		return "commit"
	case ActionOpenRepo:
		return "repo"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// ParseAction accepts the names printed by Action.String.
func ParseAction(s string) (Action, error) {
	for a := ActionOpenRun; a <= ActionOpenRepo; a++ {
		if a.String() == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown target %q (run|actor|commit|repo)", s)
}

// URL is the repository's page on the web host.
func (r *Repo) URL() string {
	return r.api.WebURL() + "/" + url.PathEscape(r.cfg.Owner) + "/" + url.PathEscape(r.cfg.Name)
}

// Target resolves action to the URL to open.
func (r *Repo) Target(action Action) (string, error) {
	if action == ActionOpenRepo {
		return r.URL(), nil
	}

	run := r.LastRun()
	if run == nil {
		return "", ErrNoLastRun
	}

	switch action {
	case ActionOpenRun:
		if run.HTMLURL == "" {
			return "", fmt.Errorf("run %d has no html_url", run.ID)
		}
		return run.HTMLURL, nil
	case ActionOpenActor:
		if run.Actor == nil || run.Actor.HTMLURL == "" {
			return "", fmt.Errorf("run %d has no actor", run.ID)
		}
		return run.Actor.HTMLURL, nil
	case ActionOpenCommit:
		sha := run.CommitSHA()
		if sha == "" {
			return "", fmt.Errorf("run %d has no head commit", run.ID)
		}
		return r.URL() + "/commit/" + sha, nil
	}
	return "", fmt.Errorf("unsupported action %v", action)
}

// RerunFailedJobs asks GitHub to re-run the failed jobs of the last run.
// Only a repository in the failed state has anything to re-run.
func (r *Repo) RerunFailedJobs(ctx context.Context) error {
	r.mu.Lock()
	current, run := r.status, r.lastRun
	r.mu.Unlock()

	if current != status.Failed {
		r.logger.Info("no workflow failure to re-run", "status", current.String())
		return ErrNothingToRerun
	}
	if run == nil {
		return ErrNoLastRun
	}

	r.logger.Info("rerunning failed jobs", "run", run.ID)
	err := r.api.RerunFailedJobs(ctx, r.cfg.Owner, r.cfg.Name, run.ID, r.tokens.Token())
	if errors.Is(err, github.ErrUnauthorized) {
		r.tokens.Expire()
	}
	if err != nil {
		return fmt.Errorf("rerun %s run %d: %w", r.FullName(), run.ID, err)
	}
	return nil
}
