package repo

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/marcin-skalski/actions-status/internal/config"
	"github.com/marcin-skalski/actions-status/internal/github"
	"github.com/marcin-skalski/actions-status/internal/status"
)

type fakeTokens struct {
	mu      sync.Mutex
	token   string
	expired atomic.Int32
}

func (f *fakeTokens) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeTokens) Expire() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.token != "" {
		f.expired.Add(1)
	}
	f.token = ""
}

type reply struct {
	status int
	etag   string
	body   string
}

// runsServer plays replies in order and records the If-None-Match of
// every request.
type runsServer struct {
	*httptest.Server
	mu          sync.Mutex
	replies     []reply
	ifNoneMatch []string
	paths       []string
}

func newRunsServer(t *testing.T, replies ...reply) *runsServer {
	t.Helper()
	s := &runsServer{replies: replies}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.ifNoneMatch = append(s.ifNoneMatch, r.Header.Get("If-None-Match"))
		s.paths = append(s.paths, r.Method+" "+r.URL.Path)
		next := s.replies[0]
		if len(s.replies) > 1 {
			s.replies = s.replies[1:]
		}
		s.mu.Unlock()

		if next.etag != "" {
			w.Header().Set("ETag", next.etag)
		}
		w.WriteHeader(next.status)
		io.WriteString(w, next.body)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *runsServer) requestsIfNoneMatch() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ifNoneMatch...)
}

func newTestRepo(t *testing.T, srv *runsServer, cfg config.RepoConfig, tokens *fakeTokens) *Repo {
	t.Helper()
	client := github.NewClient(github.Config{
		APIURL:     srv.URL,
		WebURL:     "https://github.example",
		HTTPClient: srv.Client(),
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		RetryUnit:  time.Millisecond,
		RetryMax:   2 * time.Millisecond,
	})
	return New(cfg, client, tokens, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func runsJSON(runs ...string) string {
	return `{"total_count": ` + strconv.Itoa(len(runs)) + `, "workflow_runs": [` + strings.Join(runs, ",") + `]}`
}

const (
	queuedRun     = `{"id": 30, "name": "CI", "status": "queued", "conclusion": null}`
	inProgressRun = `{"id": 20, "name": "CI", "status": "in_progress", "conclusion": null}`
	successRun    = `{"id": 10, "name": "CI", "status": "completed", "conclusion": "success",
		"updated_at": "2026-10-18T11:55:00Z", "html_url": "https://github.example/o/r/actions/runs/10",
		"actor": {"login": "octocat", "html_url": "https://github.example/octocat"},
		"head_commit": {"id": "abc123"}}`
	failureRun = `{"id": 11, "name": "CI", "status": "completed", "conclusion": "failure",
		"updated_at": "2026-10-18T11:00:00Z", "html_url": "https://github.example/o/r/actions/runs/11"}`
)

var repoCfg = config.RepoConfig{Owner: "o", Name: "r"}

func TestNewRepoStartsDisconnected(t *testing.T) {
	srv := newRunsServer(t, reply{status: 200, body: runsJSON()})
	r := newTestRepo(t, srv, repoCfg, &fakeTokens{})
	if r.Status() != status.Disconnected || r.LastRun() != nil || r.ETag() != "" {
		t.Errorf("initial state: %v %v %q", r.Status(), r.LastRun(), r.ETag())
	}
}

func TestCheckResolvesRuns(t *testing.T) {
	srv := newRunsServer(t, reply{status: 200, etag: `"e1"`, body: runsJSON(queuedRun, inProgressRun, successRun, failureRun)})
	cfg := repoCfg
	cfg.Workflow = "ci.yml"
	r := newTestRepo(t, srv, cfg, &fakeTokens{token: "tok"})

	if err := r.Check(context.Background()); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if r.Status() != status.RunningFromOK {
		t.Errorf("Status = %v, want RunningFromOK", r.Status())
	}
	if r.LastRun() == nil || r.LastRun().ID != 10 {
		t.Errorf("LastRun = %+v, want id 10", r.LastRun())
	}
	if r.ETag() != `"e1"` {
		t.Errorf("ETag = %q", r.ETag())
	}
	if v := r.View(); v.WorkflowName != "CI" {
		t.Errorf("WorkflowName = %q", v.WorkflowName)
	}
}

func TestCheckNotModifiedKeepsState(t *testing.T) {
	srv := newRunsServer(t,
		reply{status: 200, etag: `"e1"`, body: runsJSON(failureRun)},
		reply{status: 304},
	)
	r := newTestRepo(t, srv, repoCfg, &fakeTokens{token: "tok"})

	if err := r.Check(context.Background()); err != nil {
		t.Fatalf("first Check: %v", err)
	}
	before := r.LastRun()

	if err := r.Check(context.Background()); err != nil {
		t.Fatalf("second Check: %v", err)
	}
	if r.Status() != status.Failed || r.LastRun() != before || r.ETag() != `"e1"` {
		t.Errorf("after 304: status=%v lastRun=%p etag=%q", r.Status(), r.LastRun(), r.ETag())
	}

	sent := srv.requestsIfNoneMatch()
	if len(sent) != 2 || sent[0] != "" || sent[1] != `"e1"` {
		t.Errorf("If-None-Match sent = %q", sent)
	}
}

func TestCheckUnauthorized(t *testing.T) {
	for _, prior := range []string{successRun, failureRun} {
		srv := newRunsServer(t,
			reply{status: 200, etag: `"e1"`, body: runsJSON(prior)},
			reply{status: 401, body: `{"message":"Bad credentials"}`},
		)
		tokens := &fakeTokens{token: "tok"}
		r := newTestRepo(t, srv, repoCfg, tokens)

		if err := r.Check(context.Background()); err != nil {
			t.Fatalf("first Check: %v", err)
		}
		err := r.Check(context.Background())
		if !errors.Is(err, github.ErrUnauthorized) {
			t.Errorf("Check = %v, want ErrUnauthorized", err)
		}
		if r.Status() != status.Disconnected || r.ETag() != "" {
			t.Errorf("after 401: status=%v etag=%q", r.Status(), r.ETag())
		}
		if tokens.Token() != "" || tokens.expired.Load() != 1 {
			t.Errorf("token=%q expired=%d", tokens.Token(), tokens.expired.Load())
		}
	}
}

func TestCheckServerErrorClearsETag(t *testing.T) {
	srv := newRunsServer(t,
		reply{status: 200, etag: `"e1"`, body: runsJSON(successRun)},
		reply{status: 502, body: `{"message":"Bad Gateway"}`},
	)
	r := newTestRepo(t, srv, repoCfg, &fakeTokens{})

	if err := r.Check(context.Background()); err != nil {
		t.Fatalf("first Check: %v", err)
	}
	err := r.Check(context.Background())
	if !github.IsTransient(err) {
		t.Errorf("Check = %v, want transient APIError", err)
	}
	if r.Status() != status.Disconnected || r.ETag() != "" {
		t.Errorf("after 502: status=%v etag=%q", r.Status(), r.ETag())
	}
	if v := r.View(); v.Err == nil {
		t.Error("View.Err not recorded")
	}
	// The run seen before the outage is still there to open.
	if r.LastRun() == nil {
		t.Error("LastRun dropped on error")
	}
}

func TestCheckNoRuns(t *testing.T) {
	srv := newRunsServer(t, reply{status: 200, etag: `"e0"`, body: runsJSON()})
	r := newTestRepo(t, srv, repoCfg, &fakeTokens{})

	if err := r.Check(context.Background()); !errors.Is(err, ErrNoRuns) {
		t.Fatalf("Check = %v, want ErrNoRuns", err)
	}
	if r.Status() != status.NoRuns || r.ETag() != `"e0"` {
		t.Errorf("status=%v etag=%q", r.Status(), r.ETag())
	}
}

func TestCheckOnlyQueuedKeepsPrior(t *testing.T) {
	srv := newRunsServer(t,
		reply{status: 200, etag: `"e1"`, body: runsJSON(successRun)},
		reply{status: 200, etag: `"e2"`, body: runsJSON(queuedRun)},
	)
	r := newTestRepo(t, srv, repoCfg, &fakeTokens{})

	r.Check(context.Background())
	before := r.LastRun()
	if err := r.Check(context.Background()); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if r.Status() != status.OK || r.LastRun() != before {
		t.Errorf("status=%v lastRun=%+v", r.Status(), r.LastRun())
	}
	if r.ETag() != `"e2"` {
		t.Errorf("ETag = %q, want the new one", r.ETag())
	}
}

func TestCheckCancelledLeavesState(t *testing.T) {
	srv := newRunsServer(t, reply{status: 200, body: runsJSON(successRun)})
	r := newTestRepo(t, srv, repoCfg, &fakeTokens{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := r.Check(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Check = %v, want context.Canceled", err)
	}
	if r.Status() != status.Disconnected {
		t.Errorf("Status = %v", r.Status())
	}
}

func TestTitle(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		view View
		want string
	}{
		{
			name: "never checked",
			view: View{FullName: "o/r", Status: status.Disconnected},
			want: status.Disconnected.Glyph() + " o/r - never",
		},
		{
			name: "all filters",
			view: View{
				FullName:     "brunns/brunns-matchers",
				Config:       config.RepoConfig{Workflow: "ci.yml", Branch: "master", Event: "push", Actor: "brunns"},
				Status:       status.OK,
				WorkflowName: "CI",
				LastRun:      &github.WorkflowRun{UpdatedAt: now.Add(-5 * time.Minute)},
			},
			want: status.OK.Glyph() + " brunns/brunns-matchers 🧹CI 🌳master 🎉push 🎭brunns - 5 minutes ago",
		},
		{
			name: "workflow name not yet known",
			view: View{
				FullName: "o/r",
				Config:   config.RepoConfig{Workflow: "main.yml"},
				Status:   status.Failed,
				LastRun:  &github.WorkflowRun{UpdatedAt: now.Add(-2 * time.Hour)},
			},
			want: status.Failed.Glyph() + " o/r 🧹main.yml - 2 hours ago",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.view.Title(now); got != test.want {
				t.Errorf("Title = %q, want %q", got, test.want)
			}
		})
	}
}

func TestTarget(t *testing.T) {
	srv := newRunsServer(t, reply{status: 200, body: runsJSON(successRun)})
	r := newTestRepo(t, srv, repoCfg, &fakeTokens{})

	if _, err := r.Target(ActionOpenRun); !errors.Is(err, ErrNoLastRun) {
		t.Errorf("Target before check = %v, want ErrNoLastRun", err)
	}
	if got, err := r.Target(ActionOpenRepo); err != nil || got != "https://github.example/o/r" {
		t.Errorf("Target(repo) = %q, %v", got, err)
	}

	r.Check(context.Background())
	want := map[Action]string{
		ActionOpenRun:    "https://github.example/o/r/actions/runs/10",
		ActionOpenActor:  "https://github.example/octocat",
		ActionOpenCommit: "https://github.example/o/r/commit/abc123",
		ActionOpenRepo:   "https://github.example/o/r",
	}
	for action, url := range want {
		got, err := r.Target(action)
		if err != nil || got != url {
			t.Errorf("Target(%v) = %q, %v; want %q", action, got, err, url)
		}
	}
}

func TestParseAction(t *testing.T) {
	for _, name := range []string{"run", "actor", "commit", "repo"} {
		a, err := ParseAction(name)
		if err != nil || a.String() != name {
			t.Errorf("ParseAction(%q) = %v, %v", name, a, err)
		}
	}
	if _, err := ParseAction("branch"); err == nil {
		t.Error("ParseAction(branch) succeeded")
	}
}

func TestRerunFailedJobs(t *testing.T) {
	srv := newRunsServer(t,
		reply{status: 200, body: runsJSON(failureRun)},
		reply{status: 201},
	)
	r := newTestRepo(t, srv, repoCfg, &fakeTokens{token: "tok"})

	if err := r.RerunFailedJobs(context.Background()); !errors.Is(err, ErrNothingToRerun) {
		t.Fatalf("rerun while disconnected = %v, want ErrNothingToRerun", err)
	}

	r.Check(context.Background())
	if err := r.RerunFailedJobs(context.Background()); err != nil {
		t.Fatalf("RerunFailedJobs: %v", err)
	}

	srv.mu.Lock()
	last := srv.paths[len(srv.paths)-1]
	srv.mu.Unlock()
	if last != "POST /repos/o/r/actions/runs/11/rerun-failed-jobs" {
		t.Errorf("last request = %s", last)
	}
}

func TestRerunNotFailed(t *testing.T) {
	srv := newRunsServer(t, reply{status: 200, body: runsJSON(inProgressRun, failureRun)})
	r := newTestRepo(t, srv, repoCfg, &fakeTokens{})
	r.Check(context.Background())

	if r.Status() != status.RunningFromFailed {
		t.Fatalf("Status = %v", r.Status())
	}
	if err := r.RerunFailedJobs(context.Background()); !errors.Is(err, ErrNothingToRerun) {
		t.Errorf("RerunFailedJobs = %v, want ErrNothingToRerun", err)
	}
}

func TestRerunUnauthorizedExpiresToken(t *testing.T) {
	srv := newRunsServer(t,
		reply{status: 200, body: runsJSON(failureRun)},
		reply{status: 401, body: `{"message":"Bad credentials"}`},
	)
	tokens := &fakeTokens{token: "tok"}
	r := newTestRepo(t, srv, repoCfg, tokens)
	r.Check(context.Background())

	if err := r.RerunFailedJobs(context.Background()); !errors.Is(err, github.ErrUnauthorized) {
		t.Errorf("RerunFailedJobs = %v, want ErrUnauthorized", err)
	}
	if tokens.expired.Load() != 1 {
		t.Errorf("expired = %d, want 1", tokens.expired.Load())
	}
}
