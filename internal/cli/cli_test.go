package cli

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/marcin-skalski/actions-status/internal/status"
)

const (
	successRuns = `{"total_count": 1, "workflow_runs": [{"id": 7, "name": "CI", "status": "completed",
		"conclusion": "success", "updated_at": "2026-10-18T11:00:00Z",
		"html_url": "https://github.example/o/a/actions/runs/7",
		"actor": {"login": "octocat", "html_url": "https://github.example/octocat"},
		"head_commit": {"id": "abc123"}}]}`
	failureRuns = `{"total_count": 1, "workflow_runs": [{"id": 8, "name": "CI", "status": "completed",
		"conclusion": "failure", "updated_at": "2026-10-18T11:00:00Z",
		"html_url": "https://github.example/o/a/actions/runs/8"}]}`
)

type apiStub struct {
	*httptest.Server
	mu    sync.Mutex
	runs  string
	posts []string
}

func newAPIStub(t *testing.T, runs string) *apiStub {
	t.Helper()
	s := &apiStub{runs: runs}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if r.Method == http.MethodPost {
			s.posts = append(s.posts, r.URL.Path)
			w.WriteHeader(http.StatusCreated)
			return
		}
		io.WriteString(w, s.runs)
	}))
	t.Cleanup(s.Close)
	return s
}

func resetGlobalOpts(t *testing.T) {
	t.Helper()
	orig := *globalOpts
	origCmd := rootCmd
	t.Cleanup(func() {
		*globalOpts = orig
		rootCmd = origCmd
	})
}

// setup writes a config pointing at api and returns the flags selecting it.
func setup(t *testing.T, api *apiStub) []string {
	t.Helper()
	resetGlobalOpts(t)
	dir := t.TempDir()

	cfg := `repos:
  - owner: o
    repo: a
logfile: ""
verbosity: 0
api_url: ` + api.URL + `
web_url: https://github.example
`
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return []string{"--config", path, "--token-file", filepath.Join(dir, "token")}
}

func execute(t *testing.T, args ...string) (int, string) {
	t.Helper()
	rootCmd = newRootCmd()
	rootCmd.Version = "1.2.3"
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(""))
	code := run(args)
	return code, out.String()
}

func TestCheckHealthy(t *testing.T) {
	api := newAPIStub(t, successRuns)
	flags := setup(t, api)

	code, out := execute(t, append([]string{"check"}, flags...)...)
	if code != ExitOK {
		t.Fatalf("exit = %d, output:\n%s", code, out)
	}
	if !strings.Contains(out, status.OK.Glyph()+" o/a - ") {
		t.Errorf("missing repo line:\n%s", out)
	}
	if !strings.Contains(out, "overall: "+status.OK.Glyph()+" "+status.OK.String()) {
		t.Errorf("missing overall line:\n%s", out)
	}
}

func TestCheckFailedExitsSevere(t *testing.T) {
	api := newAPIStub(t, failureRuns)
	flags := setup(t, api)

	code, out := execute(t, append([]string{"check"}, flags...)...)
	if code != ExitSevere {
		t.Fatalf("exit = %d, want %d, output:\n%s", code, ExitSevere, out)
	}
}

func TestOpenPrintURL(t *testing.T) {
	api := newAPIStub(t, successRuns)
	flags := setup(t, api)

	tests := []struct {
		target string
		want   string
	}{
		{"run", "https://github.example/o/a/actions/runs/7"},
		{"actor", "https://github.example/octocat"},
		{"commit", "https://github.example/o/a/commit/abc123"},
		{"repo", "https://github.example/o/a"},
	}
	for _, tt := range tests {
		code, out := execute(t, append([]string{"open", "o/a", tt.target, "--print-url"}, flags...)...)
		if code != ExitOK || strings.TrimSpace(out) != tt.want {
			t.Errorf("open %s: exit %d, output %q, want %q", tt.target, code, out, tt.want)
		}
	}
}

func TestOpenRejectsUnknownTarget(t *testing.T) {
	api := newAPIStub(t, successRuns)
	flags := setup(t, api)

	if code, _ := execute(t, append([]string{"open", "o/a", "bogus"}, flags...)...); code != ExitInternalError {
		t.Errorf("exit = %d, want %d", code, ExitInternalError)
	}
	if code, _ := execute(t, append([]string{"open", "x/y", "repo", "--print-url"}, flags...)...); code != ExitInternalError {
		t.Errorf("unwatched repo: exit = %d, want %d", code, ExitInternalError)
	}
}

func TestRerun(t *testing.T) {
	api := newAPIStub(t, failureRuns)
	flags := setup(t, api)

	code, out := execute(t, append([]string{"rerun", "o/a"}, flags...)...)
	if code != ExitOK {
		t.Fatalf("exit = %d, output:\n%s", code, out)
	}
	if len(api.posts) != 1 || api.posts[0] != "/repos/o/a/actions/runs/8/rerun-failed-jobs" {
		t.Errorf("posts = %v", api.posts)
	}
	if !strings.Contains(out, "re-run of run 8 requested") {
		t.Errorf("output = %q", out)
	}
}

func TestRerunNothingFailed(t *testing.T) {
	api := newAPIStub(t, successRuns)
	flags := setup(t, api)

	code, out := execute(t, append([]string{"rerun", "o/a"}, flags...)...)
	if code != ExitOK || !strings.Contains(out, "nothing to re-run") {
		t.Errorf("exit %d, output %q", code, out)
	}
	if len(api.posts) != 0 {
		t.Errorf("unexpected posts %v", api.posts)
	}
}

func TestLogoutRemovesToken(t *testing.T) {
	api := newAPIStub(t, successRuns)
	flags := setup(t, api)
	tokenFile := flags[3]
	if err := os.WriteFile(tokenFile, []byte("gho_x"), 0o600); err != nil {
		t.Fatal(err)
	}

	code, out := execute(t, append([]string{"logout"}, flags...)...)
	if code != ExitOK || !strings.Contains(out, "logged out") {
		t.Fatalf("exit %d, output %q", code, out)
	}
	if _, err := os.Stat(tokenFile); !os.IsNotExist(err) {
		t.Errorf("token file still present: %v", err)
	}
}

func TestVersionFlag(t *testing.T) {
	resetGlobalOpts(t)
	code, out := execute(t, "-V")
	if code != ExitOK || !strings.Contains(out, "1.2.3") {
		t.Errorf("exit %d, output %q", code, out)
	}
}

func TestDefaultConfigWritten(t *testing.T) {
	resetGlobalOpts(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	// The default config watches public repositories on github.com; only
	// the file creation matters here, so stop before any request is made.
	code, _ := execute(t, "open", "not/watched", "--config", path)
	if code != ExitInternalError {
		t.Errorf("exit = %d, want %d", code, ExitInternalError)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("default config not written: %v", err)
	}
}
