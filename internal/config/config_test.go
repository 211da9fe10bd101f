package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadOrCreateWritesDefaults(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sub", name)

			cfg, created, err := LoadOrCreate(path)
			if err != nil {
				t.Fatalf("LoadOrCreate: %v", err)
			}
			if !created {
				t.Error("created = false on first run")
			}
			if len(cfg.Repos) != 3 {
				t.Fatalf("repos = %d, want 3", len(cfg.Repos))
			}
			matchers := cfg.Repos[1]
			if matchers.FullName() != "brunns/brunns-matchers" || matchers.Workflow != "ci.yml" ||
				matchers.Branch != "master" || matchers.Event != "push" || matchers.Actor != "brunns" {
				t.Errorf("repos[1] = %+v", matchers)
			}
			if cfg.PollInterval != time.Minute || cfg.Level() != 2 || cfg.LogPath() != DefaultLogFile {
				t.Errorf("interval=%v level=%d log=%q", cfg.PollInterval, cfg.Level(), cfg.LogPath())
			}

			_, created, err = LoadOrCreate(path)
			if err != nil || created {
				t.Errorf("second LoadOrCreate: created=%v err=%v", created, err)
			}
		})
	}
}

func TestLoadYAMLDefaults(t *testing.T) {
	path := writeFile(t, "c.yaml", "repos:\n  - owner: o\n    repo: r\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Interval != DefaultInterval || cfg.Level() != DefaultVerbosity || cfg.LogPath() != DefaultLogFile {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadExplicitZeroValues(t *testing.T) {
	path := writeFile(t, "c.yaml", "repos:\n  - owner: o\n    repo: r\nverbosity: 0\nlogfile: \"\"\ninterval: 5\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Level() != 0 {
		t.Errorf("Level = %d, want 0", cfg.Level())
	}
	if cfg.LogPath() != "" {
		t.Errorf("LogPath = %q, want empty", cfg.LogPath())
	}
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("PollInterval = %v", cfg.PollInterval)
	}
}

func TestLoadJSONWithComments(t *testing.T) {
	path := writeFile(t, "c.json", `{
  // watched
  "repos": [{"owner": "o", "repo": "r", "branch": "main",},],
  "interval": 30, /* seconds */
}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Repos) != 1 || cfg.Repos[0].Branch != "main" || cfg.Interval != 30 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"no repos", "interval: 60\n", "no repos"},
		{"missing owner", "repos:\n  - repo: r\n", "owner required"},
		{"missing repo", "repos:\n  - owner: o\n", "repo required"},
		{"slash in name", "repos:\n  - owner: o\n    repo: a/b\n", "must not contain"},
		{"duplicate", "repos:\n  - owner: o\n    repo: r\n  - owner: o\n    repo: r\n", "duplicate"},
		{"negative interval", "repos:\n  - owner: o\n    repo: r\ninterval: -1\n", "interval"},
		{"verbosity too high", "repos:\n  - owner: o\n    repo: r\nverbosity: 9\n", "verbosity"},
		{"bad api url", "repos:\n  - owner: o\n    repo: r\napi_url: ftp://x\n", "api_url"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "c.yaml", test.content))
			if err == nil || !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("Load error = %v, want containing %q", err, test.wantErr)
			}
		})
	}
}

func TestSetInterval(t *testing.T) {
	cfg := &Config{}
	if err := cfg.SetInterval(0); err == nil {
		t.Error("SetInterval(0) accepted")
	}
	if err := cfg.SetInterval(15); err != nil || cfg.PollInterval != 15*time.Second {
		t.Errorf("SetInterval(15): %v, %v", err, cfg.PollInterval)
	}
}
