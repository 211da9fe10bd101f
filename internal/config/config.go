package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

const (
	DefaultInterval  = 60 // seconds
	DefaultVerbosity = 2
	DefaultLogFile   = "/tmp/github_actions_status.log"
	MaxVerbosity     = 4
)

type Config struct {
	Repos []RepoConfig `yaml:"repos" json:"repos"`

	// Interval is the poll period in seconds.
	Interval     int           `yaml:"interval" json:"interval"`
	PollInterval time.Duration `yaml:"-" json:"-"`

	Verbosity *int `yaml:"verbosity" json:"verbosity"`

	// LogFile defaults to DefaultLogFile when absent. An explicit empty
	// value logs to stderr only.
	LogFile *string `yaml:"logfile" json:"logfile"`

	OAuthClientID string `yaml:"oauth_client_id" json:"oauth_client_id"`
	APIURL        string `yaml:"api_url" json:"api_url"`
	WebURL        string `yaml:"web_url" json:"web_url"`
	TokenFile     string `yaml:"token_file" json:"token_file"`
}

type RepoConfig struct {
	Owner    string `yaml:"owner" json:"owner"`
	Name     string `yaml:"repo" json:"repo"`
	Workflow string `yaml:"workflow,omitempty" json:"workflow,omitempty"`
	Actor    string `yaml:"actor,omitempty" json:"actor,omitempty"`
	Branch   string `yaml:"branch,omitempty" json:"branch,omitempty"`
	Event    string `yaml:"event,omitempty" json:"event,omitempty"`
}

// FullName is "owner/repo".
func (r RepoConfig) FullName() string { return r.Owner + "/" + r.Name }

// DefaultPath is ~/.github_actions_status/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, ".github_actions_status", "config.yaml"), nil
}

// LoadOrCreate writes the default config to path when nothing is there
// yet, then loads it.
func LoadOrCreate(path string) (*Config, bool, error) {
	created := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := writeDefault(path); err != nil {
			return nil, false, err
		}
		created = true
	}
	cfg, err := Load(path)
	return cfg, created, err
}

func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	content := defaultYAML
	if isJSON(path) {
		content = defaultJSON
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if isJSON(path) {
		err = json.Unmarshal(jsonc.ToJSON(data), &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Interval == 0 {
		c.Interval = DefaultInterval
	}
	c.PollInterval = time.Duration(c.Interval) * time.Second

	if c.Verbosity == nil {
		v := DefaultVerbosity
		c.Verbosity = &v
	}
	if c.LogFile == nil {
		f := DefaultLogFile
		c.LogFile = &f
	}
}

// SetInterval overrides the poll period, e.g. from a command-line flag.
func (c *Config) SetInterval(seconds int) error {
	if seconds <= 0 {
		return fmt.Errorf("interval must be positive, got %d", seconds)
	}
	c.Interval = seconds
	c.PollInterval = time.Duration(seconds) * time.Second
	return nil
}

// Level is the configured verbosity, 0..MaxVerbosity.
func (c *Config) Level() int {
	if c.Verbosity == nil {
		return DefaultVerbosity
	}
	return *c.Verbosity
}

// LogPath is the rotating log file, "" for stderr only.
func (c *Config) LogPath() string {
	if c.LogFile == nil {
		return DefaultLogFile
	}
	return *c.LogFile
}

func (c *Config) validate() error {
	if len(c.Repos) == 0 {
		return fmt.Errorf("no repos configured")
	}
	seen := make(map[RepoConfig]bool, len(c.Repos))
	for i, r := range c.Repos {
		if r.Owner == "" {
			return fmt.Errorf("repos[%d]: owner required", i)
		}
		if r.Name == "" {
			return fmt.Errorf("repos[%d]: repo required", i)
		}
		if strings.Contains(r.Owner, "/") || strings.Contains(r.Name, "/") {
			return fmt.Errorf("repos[%d]: owner and repo must not contain '/'", i)
		}
		if seen[r] {
			return fmt.Errorf("repos[%d]: duplicate entry for %s", i, r.FullName())
		}
		seen[r] = true
	}
	if c.Interval < 0 {
		return fmt.Errorf("interval must be positive, got %d", c.Interval)
	}
	if v := c.Level(); v < 0 || v > MaxVerbosity {
		return fmt.Errorf("verbosity must be 0..%d, got %d", MaxVerbosity, v)
	}
	for name, raw := range map[string]string{"api_url": c.APIURL, "web_url": c.WebURL} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s: invalid url %q", name, raw)
		}
	}
	return nil
}
