// Package browser opens URLs with the desktop's default handler.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
)

// Opener opens a URL for the user. The terminal board, the login prompt
// and the open command all go through it so tests can record the URL.
type Opener interface {
	Open(ctx context.Context, url string) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, url string) error

func (f OpenerFunc) Open(ctx context.Context, url string) error { return f(ctx, url) }

type Client struct {
	logger *slog.Logger
	// command overrides the platform launcher; used by tests.
	command []string
}

func New(logger *slog.Logger) *Client {
	return &Client{logger: logger, command: launcher(runtime.GOOS)}
}

func launcher(goos string) []string {
	switch goos {
	case "darwin":
		return []string{"open"}
	case "windows":
		return []string{"rundll32", "url.dll,FileProtocolHandler"}
	}
	return []string{"xdg-open"}
}

func (c *Client) Open(ctx context.Context, url string) error {
	if url == "" {
		return fmt.Errorf("browser: empty url")
	}
	c.logger.Info("opening url", "url", url)
	args := append(append([]string(nil), c.command[1:]...), url)
	return c.run(ctx, c.command[0], args...)
}

func (c *Client) run(ctx context.Context, name string, args ...string) error {
	c.logger.Debug("exec", "cmd", name+" "+strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %s: %w\n%s", name, strings.Join(args, " "), err, string(out))
	}
	return nil
}
