package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/marcin-skalski/actions-status/internal/auth"
	"github.com/marcin-skalski/actions-status/internal/status"
	"github.com/marcin-skalski/actions-status/internal/tui"
)

// boardRefresh is how often the board re-reads the daemon's snapshot.
const boardRefresh = time.Second

// tuiEnv set to "0" forces headless output on a terminal.
const tuiEnv = "ACTIONS_STATUS_TUI"

func useTUI() bool {
	return !globalOpts.NoTUI && os.Getenv(tuiEnv) != "0" &&
		isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}

func runWatch(cmd *cobra.Command) error {
	enableTUI := useTUI()

	opts := appOptions{tui: enableTUI}
	if !enableTUI {
		opts.onTick = statusLine(cmd.OutOrStdout())
	}
	a, err := newApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	switch a.session.State() {
	case auth.Unauthenticated, auth.Expired:
		a.logger.Warn("not authenticated, private repositories will fail; run `actions-status login`")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !enableTUI {
		a.logger.Info("actions-status starting (headless)", "repos", len(a.cfg.Repos))
		return a.daemon.Run(ctx)
	}

	// TUI mode: run daemon in background, TUI in foreground
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.daemon.Run(ctx)
	}()

	p := tea.NewProgram(tui.NewModel(a.daemon, boardRefresh), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("terminal board: %w", err)
	}
	cancel()
	return <-errCh
}

// statusLine prints one line per poll with the overall status.
func statusLine(w io.Writer) func(status.Status) {
	return func(s status.Status) {
		fmt.Fprintf(w, "%s %s %s\n", time.Now().Format(time.TimeOnly), s.Glyph(), s)
	}
}
