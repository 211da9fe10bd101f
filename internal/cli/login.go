package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/marcin-skalski/actions-status/internal/auth"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authenticate with GitHub using the device flow",
		Long: `Request a device code from GitHub, show it, open the verification page,
and wait until the code is entered. The token is stored for later runs;
a running watcher picks it up on its next poll.

Needs an OAuth app client id in GITHUB_OAUTH_CLIENT_ID (a .env file in the
working directory is read) or oauth_client_id in the config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd)
		},
	}
}

func runLogin(cmd *cobra.Command) error {
	a, err := newApp(cmd, appOptions{quiet: true})
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	prompter := auth.TerminalPrompter{
		In:        cmd.InOrStdin(),
		Out:       out,
		Browser:   a.browser,
		Clipboard: isatty.IsTerminal(os.Stdout.Fd()),
	}

	err = a.session.Login(cmd.Context(), prompter)
	switch {
	case errors.Is(err, auth.ErrLoginCancelled):
		fmt.Fprintln(out, "login cancelled")
		return nil
	case err != nil:
		return fmt.Errorf("login: %w", err)
	}
	fmt.Fprintln(out, a.session.State().Label())
	return nil
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored GitHub token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, appOptions{quiet: true})
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.session.Logout(); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}
