// Package cli holds the actions-status commands.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	ExitOK = 0
	// ExitSevere is returned by check when a run failed or GitHub could
	// not be reached.
	ExitSevere        = 1
	ExitInternalError = 10
)

// GlobalOptions holds options shared across all commands.
type GlobalOptions struct {
	ConfigPath string
	TokenFile  string
	Interval   int
	Verbose    int
	NoTUI      bool
}

var globalOpts = &GlobalOptions{}

// exitError carries a process exit code without printing anything more.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actions-status",
		Short: "Watch GitHub Actions workflow runs",
		Long: `actions-status polls the latest GitHub Actions workflow runs of the
configured repositories and shows one aggregated status.

Without a subcommand it watches: a terminal board when attached to a TTY,
status lines on stdout otherwise.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd)
		},
	}

	bindGlobalFlags(cmd.PersistentFlags())
	cmd.Flags().BoolVar(&globalOpts.NoTUI, "no-tui", false, "Print status lines instead of the terminal board")
	cmd.Flags().BoolP("version", "V", false, "Print the version and exit")

	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newRerunCmd())
	cmd.AddCommand(newOpenCmd())
	return cmd
}

func bindGlobalFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&globalOpts.ConfigPath, "config", "c", "", "Config file (default ~/.github_actions_status/config.yaml)")
	fs.StringVar(&globalOpts.TokenFile, "token-file", "", "OAuth token file (default ~/.github_actions_status/.oauth_token)")
	fs.IntVarP(&globalOpts.Interval, "interval", "i", 0, "Poll interval in seconds, overrides the config")
	fs.CountVarP(&globalOpts.Verbose, "verbose", "v", "Increase log verbosity (repeatable, overrides the config)")
}

// Execute runs the root command and exits with its status.
func Execute(version string) {
	rootCmd.Version = version
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if err == nil {
		return ExitOK
	}
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	return ExitInternalError
}
