package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/marcin-skalski/actions-status/internal/tui"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Poll once and print the status of every repository",
		Long: `Poll every configured repository once and print one line each, followed
by the overall status.

Exits 1 when a watched run failed or GitHub could not be reached.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd)
		},
	}
}

func runCheck(cmd *cobra.Command) error {
	a, err := newApp(cmd, appOptions{quiet: true})
	if err != nil {
		return err
	}
	defer a.Close()

	overall := a.daemon.Tick(cmd.Context())
	printSnapshot(cmd.OutOrStdout(), a.daemon.GetSnapshot())

	if overall.Severe() {
		return &exitError{code: ExitSevere}
	}
	return nil
}

func printSnapshot(w io.Writer, snap tui.Snapshot) {
	for _, r := range snap.Repos {
		fmt.Fprintln(w, r.Title)
		if r.Err != "" {
			fmt.Fprintf(w, "    %s\n", r.Err)
		}
	}
	fmt.Fprintf(w, "overall: %s %s\n", snap.Overall.Glyph(), snap.Overall)
}
