package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcin-skalski/actions-status/internal/repo"
)

func newRerunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rerun OWNER/REPO",
		Short: "Re-run the failed jobs of a repository's latest run",
		Long: `Check the repository once and, if its latest completed run failed,
ask GitHub to re-run the failed jobs.

Examples:
  actions-status rerun brunns/mbtest`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRerun(cmd, args[0])
		},
	}
}

func runRerun(cmd *cobra.Command, fullName string) error {
	a, err := newApp(cmd, appOptions{quiet: true})
	if err != nil {
		return err
	}
	defer a.Close()

	r, err := checkOne(cmd.Context(), a, fullName)
	if err != nil {
		return err
	}

	err = a.daemon.Rerun(cmd.Context(), r.FullName())
	if errors.Is(err, repo.ErrNothingToRerun) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s, nothing to re-run\n", r.FullName(), r.Status())
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: re-run of run %d requested\n", r.FullName(), r.LastRun().ID)
	return nil
}

// checkOne finds a watched repository and polls it once.
func checkOne(ctx context.Context, a *app, fullName string) (*repo.Repo, error) {
	r, err := a.daemon.Find(fullName)
	if err != nil {
		return nil, err
	}
	if err := r.Check(ctx); err != nil && !errors.Is(err, repo.ErrNoRuns) {
		a.logger.Debug("check before action failed", "repo", r.FullName(), "err", err)
	}
	return r, nil
}
