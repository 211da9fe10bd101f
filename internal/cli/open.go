package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcin-skalski/actions-status/internal/repo"
)

type openOptions struct {
	PrintURL bool
}

func newOpenCmd() *cobra.Command {
	opts := &openOptions{}

	cmd := &cobra.Command{
		Use:   "open OWNER/REPO [run|actor|commit|repo]",
		Short: "Open a repository's latest run in the browser",
		Long: `Open the page of a watched repository's latest completed run, the actor
who triggered it, its head commit, or the repository itself.

Examples:
  actions-status open brunns/mbtest          # Open latest run
  actions-status open brunns/mbtest commit   # Open the run's head commit`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			action := repo.ActionOpenRun
			if len(args) == 2 {
				var err error
				if action, err = repo.ParseAction(args[1]); err != nil {
					return err
				}
			}
			return runOpen(cmd, args[0], action, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.PrintURL, "print-url", false, "Just print the URL without opening")

	return cmd
}

func runOpen(cmd *cobra.Command, fullName string, action repo.Action, opts *openOptions) error {
	a, err := newApp(cmd, appOptions{quiet: true})
	if err != nil {
		return err
	}
	defer a.Close()

	r, err := a.daemon.Find(fullName)
	if err != nil {
		return err
	}
	if action != repo.ActionOpenRepo {
		if r, err = checkOne(cmd.Context(), a, fullName); err != nil {
			return err
		}
	}

	if opts.PrintURL {
		target, err := r.Target(action)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), target)
		return nil
	}

	target, err := a.daemon.Open(cmd.Context(), fullName, action)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "opened", target)
	return nil
}
