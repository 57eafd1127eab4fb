package main

import (
	"github.com/spf13/cobra"
)

func projectsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "projects", Short: "Inspect stored projects"}
	cmd.AddCommand(projectsStatsCmd(a))
	return cmd
}

func projectsStatsCmd(a *app) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize projects, optionally for one owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := a.repository(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := repo.Stats(cmd.Context(), userID)
			if err != nil {
				return err
			}
			return printJSON(cmd, stats)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "owner user id")
	return cmd
}
