package main

import (
	"agentdev-backend/infrastructure/di"
	"agentdev-backend/pkg/auth"

	"github.com/spf13/cobra"
)

func tokenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "token", Short: "Work with access tokens"}
	cmd.AddCommand(tokenIssueCmd(a))
	return cmd
}

func tokenIssueCmd(a *app) *cobra.Command {
	var user auth.UserContext
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue an access token signed with the configured secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tokens, err := di.ProvideTokenService(a.cfg)
			if err != nil {
				return err
			}
			token, err := tokens.Issue(user)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]interface{}{
				"access_token": token,
				"token_type":   "bearer",
				"expires_in":   int(tokens.TTL().Seconds()),
			})
		},
	}
	cmd.Flags().StringVar(&user.UserID, "user", "", "user id (required)")
	cmd.Flags().StringVar(&user.Email, "email", "", "email claim")
	cmd.Flags().StringVar(&user.Name, "name", "", "name claim")
	cmd.Flags().StringVar(&user.Role, "role", "user", "role claim")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
