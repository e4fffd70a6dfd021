package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"storefront-backend/services/storefront-api/internal/repo"
	"storefront-backend/services/storefront-api/internal/service"
)

func resetTestUserCmd(e *env) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset-test-user",
		Short: "Delete every user and recreate the configured test account",
		Long: `Delete every user document and insert the account configured by
TEST_USER_EMAIL, TEST_USER_PASSWORD and TEST_USER_NAME.

This is destructive and meant for local and staging databases only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete all users without --yes")
			}
			pool, err := e.db(cmd.Context())
			if err != nil {
				return err
			}
			accounts := &service.Accounts{
				Users: &repo.UsersPG{DB: pool, Outbox: &repo.OutboxPG{}},
				Log:   e.log,
				TestUser: service.TestUser{
					Email:    e.cfg.Storefront.TestUserEmail,
					Password: e.cfg.Storefront.TestUserPassword,
					Name:     e.cfg.Storefront.TestUserName,
				},
			}
			u, err := accounts.ResetTestUser(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "test user %s recreated (id %s)\n", u.Email, u.ID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting all users")
	return cmd
}
