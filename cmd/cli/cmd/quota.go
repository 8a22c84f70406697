package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Show the remaining daily download allowance",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := providerFromConfig()
		if err != nil {
			return err
		}
		if err := client.Login(cmd.Context()); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		defer func() {
			if _, err := client.Logout(cmd.Context()); err != nil {
				logger.WithError(err).Warn("Failed to end session")
			}
		}()

		printQuota(cmd.OutOrStdout(), client.Quota())
		return nil
	},
}

func init() {
	RootCmd.AddCommand(quotaCmd)
}
