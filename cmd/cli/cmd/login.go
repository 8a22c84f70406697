package cmd

import (
	"fmt"
	"io"
	"time"

	opensubtitles "github.com/angelospk/opensubtitles-provider"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Verify your OpenSubtitles credentials",
	Long: `Logs in with the username and password from the configuration
(opensubtitles.username / opensubtitles.password, or the OSSUBS_ environment
variables), prints the download allowance and ends the session again.

Sessions are not stored between runs; every command logs in on demand.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := providerFromConfig()
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Logging in to OpenSubtitles...")
		if err := client.Login(cmd.Context()); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Login successful.")
		printQuota(cmd.OutOrStdout(), client.Quota())

		if _, err := client.Logout(cmd.Context()); err != nil {
			logger.WithError(err).Warn("Failed to end session")
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(loginCmd)
}

func printQuota(out io.Writer, q opensubtitles.QuotaInfo) {
	if q.Remaining == nil {
		fmt.Fprintln(out, "Remaining downloads: unknown")
	} else {
		fmt.Fprintf(out, "Remaining downloads: %d of %d\n", *q.Remaining, q.Allowed)
	}
	if !q.ResetTime.IsZero() {
		fmt.Fprintf(out, "Resets at: %s\n", q.ResetTime.Local().Format(time.RFC1123))
	}
	fmt.Fprintf(out, "Status: %s\n", q.State)
}
