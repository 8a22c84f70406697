package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List the subtitle languages supported by OpenSubtitles",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := providerFromConfig()
		if err != nil {
			return err
		}
		codes, err := client.Languages(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get language list: %w", err)
		}
		for _, code := range codes {
			fmt.Fprintln(cmd.OutOrStdout(), code)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(languagesCmd)
}
