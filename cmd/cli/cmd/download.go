package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var downloadOutput string

var downloadCmd = &cobra.Command{
	Use:   "download <subtitle-id>",
	Short: "Download a subtitle by the id printed by search",
	Long: `Downloads a subtitle file using an id such as "srt-eng-1234567" as
printed by the search command. Each download counts against the daily
allowance of your OpenSubtitles account.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := providerFromConfig()
		if err != nil {
			return err
		}

		sub, err := client.GetSubtitles(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("download failed: %w", err)
		}
		defer sub.Content.Close()

		if downloadOutput == "" {
			_, err = io.Copy(cmd.OutOrStdout(), sub.Content)
			return err
		}

		f, err := os.Create(downloadOutput)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", downloadOutput, err)
		}
		defer f.Close()
		if _, err := io.Copy(f, sub.Content); err != nil {
			return fmt.Errorf("failed to write %s: %w", downloadOutput, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s subtitle (%s) to %s\n", sub.Format, sub.Language, downloadOutput)
		if q := client.Quota(); q.Remaining != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Remaining downloads: %d\n", *q.Remaining)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(downloadCmd)
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "Write the subtitle to this file instead of stdout")
}
