package commands

import (
	"log/slog"

	"gasbuddy-client/lib/cliutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(clearCacheCmd)
}

var clearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Deletes the cached session token so the next request fetches a fresh one.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		client := newClient(cfg, 0)

		if err := client.ClearCache(); err != nil {
			cliutil.Fatal("failed to clear token cache", err)
		}
		slog.Info("token cache cleared")
	},
}
