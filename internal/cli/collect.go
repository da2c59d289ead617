package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/emberwatch/emberwatch/internal/platform"
)

var collectFile string

var collectCmd = &cobra.Command{
	Use:   "collect <universe>",
	Short: "Enqueue raw posts from an NDJSON export (stdin by default)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := lookupUniverse(args[0])
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		if err := store.EnsureIndexes(cmd.Context(), u.Name); err != nil {
			return err
		}

		var in io.Reader = os.Stdin
		if collectFile != "" {
			f, err := os.Open(collectFile)
			if err != nil {
				return fmt.Errorf("failed to open posts file: %w", err)
			}
			defer f.Close()
			in = f
		}

		collector := platform.NewCollector(u.Name, platform.NewNDJSONSource(in), store)
		stats, err := collector.Collect(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("enqueued %d posts (%d skipped, %d failed)\n",
			stats.Enqueued, stats.Skipped, stats.Failed)
		return nil
	},
}

func init() {
	collectCmd.Flags().StringVarP(&collectFile, "file", "f", "", "read posts from a file instead of stdin")
	rootCmd.AddCommand(collectCmd)
}
