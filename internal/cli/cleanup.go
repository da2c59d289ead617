package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var cleanupDays int

var cleanupCmd = &cobra.Command{
	Use:   "cleanup <universe>",
	Short: "Delete shares older than the retention window",
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

		days := cleanupDays
		if days <= 0 {
			days = appCfg.Retention.ShareDays
		}

		cutoff := time.Now().UTC().AddDate(0, 0, -days)
		deleted, err := store.DeleteOlderThan(cmd.Context(), u.Name, cutoff)
		if err != nil {
			return err
		}
		fmt.Printf("deleted %d shares older than %d days\n", deleted, days)
		return nil
	},
}

func init() {
	cleanupCmd.Flags().IntVar(&cleanupDays, "days", 0, "retention in days (default: config setting)")
	rootCmd.AddCommand(cleanupCmd)
}
