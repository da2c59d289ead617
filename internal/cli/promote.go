package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/emberwatch/emberwatch/pkg/dates"
)

var promoteHours int

var promoteCmd = &cobra.Command{
	Use:   "promote <universe>",
	Short: "Promote a statistical-outlier link into the top-content set, if any",
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

		hours := promoteHours
		if hours <= 0 {
			hours = u.WindowHours
		}

		window := dates.NewWindow(time.Now().UTC(), hours)
		link, err := newEngine(store).MaybePromote(cmd.Context(), u.Name, window)
		if err != nil {
			return err
		}
		if link == nil {
			fmt.Println("no link cleared the promotion cutoff")
			return nil
		}
		printLink(link, true)
		return nil
	},
}

func init() {
	promoteCmd.Flags().IntVar(&promoteHours, "hours", 0, "scoring window in hours (default: universe setting)")
	rootCmd.AddCommand(promoteCmd)
}
