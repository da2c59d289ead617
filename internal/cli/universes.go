package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emberwatch/emberwatch/internal/apperr"
	"github.com/emberwatch/emberwatch/internal/universe"
	"github.com/emberwatch/emberwatch/pkg/dates"
)

var universesCmd = &cobra.Command{
	Use:   "universes",
	Short: "List declared universes and their pipeline liveness",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := universe.Load(appCfg.App.UniversesFile)
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}

		for _, u := range reg.All() {
			fmt.Printf("%s  (%d seed users, %dh window, top %d)\n",
				u.Name, len(u.Seed), u.WindowHours, u.Quantity)
			fmt.Printf("    seed: %s\n", strings.Join(u.Seed, ", "))

			share, err := store.LatestShare(cmd.Context(), u.Name)
			switch {
			case errors.Is(err, apperr.ErrNotFound):
				fmt.Println("    last share: never")
			case err != nil:
				fmt.Printf("    last share: unavailable (%v)\n", err)
			default:
				fmt.Printf("    last share: %s ago by @%s\n",
					dates.SinceNow(share.Created), share.UserScreenName)
			}

			queued, err := store.LatestQueued(cmd.Context(), u.Name)
			switch {
			case errors.Is(err, apperr.ErrQueueEmpty):
				fmt.Println("    queue: empty")
			case err != nil:
				fmt.Printf("    queue: unavailable (%v)\n", err)
			default:
				fmt.Printf("    queue: newest post %s ago\n", dates.SinceNow(queued.CreatedAt))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(universesCmd)
}
