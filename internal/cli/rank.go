package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/emberwatch/emberwatch/internal/domain"
	"github.com/emberwatch/emberwatch/internal/scoring"
	"github.com/emberwatch/emberwatch/internal/storage/es"
	"github.com/emberwatch/emberwatch/pkg/dates"
)

var (
	rankHours    int
	rankQuantity int
	rankNoDecay  bool
	rankTrail    bool
)

var rankCmd = &cobra.Command{
	Use:   "rank <universe>",
	Short: "Rank the universe's recently shared links by community interest",
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

		hours := rankHours
		if hours <= 0 {
			hours = u.WindowHours
		}
		quantity := rankQuantity
		if quantity <= 0 {
			quantity = u.Quantity
		}

		engine := newEngine(store)
		window := dates.NewWindow(time.Now().UTC(), hours)
		links, err := engine.Rank(cmd.Context(), u.Name, window, quantity, !rankNoDecay)
		if err != nil {
			return err
		}

		if len(links) == 0 {
			fmt.Printf("no links shared at least twice in the last %dh\n", hours)
			return nil
		}
		for _, link := range links {
			printLink(link, rankTrail)
		}
		return nil
	},
}

func newEngine(store *es.Store) *scoring.Engine {
	return &scoring.Engine{
		Shares:  store,
		Users:   store,
		Content: store,
		Cache:   store,
		Top:     store,
	}
}

func printLink(link *domain.ScoredLink, trail bool) {
	title := link.Article.Title
	if title == "" {
		title = link.URL
	}
	fmt.Printf("%2d. %.4f  %s\n    %s  (%d shares, first %s ago)\n",
		link.Rank, link.Score, title, link.URL, link.Shares, link.FirstShared)
	if trail {
		for _, line := range link.Trail {
			fmt.Printf("      %s\n", line)
		}
	}
}

func init() {
	rankCmd.Flags().IntVar(&rankHours, "hours", 0, "ranking window in hours (default: universe setting)")
	rankCmd.Flags().IntVarP(&rankQuantity, "quantity", "n", 0, "links to return (default: universe setting)")
	rankCmd.Flags().BoolVar(&rankNoDecay, "no-decay", false, "rank by raw influence without time decay")
	rankCmd.Flags().BoolVar(&rankTrail, "trail", false, "print each score's derivation")
	rootCmd.AddCommand(rankCmd)
}
