package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/emberwatch/emberwatch/internal/apperr"
	"github.com/emberwatch/emberwatch/internal/consumer"
	"github.com/emberwatch/emberwatch/internal/extract"
	"github.com/emberwatch/emberwatch/internal/urlcache"
)

var processCmd = &cobra.Command{
	Use:   "process <universe>",
	Short: "Drain a universe's queue: resolve links, extract articles, persist shares",
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

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := store.EnsureIndexes(ctx, u.Name); err != nil {
			return err
		}

		poll, err := parseDuration("poll_interval", appCfg.Consumer.PollInterval)
		if err != nil {
			return err
		}
		backoff, err := parseDuration("backoff", appCfg.Consumer.Backoff)
		if err != nil {
			return err
		}
		staleness, err := parseDuration("staleness", appCfg.Consumer.Staleness)
		if err != nil {
			return err
		}
		fetchTimeout, err := parseDuration("fetch_timeout", appCfg.Extract.FetchTimeout)
		if err != nil {
			return err
		}

		// A browser domain without a renderer would be raw-fetched and
		// extract an empty shell; refuse to start in that state.
		var renderer extract.Renderer
		if len(appCfg.Extract.BrowserDomains) > 0 {
			br := appCfg.Extract.BrowserRender
			if br.AccountID == "" || br.APIToken == "" {
				return apperr.NewValidation(
					"extract.browser_domains set without extract.browser_render account_id/api_token")
			}
			renderTimeout, err := parseDuration("browser_render.timeout", br.Timeout)
			if err != nil {
				return err
			}
			renderer = extract.NewBrowserClient(br.AccountID, br.APIToken, renderTimeout)
		}

		c := &consumer.Consumer{
			Universe: u.Name,
			Queue:    store,
			Shares:   store,
			Content:  store,
			Cache:    urlcache.New(store, nil),
			Extractor: extract.New(extract.Config{
				Timeout:        fetchTimeout,
				BrowserDomains: appCfg.Extract.BrowserDomains,
				Renderer:       renderer,
			}),
			PollInterval: poll,
			Backoff:      backoff,
			Staleness:    staleness,
		}
		return c.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)
}
