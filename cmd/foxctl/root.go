package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/foxsearch/internal/httpclient"
	"github.com/GriffinCanCode/foxsearch/internal/infrastructure/config"
	"github.com/GriffinCanCode/foxsearch/internal/logging"
	"github.com/GriffinCanCode/foxsearch/internal/relay"
)

var (
	verbose bool
	relays  []string
)

var rootCmd = &cobra.Command{
	Use:           "foxctl",
	Short:         "foxsearch command line",
	Long:          `Search, paginate and autocomplete through public CORS relays without running the portal server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log relay attempts to stderr")
	rootCmd.PersistentFlags().StringSliceVar(&relays, "relay", nil, "relay base URL, repeatable (default from RELAY_URLS)")

	rootCmd.AddCommand(searchCmd, suggestCmd, fetchCmd)
}

// setup loads config and builds the relay chain shared by every command
func setup() (*config.Config, *zap.Logger, *relay.Fetcher) {
	cfg := config.LoadOrDefault()
	if len(relays) > 0 {
		cfg.Relay.URLs = relays
	}

	logger := logging.Nop().Logger
	if verbose {
		logger = logging.NewDevelopment().Logger
	}

	client := httpclient.NewClient(httpclient.Options{
		Timeout:           cfg.Relay.Timeout,
		RequestsPerSecond: cfg.Relay.RequestsPerSecond,
	})
	fetcher := relay.New(client, cfg.Relay.URLs, relay.WithLogger(logger.Named("relay")))
	return cfg, logger, fetcher
}
