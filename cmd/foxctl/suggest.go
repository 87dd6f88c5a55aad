package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/foxsearch/internal/suggest"
)

var suggestLang string

var suggestCmd = &cobra.Command{
	Use:   "suggest <prefix>",
	Short: "Print autocomplete suggestions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, fetcher := setup()
		svc := suggest.New(fetcher, cfg.Suggest.Language, logger.Named("suggest"), nil)

		for _, s := range svc.Suggest(cmd.Context(), strings.Join(args, " "), suggestLang) {
			fmt.Fprintln(cmd.OutOrStdout(), s)
		}
		return nil
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Fetch a URL through the relay chain and print the body",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, fetcher := setup()

		body, ok := fetcher.FetchText(cmd.Context(), args[0])
		if !ok {
			return fmt.Errorf("all %d relays failed", len(fetcher.Relays()))
		}
		fmt.Fprint(cmd.OutOrStdout(), body)
		return nil
	},
}

func init() {
	suggestCmd.Flags().StringVarP(&suggestLang, "lang", "l", "", "suggestion language (default from SUGGEST_LANG)")
}
