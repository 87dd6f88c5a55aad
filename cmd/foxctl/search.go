package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/foxsearch/internal/parser"
	"github.com/GriffinCanCode/foxsearch/internal/search"
	"github.com/GriffinCanCode/foxsearch/internal/shared/types"
)

var (
	searchPages    int
	searchPerPage  int
	searchContract string
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search and print result pages",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, fetcher := setup()
		if searchContract != "" {
			cfg.Search.Contract = searchContract
		}

		p, err := parser.ForContract(cfg.Search.Contract, cfg.Search.BaseURL)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		var renderer search.Renderer = &consoleRenderer{w: out}
		if searchJSON {
			renderer = &jsonRenderer{w: out}
		}

		engine, err := search.New(fetcher, p, cfg.Search.BaseURL,
			search.WithRenderer(renderer),
			search.WithPageSizer(fixedPageSize(searchPerPage)),
			search.WithLogger(logger.Named("search")),
		)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		res, err := engine.Submit(ctx, strings.Join(args, " "), true)
		if err != nil {
			return err
		}
		for page := 1; page < searchPages && res.Outcome == search.OutcomePage; page++ {
			if res, err = engine.Advance(ctx); err != nil {
				return err
			}
		}
		if res.Outcome == search.OutcomeNoNewResults {
			fmt.Fprintln(cmd.ErrOrStderr(), "no new results")
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchPages, "pages", "p", 1, "number of pages to fetch")
	searchCmd.Flags().IntVarP(&searchPerPage, "per-page", "n", search.DefaultPerPage, "results per page (1-30)")
	searchCmd.Flags().StringVar(&searchContract, "contract", "", "parsing contract ("+strings.Join(parser.Contracts(), ", ")+")")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print one JSON object per page")
}

type fixedPageSize int

func (n fixedPageSize) ResultsPerPage(ctx context.Context) int { return int(n) }

// consoleRenderer prints numbered result cards
type consoleRenderer struct {
	w     io.Writer
	count int
}

func (r *consoleRenderer) OnResultsReady(records []types.Record, isFirstPage bool) {
	if !isFirstPage {
		fmt.Fprintln(r.w, strings.Repeat("-", 40))
	}
	for _, rec := range records {
		r.count++
		fmt.Fprintf(r.w, "%2d. %s\n    %s\n", r.count, rec.Title, rec.Link)
		if rec.Snippet != "" {
			fmt.Fprintf(r.w, "    %s\n", rec.Snippet)
		}
	}
}

func (r *consoleRenderer) OnNoResults(query string) {
	fmt.Fprintf(r.w, "no results for %q\n", query)
}

// jsonRenderer prints a JSON line per event
type jsonRenderer struct {
	w io.Writer
}

func (r *jsonRenderer) OnResultsReady(records []types.Record, isFirstPage bool) {
	r.write(map[string]interface{}{"type": "results", "first_page": isFirstPage, "records": records})
}

func (r *jsonRenderer) OnNoResults(query string) {
	r.write(map[string]interface{}{"type": "no_results", "query": query})
}

func (r *jsonRenderer) write(v interface{}) {
	data, err := sonic.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintln(r.w, string(data))
}
