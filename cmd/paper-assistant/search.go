// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-assistant/internal/metrics"
	"github.com/pdiddy/paper-assistant/internal/search"
	"github.com/pdiddy/paper-assistant/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [topic]",
	Short: "Search Semantic Scholar for papers",
	Long: `Search runs the same paper search the assistant's tool runs, without a
chat model. Results are filtered by publication year and citation count and
capped at --limit papers across upstream pages.

Use --save to keep the query and its outcome in a YAML file, and --load to
display a saved file again without querying the API.`,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if load, _ := cmd.Flags().GetString("load"); load != "" {
		qf, err := search.ReadQueryFile(load)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Loaded %s (%s, %s)\n", load, qf.Summary.Outcome, qf.Summary.Timestamp.Format("2006-01-02 15:04"))
		return formatSearchOutput(os.Stdout, qf.Result, jsonOutput)
	}

	query, err := queryFromFlags(cmd, args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		cfg.Search.Timeout = timeout
	}

	result := search.NewClient(cfg.Search).Search(cmd.Context(), query)

	if save, _ := cmd.Flags().GetString("save"); save != "" {
		if err := search.WriteQueryFile(save, query, result); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved query to %s\n", save)
	}
	if path := flagOrConfig(cmd, "metrics-file", "eval.metrics_file"); path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			return err
		}
	}

	if err := formatSearchOutput(os.Stdout, result, jsonOutput); err != nil {
		return err
	}
	if result.IsError() {
		return fmt.Errorf("search failed")
	}
	return nil
}

func queryFromFlags(cmd *cobra.Command, args []string) (types.SearchQuery, error) {
	topic, _ := cmd.Flags().GetString("topic")
	if topic == "" {
		topic = strings.Join(args, " ")
	}
	yearFilter, _ := cmd.Flags().GetString("year-filter")
	limit, _ := cmd.Flags().GetInt("limit")

	q := types.SearchQuery{
		Topic:      topic,
		YearFilter: types.YearFilter(strings.ToLower(strings.TrimSpace(yearFilter))),
		Limit:      limit,
	}
	if cmd.Flags().Changed("year") {
		year, _ := cmd.Flags().GetInt("year")
		q.Year = &year
	}
	if cmd.Flags().Changed("min-citations") {
		minCitations, _ := cmd.Flags().GetInt("min-citations")
		q.MinCitations = &minCitations
	}
	if q.Limit < 0 {
		return q, fmt.Errorf("--limit must not be negative")
	}
	return q, nil
}

// formatSearchOutput prints papers as a table, or the raw tool payload with
// jsonOutput. No-results and error outcomes are printed as sentences.
func formatSearchOutput(w io.Writer, result types.SearchResult, jsonOutput bool) error {
	if jsonOutput {
		_, err := fmt.Fprintln(w, search.Payload(result))
		return err
	}

	if result.Kind != types.ResultPapers {
		_, err := fmt.Fprint(w, search.Describe(result))
		return err
	}

	fmt.Fprintf(w, "%-4s  %-50s  %-4s  %-9s  %s\n",
		"Rank", "Title", "Year", "Citations", "Authors")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, p := range result.Papers {
		title := p.Title
		if len(title) > 50 {
			title = title[:47] + "..."
		}
		year := "-"
		if p.Year != nil {
			year = fmt.Sprintf("%d", *p.Year)
		}
		authors := p.Authors
		if len(authors) > 40 {
			authors = authors[:37] + "..."
		}
		fmt.Fprintf(w, "%-4d  %-50s  %-4s  %-9d  %s\n",
			i+1, title, year, p.CitationCount, authors)
	}

	fmt.Fprintf(w, "\n%d results\n", len(result.Papers))
	return nil
}

func init() {
	searchCmd.Flags().String("topic", "", "search topic (defaults to the positional arguments)")
	searchCmd.Flags().Int("year", 0, "publication year")
	searchCmd.Flags().String("year-filter", "", "how --year applies: in, before, after")
	searchCmd.Flags().Int("min-citations", 0, "minimum citation count")
	searchCmd.Flags().Int("limit", types.DefaultLimit, "maximum number of papers to return")
	searchCmd.Flags().Duration("timeout", 0, "per-request timeout (default from config)")
	searchCmd.Flags().Bool("json", false, "print the tool payload as JSON")
	searchCmd.Flags().String("save", "", "write the query and its outcome to a YAML file")
	searchCmd.Flags().String("load", "", "display a saved query file instead of searching")
	searchCmd.Flags().String("metrics-file", "", "write Prometheus metrics to this file after the search")

	rootCmd.AddCommand(searchCmd)
}
