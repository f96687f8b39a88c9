package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"floodguard/cmd/floodguard/ui"
	"floodguard/internal/metrics"
	"floodguard/internal/retrieval"
)

// newsCmd searches related news
var newsCmd = &cobra.Command{
	Use:   "news [query]",
	Short: "Search news related to flood control projects",
	Long: `Searches the web for related articles, retrying with backoff and falling
back to Philippine news feeds when the search yields nothing.

Example:
  floodguard news --contractor "ABC Builders" --location Bulacan`,
	RunE: runNews,
}

var newsOpts struct {
	projectID  string
	contractor string
	location   string
	max        int
	jsonOut    bool
}

func init() {
	f := newsCmd.Flags()
	f.StringVar(&newsOpts.projectID, "project-id", "", "Project id to include in the query")
	f.StringVar(&newsOpts.contractor, "contractor", "", "Contractor to include in the query")
	f.StringVar(&newsOpts.location, "location", "", "Location to include in the query")
	f.IntVar(&newsOpts.max, "max", 0, "Maximum articles (default news.max_results)")
	f.BoolVar(&newsOpts.jsonOut, "json", false, "Print JSON instead of a list")
}

func runNews(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	query := strings.Join(args, " ")
	if query == "" {
		query = retrieval.DefaultNewsQuery
	}
	articles := newOrchestrator(cfg, metrics.New()).Search(ctx, retrieval.Request{
		Query:      query,
		ProjectID:  newsOpts.projectID,
		Contractor: newsOpts.contractor,
		Location:   newsOpts.location,
		MaxResults: newsOpts.max,
	})

	out := cmd.OutOrStdout()
	if newsOpts.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(articles)
	}
	renderArticles(out, articles, ui.DefaultStyles())
	return nil
}

func renderArticles(w io.Writer, articles []retrieval.Article, styles ui.Styles) {
	if len(articles) == 0 {
		fmt.Fprintln(w, styles.Muted.Render("No related news found."))
		return
	}
	fmt.Fprintln(w, styles.Title.Render("Related news"))
	for i, a := range articles {
		fmt.Fprintf(w, "%d. %s\n", i+1, styles.Bold.Render(a.Title))
		meta := a.Source
		if a.PublishedDate != "" {
			meta += " · " + a.PublishedDate
		}
		fmt.Fprintf(w, "   %s\n", styles.Muted.Render(meta))
		if a.Snippet != "" {
			fmt.Fprintf(w, "   %s\n", ui.Truncate(a.Snippet, 200))
		}
		fmt.Fprintf(w, "   %s\n\n", styles.Link.Render(a.URL))
	}
}
