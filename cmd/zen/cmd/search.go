package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	zerrors "github.com/wrath-codes/zenith/internal/errors"
	"github.com/wrath-codes/zenith/internal/graph"
	"github.com/wrath-codes/zenith/internal/output"
	"github.com/wrath-codes/zenith/internal/search"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	mode     string
	alpha    float64
	limit    int
	types    []string
	maxNodes int
}

func newSearchCmd(g *globalOptions) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search symbols, docs and the knowledge base",
		Long: `Search the project's symbol index and knowledge base.

Modes:
  hybrid  blend vector similarity and full-text relevance (default)
  vector  nearest symbols and documentation chunks only
  fts     knowledge-base full-text matches only
  graph   analyze the decision graph (the query is ignored)`,
		Example: `  zen search "spawn blocking task"
  zen search "connection pool" --mode fts --types finding,hypothesis
  zen search "tokio runtime" --alpha 0.5 -n 5 --format json
  zen search --mode graph`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd, g, query, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "hybrid", "Search mode: vector, fts, hybrid, graph")
	cmd.Flags().Float64Var(&opts.alpha, "alpha", 0, "Vector weight for hybrid mode, 0 to 1 (default from config)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (default from config)")
	cmd.Flags().StringSliceVarP(&opts.types, "types", "t", nil, "Knowledge kinds to search, e.g. finding,task")
	cmd.Flags().IntVar(&opts.maxNodes, "max-centrality-nodes", 0, "Skip centrality above this node count in graph mode")

	return cmd
}

func runSearch(cmd *cobra.Command, g *globalOptions, query string, opts searchOptions) error {
	out, format, err := writerFor(cmd, g)
	if err != nil {
		return err
	}
	mode, err := search.ParseMode(opts.mode)
	if err != nil {
		return err
	}
	if mode != search.ModeGraph && strings.TrimSpace(query) == "" {
		return zerrors.InvalidQuery("search query must not be empty").
			WithSuggestion("Pass a query, e.g. zen search \"connection pool\"")
	}

	req := search.Request{
		Query:              query,
		Mode:               mode,
		Limit:              opts.limit,
		Types:              opts.types,
		MaxCentralityNodes: opts.maxNodes,
	}
	if cmd.Flags().Changed("alpha") {
		if opts.alpha < 0 || opts.alpha > 1 {
			return zerrors.ValidationError("alpha must be between 0 and 1", nil).
				WithDetail("alpha", fmt.Sprint(opts.alpha))
		}
		req.Alpha = &opts.alpha
	}

	ws, err := openFromCmd(cmd, g)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	resp, err := ws.engine.Search(cmd.Context(), req)
	if err != nil {
		return err
	}

	if format == output.FormatJSON {
		return out.JSON(resp)
	}
	if resp.Graph != nil {
		renderAnalysis(out, *resp.Graph)
		return nil
	}
	renderResults(out, query, resp)
	return nil
}

// renderResults prints fused results as a numbered list.
func renderResults(out *output.Writer, query string, resp *search.Response) {
	if len(resp.Results) == 0 {
		out.Statusf("", "No results found for %q", query)
		return
	}

	out.Statusf("🔍", "Found %d results for %q (%s):", len(resp.Results), query, resp.Mode)
	out.Newline()
	for i, r := range resp.Results {
		out.Statusf("", "%d. [%s] %s (score: %.3f, %s)", i+1, r.Kind, r.Name, r.CombinedScore, r.Source)
		if r.VectorScore != nil || r.FTSScore != nil {
			out.Status("", "      "+scoreLine(r))
		}
		for _, line := range snippet(r.Content, 3) {
			out.Status("", "   "+line)
		}
		out.Newline()
	}
}

func scoreLine(r search.HybridSearchResult) string {
	var parts []string
	if r.VectorScore != nil {
		parts = append(parts, fmt.Sprintf("vector: %.3f", *r.VectorScore))
	}
	if r.FTSScore != nil {
		parts = append(parts, fmt.Sprintf("fts: %.3f", *r.FTSScore))
	}
	return strings.Join(parts, " | ")
}

// renderAnalysis prints a decision graph analysis.
func renderAnalysis(out *output.Writer, a graph.GraphAnalysis) {
	out.Header("Decision graph")
	out.KeyValue("Nodes", a.NodeCount)
	out.KeyValue("Edges", a.EdgeCount)
	out.KeyValue("Components", a.Components)
	out.KeyValue("Cycles", a.HasCycles)
	out.Newline()

	if a.HasCycles {
		out.Warning("Graph has cycles; no topological order")
	} else if len(a.TopologicalOrder) > 0 {
		out.Header("Topological order")
		for i, label := range a.TopologicalOrder {
			out.Statusf("", "%d. %s", i+1, label)
		}
		out.Newline()
	}

	if len(a.Centrality) == 0 {
		return
	}
	rows := make([][]string, len(a.Centrality))
	for i, c := range a.Centrality {
		rows[i] = []string{c.Label, fmt.Sprintf("%.3f", c.Score)}
	}
	out.Table([]string{"Node", "Betweenness"}, rows)
}

// snippet returns up to n non-empty lines of content.
func snippet(content string, n int) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == n {
			break
		}
	}
	return lines
}
