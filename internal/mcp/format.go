package mcp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wrath-codes/zenith/internal/search"
)

// FormatSearchResults formats fused results as markdown.
func FormatSearchResults(query string, out SearchOutput) string {
	if out.Graph != nil {
		return FormatGraphAnalysis(*out.Graph)
	}
	if len(out.Results) == 0 {
		return fmt.Sprintf("No results found for \"%s\"", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Search Results for \"%s\" (%s)\n\n", query, out.Mode)
	writeCount(&sb, len(out.Results))

	for i, r := range out.Results {
		fmt.Fprintf(&sb, "### %d. %s `%s` (score: %.3f)\n", i+1, r.Kind, r.Name, r.CombinedScore)
		fmt.Fprintf(&sb, "**Source:** %s", r.Source)
		if r.VectorScore != nil {
			fmt.Fprintf(&sb, " | vector %.3f", *r.VectorScore)
		}
		if r.FTSScore != nil {
			fmt.Fprintf(&sb, " | fts %.3f", *r.FTSScore)
		}
		sb.WriteString("\n\n")
		if r.Content != "" {
			fmt.Fprintf(&sb, "```\n%s\n```\n\n", r.Content)
		}
	}
	return sb.String()
}

// FormatFTSResults formats knowledge-base matches as markdown.
func FormatFTSResults(query string, results []search.FtsSearchResult) string {
	if len(results) == 0 {
		return fmt.Sprintf("No knowledge entries match \"%s\"", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Knowledge Matches for \"%s\"\n\n", query)
	writeCount(&sb, len(results))

	for i, r := range results {
		title := r.EntityID
		if r.Title != nil {
			title = *r.Title
		}
		fmt.Fprintf(&sb, "### %d. [%s] %s (relevance: %.2f)\n", i+1, r.EntityType, title, r.Relevance)
		fmt.Fprintf(&sb, "`%s:%s`\n\n%s\n\n", r.EntityType, r.EntityID, r.Content)
	}
	return sb.String()
}

// FormatGraphAnalysis formats a decision graph analysis as markdown.
func FormatGraphAnalysis(a GraphAnalysisOutput) string {
	var sb strings.Builder
	sb.WriteString("## Decision Graph\n\n")
	fmt.Fprintf(&sb, "- **Nodes:** %d\n", a.NodeCount)
	fmt.Fprintf(&sb, "- **Edges:** %d\n", a.EdgeCount)
	fmt.Fprintf(&sb, "- **Components:** %d\n", a.Components)
	fmt.Fprintf(&sb, "- **Cycles:** %t\n\n", a.HasCycles)

	if len(a.TopologicalOrder) > 0 {
		sb.WriteString("### Topological Order\n\n")
		sb.WriteString(strings.Join(a.TopologicalOrder, " → "))
		sb.WriteString("\n\n")
	}
	if len(a.Centrality) > 0 {
		sb.WriteString("### Centrality\n\n| Node | Score |\n|---|---|\n")
		for _, c := range a.Centrality {
			fmt.Fprintf(&sb, "| %s | %.3f |\n", c.Label, c.Score)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatGraphPath formats a shortest path as markdown.
func FormatGraphPath(in GraphPathInput, out GraphPathOutput) string {
	if !out.Found {
		return fmt.Sprintf("No path from `%s` to `%s`", in.From, in.To)
	}
	return fmt.Sprintf("## Path (%d hops)\n\n%s\n", len(out.Path)-1, strings.Join(out.Path, " → "))
}

// FormatRefSummary formats a reference graph summary as markdown.
func FormatRefSummary(out RefSummaryOutput) string {
	var sb strings.Builder
	sb.WriteString("## Reference Graph\n\n")
	fmt.Fprintf(&sb, "- **Refs:** %d\n- **Edges:** %d\n\n", out.Refs, out.Edges)

	if len(out.Categories) > 0 {
		cats := make([]string, 0, len(out.Categories))
		for c := range out.Categories {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		sb.WriteString("| Category | Edges |\n|---|---|\n")
		for _, c := range cats {
			fmt.Fprintf(&sb, "| %s | %d |\n", c, out.Categories[c])
		}
		sb.WriteString("\n")
	}
	if out.Signature != nil {
		fmt.Fprintf(&sb, "```\n%s\n```\n", *out.Signature)
	}
	return sb.String()
}

func writeCount(sb *strings.Builder, n int) {
	fmt.Fprintf(sb, "Found %d result", n)
	if n != 1 {
		sb.WriteString("s")
	}
	sb.WriteString("\n\n")
}

// clampLimit ensures limit is within bounds.
func clampLimit(limit, defaultVal, min, max int) int {
	if limit <= 0 {
		return defaultVal
	}
	if limit < min {
		return min
	}
	if limit > max {
		return max
	}
	return limit
}
