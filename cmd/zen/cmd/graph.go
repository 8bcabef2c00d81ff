package cmd

import (
	"github.com/spf13/cobra"

	"github.com/wrath-codes/zenith/internal/output"
)

func newGraphCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Analyze the decision graph",
		Long: `Analyze the directed graph formed by knowledge links.

Nodes are entities named type:id and edges are links. The graph is rebuilt
from the knowledge base on every call.`,
	}

	cmd.AddCommand(newGraphAnalyzeCmd(g))
	cmd.AddCommand(newGraphPathCmd(g))
	cmd.AddCommand(newGraphToposortCmd(g))

	return cmd
}

func newGraphAnalyzeCmd(g *globalOptions) *cobra.Command {
	var maxNodes int

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Report counts, components, cycles, order and centrality",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, format, err := writerFor(cmd, g)
			if err != nil {
				return err
			}
			ws, err := openFromCmd(cmd, g)
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			analysis, err := ws.engine.AnalyzeGraph(cmd.Context(), maxNodes)
			if err != nil {
				return err
			}
			if format == output.FormatJSON {
				return out.JSON(analysis)
			}
			renderAnalysis(out, analysis)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxNodes, "max-centrality-nodes", 0, "Skip centrality above this node count (default from config)")

	return cmd
}

func newGraphPathCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "path <from> <to>",
		Short:   "Print the shortest directed path between two entities",
		Example: `  zen graph path finding:fnd-1a2b3c4d insight:ins-9f8e7d6c`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, format, err := writerFor(cmd, g)
			if err != nil {
				return err
			}
			ws, err := openFromCmd(cmd, g)
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			dg, err := ws.engine.DecisionGraph(cmd.Context())
			if err != nil {
				return err
			}
			path := dg.ShortestPath(args[0], args[1])

			if format == output.FormatJSON {
				if path == nil {
					path = []string{}
				}
				return out.JSON(map[string]any{"found": len(path) > 0, "path": path})
			}
			if path == nil {
				out.Warningf("No path from %s to %s", args[0], args[1])
				return nil
			}
			out.Successf("Path with %d hops", len(path)-1)
			for i, label := range path {
				out.Statusf("", "%d. %s", i+1, label)
			}
			return nil
		},
	}
}

func newGraphToposortCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toposort",
		Short: "Print entities in dependency order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, format, err := writerFor(cmd, g)
			if err != nil {
				return err
			}
			ws, err := openFromCmd(cmd, g)
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			dg, err := ws.engine.DecisionGraph(cmd.Context())
			if err != nil {
				return err
			}
			order, ok := dg.TopologicalSort()

			if format == output.FormatJSON {
				if order == nil {
					order = []string{}
				}
				return out.JSON(map[string]any{"has_cycles": !ok, "order": order})
			}
			if !ok {
				out.Warning("Graph has cycles; no topological order")
				return nil
			}
			if len(order) == 0 {
				out.Status("", "Decision graph is empty")
				return nil
			}
			for i, label := range order {
				out.Statusf("", "%d. %s", i+1, label)
			}
			return nil
		},
	}
}
