package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	zerrors "github.com/wrath-codes/zenith/internal/errors"
	"github.com/wrath-codes/zenith/internal/output"
	"github.com/wrath-codes/zenith/internal/refgraph"
)

func newRefsCmd(g *globalOptions) *cobra.Command {
	var lookup string

	cmd := &cobra.Command{
		Use:   "refs <batch.json>",
		Short: "Summarize a batch of symbol references",
		Long: `Load a batch of symbol references into a fresh in-memory reference graph
and print edge counts per category.

The batch is a JSON object {"refs": [...], "edges": [...]}. Use "-" to read
it from stdin.`,
		Example: `  zen refs refs.json
  zen refs refs.json --lookup "src/rt.rs::fn::spawn::42"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefs(cmd, g, args[0], lookup)
		},
	}

	cmd.Flags().StringVar(&lookup, "lookup", "", "Print the signature of this ref id")

	return cmd
}

func runRefs(cmd *cobra.Command, g *globalOptions, path, lookup string) error {
	out, format, err := writerFor(cmd, g)
	if err != nil {
		return err
	}

	in := cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return zerrors.New(zerrors.ErrCodeFileNotFound, "batch file not found: "+path, err)
			}
			return zerrors.IOError("open batch file", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	batch, err := refgraph.DecodeBatch(in)
	if err != nil {
		return err
	}
	sum, err := refgraph.Summarize(cmd.Context(), batch, lookup)
	if err != nil {
		return err
	}

	if format == output.FormatJSON {
		return out.JSON(sum)
	}

	out.Header("Reference graph")
	out.KeyValue("Refs", sum.Refs)
	out.KeyValue("Edges", sum.Edges)
	out.Newline()

	if len(sum.Categories) > 0 {
		cats := make([]string, 0, len(sum.Categories))
		for c := range sum.Categories {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		rows := make([][]string, len(cats))
		for i, c := range cats {
			rows[i] = []string{c, fmt.Sprint(sum.Categories[c])}
		}
		out.Table([]string{"Category", "Edges"}, rows)
	}

	if lookup != "" {
		if sum.Signature == nil {
			out.Warningf("No ref %s in batch", lookup)
		} else {
			out.Code(*sum.Signature)
		}
	}
	return nil
}
