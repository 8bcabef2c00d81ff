package cmd

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	zerrors "github.com/wrath-codes/zenith/internal/errors"
	"github.com/wrath-codes/zenith/internal/index"
	"github.com/wrath-codes/zenith/internal/output"
)

// indexOptions holds CLI flags for index.
type indexOptions struct {
	batchSize int
	check     bool
	repair    bool
}

func newIndexCmd(g *globalOptions) *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index [file.jsonl]",
		Short: "Import symbols and documentation chunks",
		Long: `Import package symbols and documentation chunks from a JSONL file, one
record per line. Each record is embedded from its name, signature and doc
comment and stored with its vector.

With --check, compare the symbol store against the vector store instead.
--repair also fixes what --check finds.`,
		Example: `  zen index symbols.jsonl
  cat symbols.jsonl | zen index -
  zen index --check
  zen index --repair`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.check || opts.repair {
				return runIndexCheck(cmd, g, opts.repair)
			}
			if len(args) == 0 {
				return zerrors.ValidationError("index needs an input file", nil).
					WithSuggestion("Pass a JSONL file, or - for stdin")
			}
			return runIndex(cmd, g, args[0], opts)
		},
	}

	cmd.Flags().IntVar(&opts.batchSize, "batch-size", index.DefaultBatchSize, "Records embedded per batch")
	cmd.Flags().BoolVar(&opts.check, "check", false, "Check symbol and vector stores for inconsistencies")
	cmd.Flags().BoolVar(&opts.repair, "repair", false, "Check and repair inconsistencies")

	return cmd
}

func runIndex(cmd *cobra.Command, g *globalOptions, path string, opts indexOptions) error {
	out, format, err := writerFor(cmd, g)
	if err != nil {
		return err
	}

	in := cmd.InOrStdin()
	total := 0
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return zerrors.New(zerrors.ErrCodeFileNotFound, "index input not found: "+path, err)
			}
			return zerrors.IOError("open index input", err)
		}
		defer func() { _ = f.Close() }()
		if total, err = countRecords(f); err != nil {
			return err
		}
		in = f
	}
	showProgress := format == output.FormatText && total > 0 && output.IsTTY(cmd.OutOrStdout())

	p, err := loadProject(g)
	if err != nil {
		return err
	}
	unlock, err := p.lock()
	if err != nil {
		return err
	}
	defer unlock()

	ws, err := openWorkspace(cmd.Context(), p)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	runner, err := index.NewRunner(index.RunnerDependencies{
		Symbols:  ws.symbols,
		Vectors:  ws.vectors,
		Embedder: ws.embedder,
		Progress: func(stored int) {
			if showProgress {
				out.Progress(stored, total, "records")
			}
		},
	})
	if err != nil {
		return err
	}

	res, err := runner.Run(cmd.Context(), in, index.RunnerConfig{
		BatchSize:   opts.batchSize,
		VectorsPath: ws.vectorsPath(),
	})
	if err != nil {
		return err
	}

	if format == output.FormatJSON {
		return out.JSON(res)
	}
	out.Successf("Indexed %d records in %s", res.Total(), res.Duration.Round(time.Millisecond))
	out.KeyValue("Symbols", res.Symbols)
	out.KeyValue("Doc chunks", res.DocChunks)
	if res.Skipped > 0 {
		out.Warningf("Skipped %d invalid records (see log)", res.Skipped)
	}
	return nil
}

// countRecords counts non-blank lines in f and rewinds it.
func countRecords(f *os.File) (int, error) {
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4<<20)
	n := 0
	for sc.Scan() {
		if len(bytes.TrimSpace(sc.Bytes())) > 0 {
			n++
		}
	}
	if err := sc.Err(); err != nil {
		return 0, zerrors.IOError("read index input", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, zerrors.IOError("rewind index input", err)
	}
	return n, nil
}

func runIndexCheck(cmd *cobra.Command, g *globalOptions, repair bool) error {
	out, format, err := writerFor(cmd, g)
	if err != nil {
		return err
	}
	p, err := loadProject(g)
	if err != nil {
		return err
	}
	if repair {
		unlock, err := p.lock()
		if err != nil {
			return err
		}
		defer unlock()
	}

	ws, err := openWorkspace(cmd.Context(), p)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	checker := index.NewConsistencyChecker(ws.symbols, ws.vectors, ws.embedder)
	res, err := checker.Check(cmd.Context())
	if err != nil {
		return err
	}

	if repair && !res.Consistent() {
		if err := checker.Repair(cmd.Context(), res.Inconsistencies); err != nil {
			return err
		}
		if err := ws.vectors.Save(ws.vectorsPath()); err != nil {
			return err
		}
	}

	if format == output.FormatJSON {
		return out.JSON(map[string]any{"check": res, "repaired": repair && !res.Consistent()})
	}
	if res.Consistent() {
		out.Successf("%d symbols checked, stores are consistent", res.Checked)
		return nil
	}
	rows := make([][]string, len(res.Inconsistencies))
	for i, is := range res.Inconsistencies {
		rows[i] = []string{is.Type.String(), is.ID}
	}
	out.Table([]string{"Problem", "ID"}, rows)
	if repair {
		out.Successf("Repaired %d inconsistencies", len(res.Inconsistencies))
		return nil
	}
	out.Warning(fmt.Sprintf("%d inconsistencies; run zen index --repair", len(res.Inconsistencies)))
	return nil
}
