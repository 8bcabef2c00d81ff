package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wrath-codes/zenith/internal/knowledge"
	"github.com/wrath-codes/zenith/internal/output"
)

func newReindexCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the bleve full-text index from the knowledge base",
		Long: `Rebuild the bleve mirror of the knowledge base from scratch.

Only needed with search.fts_backend: bleve. The SQLite FTS5 tables are kept
current by triggers and never need rebuilding.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, format, err := writerFor(cmd, g)
			if err != nil {
				return err
			}
			p, err := loadProject(g)
			if err != nil {
				return err
			}
			unlock, err := p.lock()
			if err != nil {
				return err
			}
			defer unlock()

			ks, err := knowledge.Open(filepath.Join(p.dataDir, knowledge.DatabaseFile))
			if err != nil {
				return err
			}
			defer func() { _ = ks.Close() }()

			idx, err := knowledge.OpenBleveIndex(cmd.Context(), filepath.Join(p.dataDir, knowledge.BleveDir), ks)
			if err != nil {
				return err
			}
			defer func() { _ = idx.Close() }()

			if err := idx.Rebuild(cmd.Context()); err != nil {
				return err
			}
			docs, err := idx.DocCount()
			if err != nil {
				return err
			}

			if format == output.FormatJSON {
				return out.JSON(map[string]any{"documents": docs})
			}
			out.Successf("Rebuilt full-text index with %d documents", docs)
			if p.config.Search.FTSBackend != string(knowledge.BackendBleve) {
				out.Warning("search.fts_backend is not bleve; searches still use SQLite FTS5")
			}
			return nil
		},
	}
}
