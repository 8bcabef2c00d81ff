package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wrath-codes/zenith/internal/config"
	"github.com/wrath-codes/zenith/internal/embed"
	zerrors "github.com/wrath-codes/zenith/internal/errors"
	"github.com/wrath-codes/zenith/internal/knowledge"
	"github.com/wrath-codes/zenith/internal/output"
	"github.com/wrath-codes/zenith/internal/search"
	"github.com/wrath-codes/zenith/internal/store"
)

// project is a resolved project root with its effective configuration.
type project struct {
	root    string
	dataDir string
	config  *config.Config
}

// loadProject finds the project root from --dir (or the working directory)
// and loads its configuration.
func loadProject(opts *globalOptions) (*project, error) {
	start := opts.dir
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, zerrors.IOError("resolve working directory", err)
		}
		start = wd
	}
	root, err := config.FindProjectRoot(start)
	if err != nil {
		return nil, zerrors.IOError("find project root", err)
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, zerrors.ConfigError(err.Error(), err).
			WithSuggestion("Check .zenith.yaml and ZENITH_* environment variables")
	}
	return &project{root: root, dataDir: cfg.DataDir(root), config: cfg}, nil
}

// lock takes the data directory write lock. The returned release function
// is never nil.
func (p *project) lock() (func(), error) {
	l := store.NewDataLock(p.dataDir)
	if err := l.TryLock(); err != nil {
		return func() {}, err
	}
	return func() {
		if err := l.Unlock(); err != nil {
			slog.Warn("data_lock_release_failed", slog.String("error", err.Error()))
		}
	}, nil
}

// workspace holds every store of a project's data directory, opened.
type workspace struct {
	*project

	knowledge *knowledge.Store
	searcher  knowledge.Searcher
	symbols   *store.SymbolStore
	vectors   *store.HNSWStore
	embedder  embed.Embedder
	engine    *search.Engine

	closers []func() error
}

// openWorkspace opens the knowledge base, the configured lexical backend,
// the symbol and vector stores, and an engine over them.
func openWorkspace(ctx context.Context, p *project) (_ *workspace, err error) {
	ws := &workspace{project: p}
	defer func() {
		if err != nil {
			_ = ws.Close()
		}
	}()
	cfg := p.config

	ws.knowledge, err = knowledge.Open(filepath.Join(p.dataDir, knowledge.DatabaseFile))
	if err != nil {
		return nil, err
	}
	ws.closers = append(ws.closers, ws.knowledge.Close)

	searcher, closeSearcher, err := knowledge.NewSearcher(ctx, cfg.Search.FTSBackend, ws.knowledge, p.dataDir)
	if err != nil {
		return nil, err
	}
	ws.searcher = searcher
	ws.closers = append(ws.closers, closeSearcher)

	ws.symbols, err = store.OpenSymbolStore(filepath.Join(p.dataDir, store.SymbolsFile))
	if err != nil {
		return nil, err
	}
	ws.closers = append(ws.closers, ws.symbols.Close)

	ws.vectors, err = store.OpenHNSWStore(p.dataDir, cfg.Embeddings.Dimensions)
	if err != nil {
		return nil, err
	}
	ws.closers = append(ws.closers, ws.vectors.Close)

	ws.embedder = embed.NewCachedEmbedder(embed.NewStaticEmbedder(cfg.Embeddings.Dimensions), cfg.Embeddings.CacheSize)
	ws.closers = append(ws.closers, ws.embedder.Close)

	ws.engine = search.NewEngine(ws.searcher, search.EngineConfig{
		Alpha:              cfg.Search.Alpha,
		Limit:              cfg.Search.Limit,
		VectorCandidates:   cfg.Search.VectorCandidates,
		CentralityMaxNodes: cfg.Search.CentralityMaxNodes,
	},
		search.WithVectorSearcher(search.NewVectorSearcher(ws.embedder, ws.vectors, ws.symbols)),
		search.WithLinkSource(search.KnowledgeLinks{Store: ws.knowledge}),
	)

	slog.Debug("workspace_opened",
		slog.String("root", p.root),
		slog.String("data_dir", p.dataDir),
		slog.String("fts_backend", cfg.Search.FTSBackend),
		slog.Int("vectors", ws.vectors.Count()))
	return ws, nil
}

// vectorsPath is where the vector graph is persisted.
func (ws *workspace) vectorsPath() string {
	return filepath.Join(ws.dataDir, store.VectorsFile)
}

// Close releases the stores in reverse open order.
func (ws *workspace) Close() error {
	var errs []error
	for i := len(ws.closers) - 1; i >= 0; i-- {
		if err := ws.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	ws.closers = nil
	return errors.Join(errs...)
}

// openFromCmd loads the project for cmd and opens its workspace.
func openFromCmd(cmd *cobra.Command, opts *globalOptions) (*workspace, error) {
	p, err := loadProject(opts)
	if err != nil {
		return nil, err
	}
	return openWorkspace(cmd.Context(), p)
}

// writerFor returns the output writer and the selected format.
func writerFor(cmd *cobra.Command, opts *globalOptions) (*output.Writer, output.Format, error) {
	format, err := output.ParseFormat(opts.format)
	if err != nil {
		return nil, "", zerrors.ValidationError(err.Error(), nil)
	}
	return output.New(cmd.OutOrStdout()), format, nil
}
