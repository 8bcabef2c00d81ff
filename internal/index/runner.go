// Package index imports symbol and doc-chunk records into the symbol and
// vector stores.
package index

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/wrath-codes/zenith/internal/embed"
	zerrors "github.com/wrath-codes/zenith/internal/errors"
	"github.com/wrath-codes/zenith/internal/store"
)

// DefaultBatchSize is the number of records embedded per call.
const DefaultBatchSize = 32

// maxLineBytes bounds a single JSONL record.
const maxLineBytes = 4 << 20

// RunnerConfig configures one import.
type RunnerConfig struct {
	// BatchSize defaults to DefaultBatchSize.
	BatchSize int

	// VectorsPath, when set, is where the vector graph is saved afterwards.
	VectorsPath string
}

// RunnerResult summarizes an import.
type RunnerResult struct {
	Symbols   int           `json:"symbols"`
	DocChunks int           `json:"doc_chunks"`
	Skipped   int           `json:"skipped"`
	Duration  time.Duration `json:"duration"`
}

// Total is the number of records stored.
func (r RunnerResult) Total() int { return r.Symbols + r.DocChunks }

// RunnerDependencies are the stores and embedder a Runner writes through.
type RunnerDependencies struct {
	Symbols  *store.SymbolStore
	Vectors  *store.HNSWStore
	Embedder embed.Embedder

	// Progress, if set, is called after each batch with the records stored so far.
	Progress func(stored int)
}

// Runner imports JSONL records.
type Runner struct {
	deps RunnerDependencies
}

// NewRunner checks deps and returns a Runner.
func NewRunner(deps RunnerDependencies) (*Runner, error) {
	switch {
	case deps.Symbols == nil:
		return nil, zerrors.InternalError("symbol store is required", nil)
	case deps.Vectors == nil:
		return nil, zerrors.InternalError("vector store is required", nil)
	case deps.Embedder == nil:
		return nil, zerrors.InternalError("embedder is required", nil)
	}
	return &Runner{deps: deps}, nil
}

// Run reads one store.Symbol per line from r. Blank lines are ignored,
// malformed JSON aborts the run, and records that fail validation are
// skipped with a warning. Records without an id get a derived one.
func (rn *Runner) Run(ctx context.Context, r io.Reader, cfg RunnerConfig) (*RunnerResult, error) {
	start := time.Now()
	size := cfg.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	res := &RunnerResult{}
	batch := make([]store.Symbol, 0, size)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}

		var sym store.Symbol
		if err := json.Unmarshal([]byte(text), &sym); err != nil {
			return nil, zerrors.ValidationError("malformed record", err).
				WithDetail("line", fmt.Sprint(line))
		}
		if err := sym.Validate(); err != nil {
			slog.Warn("index_record_skipped", slog.Int("line", line), slog.String("error", err.Error()))
			res.Skipped++
			continue
		}
		if sym.ID == "" {
			sym.ID = sym.DeriveID()
		}

		batch = append(batch, sym)
		if len(batch) == size {
			if err := rn.flush(ctx, batch, res); err != nil {
				return nil, err
			}
			batch = batch[:0]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, zerrors.IOError("read index input", err)
	}
	if err := rn.flush(ctx, batch, res); err != nil {
		return nil, err
	}

	if cfg.VectorsPath != "" {
		if err := rn.deps.Vectors.Save(cfg.VectorsPath); err != nil {
			return nil, err
		}
	}

	res.Duration = time.Since(start)
	slog.Info("index_completed",
		slog.Int("symbols", res.Symbols),
		slog.Int("doc_chunks", res.DocChunks),
		slog.Int("skipped", res.Skipped),
		slog.Duration("duration", res.Duration))
	return res, nil
}

func (rn *Runner) flush(ctx context.Context, batch []store.Symbol, res *RunnerResult) error {
	if len(batch) == 0 {
		return nil
	}
	texts := make([]string, len(batch))
	ids := make([]string, len(batch))
	for i, sym := range batch {
		texts[i] = sym.EmbedText()
		ids[i] = sym.ID
	}

	vecs, err := rn.deps.Embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return zerrors.New(zerrors.ErrCodeEmbeddingFailed, "embed batch", err)
	}
	if err := rn.deps.Symbols.Upsert(ctx, batch); err != nil {
		return err
	}
	if err := rn.deps.Vectors.Add(ctx, ids, vecs); err != nil {
		return err
	}

	for _, sym := range batch {
		if sym.SourceType == store.SourceDocChunk {
			res.DocChunks++
		} else {
			res.Symbols++
		}
	}
	if rn.deps.Progress != nil {
		rn.deps.Progress(res.Total())
	}
	return nil
}
