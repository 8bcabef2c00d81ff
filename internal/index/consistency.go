package index

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/wrath-codes/zenith/internal/embed"
	"github.com/wrath-codes/zenith/internal/store"
)

// InconsistencyType categorizes a mismatch between the symbol and vector stores.
type InconsistencyType int

const (
	// InconsistencyOrphanVector is a vector with no symbol row.
	InconsistencyOrphanVector InconsistencyType = iota
	// InconsistencyMissingVector is a symbol row with no vector.
	InconsistencyMissingVector
)

// String returns the snake_case name of t.
func (t InconsistencyType) String() string {
	switch t {
	case InconsistencyOrphanVector:
		return "orphan_vector"
	case InconsistencyMissingVector:
		return "missing_vector"
	default:
		return "unknown"
	}
}

// MarshalText encodes t by name.
func (t InconsistencyType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Inconsistency is one mismatched id.
type Inconsistency struct {
	Type InconsistencyType `json:"type"`
	ID   string            `json:"id"`
}

// CheckResult is the outcome of a consistency check.
type CheckResult struct {
	Checked         int             `json:"checked"`
	Inconsistencies []Inconsistency `json:"inconsistencies"`
	Duration        time.Duration   `json:"duration"`
}

// Consistent reports whether no mismatch was found.
func (r *CheckResult) Consistent() bool { return len(r.Inconsistencies) == 0 }

// ConsistencyChecker compares symbol rows against indexed vectors. Symbol
// rows are the source of truth.
type ConsistencyChecker struct {
	symbols  *store.SymbolStore
	vectors  *store.HNSWStore
	embedder embed.Embedder
}

// NewConsistencyChecker returns a checker. embedder is used by Repair to
// restore missing vectors.
func NewConsistencyChecker(symbols *store.SymbolStore, vectors *store.HNSWStore, embedder embed.Embedder) *ConsistencyChecker {
	return &ConsistencyChecker{symbols: symbols, vectors: vectors, embedder: embedder}
}

// Check lists every mismatched id, orphans first, each group sorted by id.
func (c *ConsistencyChecker) Check(ctx context.Context) (*CheckResult, error) {
	start := time.Now()
	ids, err := c.symbols.IDs(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}

	var orphans, missing []string
	for _, id := range c.vectors.AllIDs() {
		if !known[id] {
			orphans = append(orphans, id)
		}
	}
	for _, id := range ids {
		if !c.vectors.Contains(id) {
			missing = append(missing, id)
		}
	}
	sort.Strings(orphans)
	sort.Strings(missing)

	res := &CheckResult{Checked: len(ids)}
	for _, id := range orphans {
		res.Inconsistencies = append(res.Inconsistencies, Inconsistency{Type: InconsistencyOrphanVector, ID: id})
	}
	for _, id := range missing {
		res.Inconsistencies = append(res.Inconsistencies, Inconsistency{Type: InconsistencyMissingVector, ID: id})
	}
	res.Duration = time.Since(start)
	return res, nil
}

// Repair deletes orphan vectors and re-embeds symbols that lack one.
func (c *ConsistencyChecker) Repair(ctx context.Context, issues []Inconsistency) error {
	var orphans, missing []string
	for _, is := range issues {
		switch is.Type {
		case InconsistencyOrphanVector:
			orphans = append(orphans, is.ID)
		case InconsistencyMissingVector:
			missing = append(missing, is.ID)
		}
	}

	if len(orphans) > 0 {
		if err := c.vectors.Delete(ctx, orphans); err != nil {
			return err
		}
		slog.Info("orphan_vectors_deleted", slog.Int("count", len(orphans)))
	}
	if len(missing) == 0 {
		return nil
	}

	syms, err := c.symbols.Get(ctx, missing)
	if err != nil {
		return err
	}
	texts := make([]string, len(syms))
	ids := make([]string, len(syms))
	for i, s := range syms {
		texts[i] = s.EmbedText()
		ids[i] = s.ID
	}
	vecs, err := c.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	if err := c.vectors.Add(ctx, ids, vecs); err != nil {
		return err
	}
	slog.Info("missing_vectors_restored", slog.Int("count", len(ids)))
	return nil
}
