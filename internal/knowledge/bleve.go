package knowledge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	zerrors "github.com/wrath-codes/zenith/internal/errors"
)

// BleveIndex is a bleve mirror of the knowledge base. It ranks ids with
// bleve and loads the rows from the Store, so results have the same shape
// as the FTS5 backend.
type BleveIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	store  *Store
	closed bool
}

var (
	_ Searcher = (*BleveIndex)(nil)
	_ Mirror   = (*BleveIndex)(nil)
)

// OpenBleveIndex opens or creates a bleve index at path and registers it as
// the store's mirror. An empty path creates an in-memory index. A freshly
// created index is populated from the store.
func OpenBleveIndex(ctx context.Context, path string, store *Store) (*BleveIndex, error) {
	m := newIndexMapping()

	var (
		idx     bleve.Index
		err     error
		created bool
	)
	if path == "" {
		idx, err = bleve.NewMemOnly(m)
		created = true
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, zerrors.New(zerrors.ErrCodeFileWrite, "create index directory", err)
		}
		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, m)
			created = true
		}
	}
	if err != nil {
		return nil, zerrors.DatabaseError("open bleve index", err).WithDetail("path", path)
	}

	b := &BleveIndex{index: idx, store: store}
	if created {
		if err := b.Rebuild(ctx); err != nil {
			_ = idx.Close()
			return nil, err
		}
	}
	store.SetMirror(b)
	return b, nil
}

// newIndexMapping keys documents on an exact "kind" field and an English
// analyzed "text" field.
func newIndexMapping() *mapping.IndexMappingImpl {
	kindField := bleve.NewKeywordFieldMapping()
	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = en.AnalyzerName

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("kind", kindField)
	doc.AddFieldMappingsAt("text", textField)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

// IndexDocuments implements Mirror.
func (b *BleveIndex) IndexDocuments(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return zerrors.DatabaseError("bleve index is closed", nil)
	}

	batch := b.index.NewBatch()
	for _, d := range docs {
		if err := batch.Index(d.ID, map[string]any{"kind": string(d.Kind), "text": d.Text}); err != nil {
			return zerrors.DatabaseError("index document "+d.ID, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return zerrors.DatabaseError("execute bleve batch", err)
	}
	return nil
}

// Rebuild re-indexes every document in the store.
func (b *BleveIndex) Rebuild(ctx context.Context) error {
	docs, err := b.store.Documents(ctx)
	if err != nil {
		return err
	}
	return b.IndexDocuments(ctx, docs)
}

// DocCount returns the number of indexed documents.
func (b *BleveIndex) DocCount() (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.index.DocCount()
}

// Close closes the index.
func (b *BleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.index.Close()
}

// searchIDs returns ids of one kind matching every query term, best first.
func (b *BleveIndex) searchIDs(ctx context.Context, kind EntityKind, q string, limit int) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, zerrors.DatabaseError("bleve index is closed", nil)
	}
	if strings.TrimSpace(q) == "" {
		return []string{}, nil
	}
	if limit <= 0 {
		n, err := b.index.DocCount()
		if err != nil {
			return nil, zerrors.DatabaseError("count bleve documents", err)
		}
		limit = int(n)
	}

	kindQuery := bleve.NewTermQuery(string(kind))
	kindQuery.SetField("kind")
	textQuery := bleve.NewMatchQuery(q)
	textQuery.SetField("text")
	textQuery.SetOperator(query.MatchQueryOperatorAnd)

	req := bleve.NewSearchRequestOptions(bleve.NewConjunctionQuery(kindQuery, textQuery), limit, 0, false)
	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, zerrors.DatabaseError(fmt.Sprintf("bleve search %s", kind), err)
	}

	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

func bleveSearch[T any](ctx context.Context, b *BleveIndex, kind EntityKind, q string, limit int, scan func(rowScanner) (T, error), idOf func(T) string) ([]T, error) {
	ids, err := b.searchIDs(ctx, kind, q, limit)
	if err != nil {
		return nil, err
	}
	return getByIDs(ctx, b.store, kind, ids, scan, idOf)
}

// SearchFindings implements Searcher.
func (b *BleveIndex) SearchFindings(ctx context.Context, q string, limit int) ([]Finding, error) {
	return bleveSearch(ctx, b, KindFinding, q, limit, scanFinding, func(v Finding) string { return v.ID })
}

// SearchHypotheses implements Searcher.
func (b *BleveIndex) SearchHypotheses(ctx context.Context, q string, limit int) ([]Hypothesis, error) {
	return bleveSearch(ctx, b, KindHypothesis, q, limit, scanHypothesis, func(v Hypothesis) string { return v.ID })
}

// SearchInsights implements Searcher.
func (b *BleveIndex) SearchInsights(ctx context.Context, q string, limit int) ([]Insight, error) {
	return bleveSearch(ctx, b, KindInsight, q, limit, scanInsight, func(v Insight) string { return v.ID })
}

// SearchResearch implements Searcher.
func (b *BleveIndex) SearchResearch(ctx context.Context, q string, limit int) ([]Research, error) {
	return bleveSearch(ctx, b, KindResearch, q, limit, scanResearch, func(v Research) string { return v.ID })
}

// SearchTasks implements Searcher.
func (b *BleveIndex) SearchTasks(ctx context.Context, q string, limit int) ([]Task, error) {
	return bleveSearch(ctx, b, KindTask, q, limit, scanTask, func(v Task) string { return v.ID })
}

// SearchIssues implements Searcher.
func (b *BleveIndex) SearchIssues(ctx context.Context, q string, limit int) ([]Issue, error) {
	return bleveSearch(ctx, b, KindIssue, q, limit, scanIssue, func(v Issue) string { return v.ID })
}

// SearchStudies implements Searcher.
func (b *BleveIndex) SearchStudies(ctx context.Context, q string, limit int) ([]Study, error) {
	return bleveSearch(ctx, b, KindStudy, q, limit, scanStudy, func(v Study) string { return v.ID })
}

// SearchAudit implements Searcher.
func (b *BleveIndex) SearchAudit(ctx context.Context, q string, limit int) ([]AuditEntry, error) {
	return bleveSearch(ctx, b, KindAudit, q, limit, scanAudit, func(v AuditEntry) string { return v.ID })
}
