package knowledge

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	zerrors "github.com/wrath-codes/zenith/internal/errors"
)

// Searcher is the per-kind lexical search surface the FTS bridge fans out
// over. Each method returns rows best match first.
type Searcher interface {
	SearchFindings(ctx context.Context, query string, limit int) ([]Finding, error)
	SearchHypotheses(ctx context.Context, query string, limit int) ([]Hypothesis, error)
	SearchInsights(ctx context.Context, query string, limit int) ([]Insight, error)
	SearchResearch(ctx context.Context, query string, limit int) ([]Research, error)
	SearchTasks(ctx context.Context, query string, limit int) ([]Task, error)
	SearchIssues(ctx context.Context, query string, limit int) ([]Issue, error)
	SearchStudies(ctx context.Context, query string, limit int) ([]Study, error)
	SearchAudit(ctx context.Context, query string, limit int) ([]AuditEntry, error)
}

var _ Searcher = (*Store)(nil)

// Backend names a lexical search engine.
type Backend string

const (
	// BackendSQLite searches the FTS5 tables directly (default).
	BackendSQLite Backend = "sqlite"
	// BackendBleve searches a bleve mirror stored next to the database.
	BackendBleve Backend = "bleve"
)

// Paths of the on-disk state inside a data directory.
const (
	DatabaseFile = "zenith.db"
	BleveDir     = "knowledge.bleve"
)

// NewSearcher returns the Searcher for backend over store. The returned
// close function releases any extra index; it is never nil.
// dataDir "" keeps a bleve index in memory.
func NewSearcher(ctx context.Context, backend string, store *Store, dataDir string) (Searcher, func() error, error) {
	switch Backend(strings.ToLower(backend)) {
	case BackendSQLite, "":
		return store, func() error { return nil }, nil

	case BackendBleve:
		path := ""
		if dataDir != "" {
			path = filepath.Join(dataDir, BleveDir)
		}
		idx, err := OpenBleveIndex(ctx, path, store)
		if err != nil {
			return nil, nil, err
		}
		return idx, idx.Close, nil

	default:
		return nil, nil, zerrors.ConfigError(fmt.Sprintf("unknown fts backend: %s (valid options: sqlite, bleve)", backend), nil)
	}
}

// Documents returns the lexical projection of every row, in kind order.
func (s *Store) Documents(ctx context.Context) ([]Document, error) {
	var docs []Document
	for _, kind := range AllKinds {
		t := ftsTables[kind]
		parts := make([]string, len(t.columns))
		for i, c := range t.columns {
			parts[i] = "COALESCE(" + c + ", '')"
		}
		q := "SELECT id, " + strings.Join(parts, " || ' ' || ") + " FROM " + t.table + " ORDER BY rowid"

		rows, err := s.db.QueryContext(ctx, q)
		if err != nil {
			return nil, zerrors.DatabaseError(fmt.Sprintf("read %s documents", kind), err)
		}
		for rows.Next() {
			d := Document{Kind: kind}
			if err := rows.Scan(&d.ID, &d.Text); err != nil {
				rows.Close()
				return nil, zerrors.DatabaseError(fmt.Sprintf("scan %s document", kind), err)
			}
			docs = append(docs, d)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, zerrors.DatabaseError(fmt.Sprintf("read %s documents", kind), err)
		}
	}
	return docs, nil
}
