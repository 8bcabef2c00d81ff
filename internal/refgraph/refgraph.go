// Package refgraph holds a per-request graph of code symbol references.
//
// Nodes are SymbolRefHit rows and edges are categorized RefEdge rows, kept in
// a private in-memory SQLite database. The store only records categories; the
// producer decides them.
package refgraph

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	zerrors "github.com/wrath-codes/zenith/internal/errors"
)

// RefCategory classifies how far a reference reaches.
type RefCategory string

const (
	CategorySameModule           RefCategory = "same_module"
	CategoryOtherModuleSameCrate RefCategory = "other_module_same_crate"
	CategoryOtherCrateWorkspace  RefCategory = "other_crate_workspace"
	CategoryExternal             RefCategory = "external"
)

// Categories lists every category in reach order.
var Categories = []RefCategory{
	CategorySameModule, CategoryOtherModuleSameCrate,
	CategoryOtherCrateWorkspace, CategoryExternal,
}

// ParseCategory resolves the string form of a category.
func ParseCategory(s string) (RefCategory, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// UnmarshalJSON rejects unknown category strings.
func (c *RefCategory) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, ok := ParseCategory(s)
	if !ok {
		return fmt.Errorf("unknown ref category %q", s)
	}
	*c = parsed
	return nil
}

// SymbolRefHit is one symbol occurrence in the graph.
type SymbolRefHit struct {
	RefID     string `json:"ref_id"`
	FilePath  string `json:"file_path"`
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	LineStart int    `json:"line_start"`
	LineEnd   int    `json:"line_end"`
	Signature string `json:"signature"`
	Doc       string `json:"doc"`
}

// RefID derives the stable id "file::kind::name::line".
func RefID(filePath, kind, name string, line int) string {
	return strings.Join([]string{filePath, kind, name, strconv.Itoa(line)}, "::")
}

// RefEdge is a categorized reference from one symbol to another. At most one
// edge exists per ordered pair.
type RefEdge struct {
	SourceRefID string      `json:"source_ref_id"`
	TargetRefID string      `json:"target_ref_id"`
	Category    RefCategory `json:"category"`
	Evidence    string      `json:"evidence"`
}

const schema = `
CREATE TABLE symbol_refs (
	ref_id TEXT PRIMARY KEY,
	file_path TEXT NOT NULL,
	kind TEXT NOT NULL,
	name TEXT NOT NULL,
	line_start INTEGER NOT NULL,
	line_end INTEGER NOT NULL,
	signature TEXT NOT NULL,
	doc TEXT NOT NULL
);
CREATE TABLE ref_edges (
	source_ref_id TEXT NOT NULL,
	target_ref_id TEXT NOT NULL,
	category TEXT NOT NULL,
	evidence TEXT NOT NULL,
	PRIMARY KEY (source_ref_id, target_ref_id)
);
CREATE INDEX idx_ref_edges_category ON ref_edges(category);
`

// ReferenceGraph is a request-scoped reference graph. It must not be used
// after Close.
type ReferenceGraph struct {
	db *sql.DB
}

// NewReferenceGraph creates an empty in-memory reference graph.
func NewReferenceGraph() (*ReferenceGraph, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, zerrors.RefGraphError("open reference graph", err)
	}
	// The in-memory database lives on a single connection.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, zerrors.RefGraphError("create reference graph schema", err)
	}
	return &ReferenceGraph{db: db}, nil
}

// Close releases the engine handle.
func (s *ReferenceGraph) Close() error {
	return s.db.Close()
}

// Insert adds refs and edges in one transaction. Rows whose key already
// exists are skipped, so overlapping batches merge without error.
func (s *ReferenceGraph) Insert(ctx context.Context, refs []SymbolRefHit, edges []RefEdge) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return zerrors.RefGraphError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	refStmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO symbol_refs
		 (ref_id, file_path, kind, name, line_start, line_end, signature, doc)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return zerrors.RefGraphError("prepare ref insert", err)
	}
	defer refStmt.Close()

	for _, r := range refs {
		if _, err := refStmt.ExecContext(ctx, r.RefID, r.FilePath, r.Kind, r.Name,
			r.LineStart, r.LineEnd, r.Signature, r.Doc); err != nil {
			return zerrors.RefGraphError("insert ref", err).WithDetail("ref_id", r.RefID)
		}
	}

	edgeStmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO ref_edges (source_ref_id, target_ref_id, category, evidence)
		 VALUES (?, ?, ?, ?)`)
	if err != nil {
		return zerrors.RefGraphError("prepare edge insert", err)
	}
	defer edgeStmt.Close()

	for _, e := range edges {
		if _, err := edgeStmt.ExecContext(ctx, e.SourceRefID, e.TargetRefID, string(e.Category), e.Evidence); err != nil {
			return zerrors.RefGraphError("insert edge", err).
				WithDetail("source_ref_id", e.SourceRefID).
				WithDetail("target_ref_id", e.TargetRefID)
		}
	}

	if err := tx.Commit(); err != nil {
		return zerrors.RefGraphError("commit transaction", err)
	}
	return nil
}

// CategoryCounts returns the number of edges per category string.
// Categories with no edges are absent.
func (s *ReferenceGraph) CategoryCounts(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, COUNT(*) FROM ref_edges GROUP BY category`)
	if err != nil {
		return nil, zerrors.RefGraphError("count categories", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var category string
		var n int64
		if err := rows.Scan(&category, &n); err != nil {
			return nil, zerrors.RefGraphError("scan category count", err)
		}
		counts[category] = n
	}
	if err := rows.Err(); err != nil {
		return nil, zerrors.RefGraphError("count categories", err)
	}
	return counts, nil
}

// LookupSignature returns the signature of refID. ok is false when the ref
// is absent.
func (s *ReferenceGraph) LookupSignature(ctx context.Context, refID string) (signature string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT signature FROM symbol_refs WHERE ref_id = ?`, refID).Scan(&signature)
	switch {
	case err == sql.ErrNoRows:
		return "", false, nil
	case err != nil:
		return "", false, zerrors.RefGraphError("lookup signature", err).WithDetail("ref_id", refID)
	}
	return signature, true, nil
}

// RefCount returns the number of stored symbols.
func (s *ReferenceGraph) RefCount(ctx context.Context) (int64, error) {
	return s.count(ctx, "symbol_refs")
}

// EdgeCount returns the number of stored edges.
func (s *ReferenceGraph) EdgeCount(ctx context.Context) (int64, error) {
	return s.count(ctx, "ref_edges")
}

func (s *ReferenceGraph) count(ctx context.Context, table string) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, zerrors.RefGraphError("count "+table, err)
	}
	return n, nil
}
