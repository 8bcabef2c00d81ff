package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	zerrors "github.com/wrath-codes/zenith/internal/errors"
)

// SymbolsFile is the symbol metadata database inside the data directory.
const SymbolsFile = "symbols.db"

// Source types of indexed records.
const (
	SourceAPISymbol = "api_symbol"
	SourceDocChunk  = "doc_chunk"
)

// Symbol is one indexed API symbol or documentation chunk.
type Symbol struct {
	ID         string `json:"id,omitempty"`
	SourceType string `json:"source_type"`
	Ecosystem  string `json:"ecosystem"`
	Package    string `json:"package"`
	Version    string `json:"version"`
	Kind       string `json:"kind"`
	Name       string `json:"name"`
	Signature  string `json:"signature,omitempty"`
	DocComment string `json:"doc_comment,omitempty"`
	FilePath   string `json:"file_path,omitempty"`
	LineStart  int    `json:"line_start,omitempty"`
	LineEnd    int    `json:"line_end,omitempty"`
}

// DeriveID returns the stable id for a record without one:
// "ecosystem:package@version:file:kind:name:line".
func (s Symbol) DeriveID() string {
	return fmt.Sprintf("%s:%s@%s:%s:%s:%s:%s",
		s.Ecosystem, s.Package, s.Version, s.FilePath, s.Kind, s.Name, strconv.Itoa(s.LineStart))
}

// EmbedText is the text embedded for vector search.
func (s Symbol) EmbedText() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{s.Name, s.Signature, s.DocComment} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n")
}

// Validate checks the fields every record needs.
func (s Symbol) Validate() error {
	switch {
	case s.SourceType != SourceAPISymbol && s.SourceType != SourceDocChunk:
		return zerrors.ValidationError(fmt.Sprintf("unknown source_type %q", s.SourceType), nil)
	case strings.TrimSpace(s.Name) == "":
		return zerrors.ValidationError("symbol name is required", nil)
	case s.Ecosystem == "" || s.Package == "":
		return zerrors.ValidationError("ecosystem and package are required", nil)
	}
	return nil
}

const symbolsSchema = `
CREATE TABLE IF NOT EXISTS symbols (
	id TEXT PRIMARY KEY,
	source_type TEXT NOT NULL,
	ecosystem TEXT NOT NULL,
	package TEXT NOT NULL,
	version TEXT NOT NULL,
	kind TEXT NOT NULL,
	name TEXT NOT NULL,
	signature TEXT NOT NULL DEFAULT '',
	doc_comment TEXT NOT NULL DEFAULT '',
	file_path TEXT NOT NULL DEFAULT '',
	line_start INTEGER NOT NULL DEFAULT 0,
	line_end INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_symbols_package ON symbols(ecosystem, package, version);
`

const symbolColumns = `id, source_type, ecosystem, package, version, kind, name,
	signature, doc_comment, file_path, line_start, line_end`

// SymbolStore holds symbol metadata keyed by id.
type SymbolStore struct {
	db *sql.DB
}

// OpenSymbolStore opens (or creates) the database at path. An empty path
// opens a private in-memory database.
func OpenSymbolStore(path string) (*SymbolStore, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, zerrors.New(zerrors.ErrCodeFileWrite, "create data directory", err)
		}
		dsn = path
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, zerrors.DatabaseError("open symbol database", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, zerrors.DatabaseError("set pragma", err)
	}
	if _, err := db.Exec(symbolsSchema); err != nil {
		_ = db.Close()
		return nil, zerrors.DatabaseError("create symbol schema", err)
	}
	return &SymbolStore{db: db}, nil
}

// Upsert writes symbols in one transaction, replacing rows with the same id.
func (s *SymbolStore) Upsert(ctx context.Context, symbols []Symbol) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return zerrors.DatabaseError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO symbols (`+symbolColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return zerrors.DatabaseError("prepare symbol insert", err)
	}
	defer stmt.Close()

	for _, sym := range symbols {
		_, err := stmt.ExecContext(ctx, sym.ID, sym.SourceType, sym.Ecosystem, sym.Package,
			sym.Version, sym.Kind, sym.Name, sym.Signature, sym.DocComment,
			sym.FilePath, sym.LineStart, sym.LineEnd)
		if err != nil {
			return zerrors.DatabaseError("insert symbol", err).WithDetail("id", sym.ID)
		}
	}
	if err := tx.Commit(); err != nil {
		return zerrors.DatabaseError("commit symbols", err)
	}
	return nil
}

// Get loads the symbols for ids, in the order given. Unknown ids are
// skipped.
func (s *SymbolStore) Get(ctx context.Context, ids []string) ([]Symbol, error) {
	if len(ids) == 0 {
		return []Symbol{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+symbolColumns+` FROM symbols WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, zerrors.DatabaseError("load symbols", err)
	}
	defer rows.Close()

	byID := make(map[string]Symbol, len(ids))
	for rows.Next() {
		var sym Symbol
		if err := rows.Scan(&sym.ID, &sym.SourceType, &sym.Ecosystem, &sym.Package,
			&sym.Version, &sym.Kind, &sym.Name, &sym.Signature, &sym.DocComment,
			&sym.FilePath, &sym.LineStart, &sym.LineEnd); err != nil {
			return nil, zerrors.DatabaseError("scan symbol", err)
		}
		byID[sym.ID] = sym
	}
	if err := rows.Err(); err != nil {
		return nil, zerrors.DatabaseError("load symbols", err)
	}

	out := make([]Symbol, 0, len(byID))
	for _, id := range ids {
		if sym, ok := byID[id]; ok {
			out = append(out, sym)
		}
	}
	return out, nil
}

// IDs returns every stored id.
func (s *SymbolStore) IDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM symbols ORDER BY rowid`)
	if err != nil {
		return nil, zerrors.DatabaseError("list symbol ids", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, zerrors.DatabaseError("scan symbol id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, zerrors.DatabaseError("list symbol ids", err)
	}
	return ids, nil
}

// Count returns the number of stored symbols.
func (s *SymbolStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM symbols`).Scan(&n); err != nil {
		return 0, zerrors.DatabaseError("count symbols", err)
	}
	return n, nil
}

// Close releases the database handle.
func (s *SymbolStore) Close() error {
	return s.db.Close()
}
