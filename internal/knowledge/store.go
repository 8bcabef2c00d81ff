package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	zerrors "github.com/wrath-codes/zenith/internal/errors"
)

// Document is the lexical projection of one entity, used to feed a mirror
// index such as bleve.
type Document struct {
	Kind EntityKind
	ID   string
	Text string
}

// Mirror receives every document written to the store.
type Mirror interface {
	IndexDocuments(ctx context.Context, docs []Document) error
}

// Store is the SQLite-backed knowledge base.
type Store struct {
	db     *sql.DB
	path   string
	mirror Mirror
	now    func() time.Time
}

// Open opens (or creates) the knowledge database at path.
// An empty path opens a private in-memory database.
func Open(path string) (*Store, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, zerrors.New(zerrors.ErrCodeFileWrite, "create data directory", err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, zerrors.DatabaseError("open knowledge database", err)
	}

	// One connection: an in-memory database is per-connection, and a single
	// writer avoids SQLITE_BUSY between our own goroutines.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	if path != "" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL", "PRAGMA synchronous = NORMAL")
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, zerrors.DatabaseError("set pragma", err)
		}
	}

	s := &Store{db: db, path: path, now: func() time.Time { return time.Now().UTC() }}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	stmts := append([]string{}, schemaStatements...)
	for _, kind := range AllKinds {
		stmts = append(stmts, ftsTables[kind].ddl()...)
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return zerrors.DatabaseError("create knowledge schema", err)
		}
	}
	return nil
}

// SetMirror registers an index that receives every new document.
func (s *Store) SetMirror(m Mirror) {
	s.mirror = m
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// newID returns "<prefix>-<8 hex chars>".
func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

func (s *Store) timestamp() string {
	return formatTime(s.now())
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// appendAudit writes an audit row inside tx and returns its document.
func (s *Store) appendAudit(ctx context.Context, tx *sql.Tx, entityType, entityID, action string, detail any) (Document, error) {
	var detailText sql.NullString
	if detail != nil {
		raw, err := json.Marshal(detail)
		if err != nil {
			return Document{}, zerrors.InternalError("encode audit detail", err)
		}
		detailText = sql.NullString{String: string(raw), Valid: true}
	}

	id := newID(KindAudit.idPrefix())
	_, err := tx.ExecContext(ctx,
		`INSERT INTO audit_trail (id, entity_type, entity_id, action, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, entityType, entityID, action, detailText, s.timestamp())
	if err != nil {
		return Document{}, zerrors.DatabaseError("append audit entry", err)
	}
	return Document{
		Kind: KindAudit,
		ID:   id,
		Text: fmt.Sprintf("%s %s %s %s", entityType, entityID, action, detailText.String),
	}, nil
}

// insert runs one entity insert plus its audit row in a transaction, then
// forwards both documents to the mirror.
func (s *Store) insert(ctx context.Context, kind EntityKind, id, text string, detail any, query string, args ...any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return zerrors.DatabaseError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return zerrors.DatabaseError(fmt.Sprintf("insert %s", kind), err)
	}
	audit, err := s.appendAudit(ctx, tx, string(kind), id, ActionCreated, detail)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return zerrors.DatabaseError("commit transaction", err)
	}

	return s.mirrorDocuments(ctx, Document{Kind: kind, ID: id, Text: text}, audit)
}

func (s *Store) mirrorDocuments(ctx context.Context, docs ...Document) error {
	if s.mirror == nil {
		return nil
	}
	return s.mirror.IndexDocuments(ctx, docs)
}

func parseTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}
