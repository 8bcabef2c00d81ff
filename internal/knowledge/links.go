package knowledge

import (
	"context"
	"strings"

	zerrors "github.com/wrath-codes/zenith/internal/errors"
)

// LinkDetail is the audit detail recorded for a new link.
type LinkDetail struct {
	SourceType string `json:"source_type"`
	SourceID   string `json:"source_id"`
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
	Relation   string `json:"relation"`
}

// CreateLink records source -[relation]-> target. Creating an existing link
// again returns the stored one and writes no audit entry.
func (s *Store) CreateLink(ctx context.Context, sourceType, sourceID, targetType, targetID, relation string) (Link, error) {
	for field, v := range map[string]string{
		"source_type": sourceType, "source_id": sourceID,
		"target_type": targetType, "target_id": targetID,
	} {
		if err := requireText(field, v); err != nil {
			return Link{}, err
		}
	}
	relation = strings.ToLower(strings.TrimSpace(relation))
	if !IsRelation(relation) {
		return Link{}, zerrors.New(zerrors.ErrCodeInvalidRelation, "unknown relation: "+relation, nil).
			WithSuggestion("Use one of: " + strings.Join(Relations, ", "))
	}

	link := Link{
		ID:         newID("lnk"),
		SourceType: sourceType,
		SourceID:   sourceID,
		TargetType: targetType,
		TargetID:   targetID,
		Relation:   relation,
		CreatedAt:  s.now(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Link{}, zerrors.DatabaseError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO entity_links (id, source_type, source_id, target_type, target_id, relation, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		link.ID, sourceType, sourceID, targetType, targetID, relation, formatTime(link.CreatedAt))
	if err != nil {
		return Link{}, zerrors.DatabaseError("insert link", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		row := tx.QueryRowContext(ctx,
			`SELECT id, source_type, source_id, target_type, target_id, relation, created_at
			 FROM entity_links
			 WHERE source_type = ? AND source_id = ? AND target_type = ? AND target_id = ? AND relation = ?`,
			sourceType, sourceID, targetType, targetID, relation)
		existing, err := scanLink(row)
		if err != nil {
			return Link{}, zerrors.DatabaseError("load existing link", err)
		}
		return existing, nil
	}

	audit, err := s.appendAudit(ctx, tx, "entity_link", link.ID, ActionLinked, LinkDetail{
		SourceType: sourceType, SourceID: sourceID,
		TargetType: targetType, TargetID: targetID,
		Relation: relation,
	})
	if err != nil {
		return Link{}, err
	}
	if err := tx.Commit(); err != nil {
		return Link{}, zerrors.DatabaseError("commit transaction", err)
	}

	return link, s.mirrorDocuments(ctx, audit)
}

// ListLinks returns every link in insertion order.
func (s *Store) ListLinks(ctx context.Context) ([]Link, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_type, source_id, target_type, target_id, relation, created_at
		 FROM entity_links ORDER BY rowid`)
	if err != nil {
		return nil, zerrors.DatabaseError("list links", err)
	}
	defer rows.Close()

	links, err := collect(rows, scanLink)
	if err != nil {
		return nil, zerrors.DatabaseError("scan links", err)
	}
	return links, nil
}

func scanLink(r rowScanner) (Link, error) {
	var l Link
	var created string
	err := r.Scan(&l.ID, &l.SourceType, &l.SourceID, &l.TargetType, &l.TargetID, &l.Relation, &created)
	l.CreatedAt = parseTime(created)
	return l, err
}
