package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	zerrors "github.com/wrath-codes/zenith/internal/errors"
)

// selectColumns lists the columns each scan function expects, aliased on e.
var selectColumns = map[EntityKind]string{
	KindFinding:    "e.id, e.research_id, e.content, e.source, e.confidence, e.created_at",
	KindHypothesis: "e.id, e.content, e.status, e.reason, e.created_at",
	KindInsight:    "e.id, e.content, e.confidence, e.created_at",
	KindResearch:   "e.id, e.title, e.description, e.status, e.created_at",
	KindTask:       "e.id, e.issue_id, e.title, e.description, e.status, e.created_at",
	KindIssue:      "e.id, e.type, e.title, e.description, e.priority, e.status, e.created_at",
	KindStudy:      "e.id, e.topic, e.question, e.summary, e.status, e.created_at",
	KindAudit:      "e.id, e.entity_type, e.entity_id, e.action, e.detail, e.created_at",
}

type rowScanner interface {
	Scan(dest ...any) error
}

// SearchFindings returns findings matching query in FTS rank order.
func (s *Store) SearchFindings(ctx context.Context, query string, limit int) ([]Finding, error) {
	return searchKind(ctx, s, KindFinding, query, limit, scanFinding)
}

// SearchHypotheses returns hypotheses matching query in FTS rank order.
func (s *Store) SearchHypotheses(ctx context.Context, query string, limit int) ([]Hypothesis, error) {
	return searchKind(ctx, s, KindHypothesis, query, limit, scanHypothesis)
}

// SearchInsights returns insights matching query in FTS rank order.
func (s *Store) SearchInsights(ctx context.Context, query string, limit int) ([]Insight, error) {
	return searchKind(ctx, s, KindInsight, query, limit, scanInsight)
}

// SearchResearch returns research items matching query in FTS rank order.
func (s *Store) SearchResearch(ctx context.Context, query string, limit int) ([]Research, error) {
	return searchKind(ctx, s, KindResearch, query, limit, scanResearch)
}

// SearchTasks returns tasks matching query in FTS rank order.
func (s *Store) SearchTasks(ctx context.Context, query string, limit int) ([]Task, error) {
	return searchKind(ctx, s, KindTask, query, limit, scanTask)
}

// SearchIssues returns issues matching query in FTS rank order.
func (s *Store) SearchIssues(ctx context.Context, query string, limit int) ([]Issue, error) {
	return searchKind(ctx, s, KindIssue, query, limit, scanIssue)
}

// SearchStudies returns studies matching query in FTS rank order.
func (s *Store) SearchStudies(ctx context.Context, query string, limit int) ([]Study, error) {
	return searchKind(ctx, s, KindStudy, query, limit, scanStudy)
}

// SearchAudit returns audit entries matching query in FTS rank order.
func (s *Store) SearchAudit(ctx context.Context, query string, limit int) ([]AuditEntry, error) {
	return searchKind(ctx, s, KindAudit, query, limit, scanAudit)
}

func searchKind[T any](ctx context.Context, s *Store, kind EntityKind, query string, limit int, scan func(rowScanner) (T, error)) ([]T, error) {
	t := ftsTables[kind]
	if limit <= 0 {
		limit = -1
	}

	q := fmt.Sprintf(`SELECT %s FROM %s JOIN %s e ON e.rowid = %s.rowid
		WHERE %s MATCH ? ORDER BY rank LIMIT ?`,
		selectColumns[kind], t.fts, t.table, t.fts, t.fts)

	rows, err := s.db.QueryContext(ctx, q, query, limit)
	if err != nil {
		if isFTSQueryError(err, query) {
			return []T{}, nil
		}
		return nil, zerrors.DatabaseError(fmt.Sprintf("search %s", kind), err).WithDetail("query", query)
	}
	defer rows.Close()

	out, err := collect(rows, scan)
	if err != nil {
		if isFTSQueryError(err, query) {
			return []T{}, nil
		}
		return nil, zerrors.DatabaseError(fmt.Sprintf("search %s", kind), err).WithDetail("query", query)
	}
	return out, nil
}

// getByIDs loads rows of one kind and returns them in the order of ids.
// Unknown ids are skipped.
func getByIDs[T any](ctx context.Context, s *Store, kind EntityKind, ids []string, scan func(rowScanner) (T, error), idOf func(T) string) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	q := fmt.Sprintf(`SELECT %s FROM %s e WHERE e.id IN (%s)`, selectColumns[kind], ftsTables[kind].table, placeholders)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, zerrors.DatabaseError(fmt.Sprintf("load %s", kind), err)
	}
	defer rows.Close()

	found, err := collect(rows, scan)
	if err != nil {
		return nil, zerrors.DatabaseError(fmt.Sprintf("load %s", kind), err)
	}

	byID := make(map[string]T, len(found))
	for _, item := range found {
		byID[idOf(item)] = item
	}
	out := make([]T, 0, len(found))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func collect[T any](rows *sql.Rows, scan func(rowScanner) (T, error)) ([]T, error) {
	out := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// isFTSQueryError reports an FTS5 query parse failure, which is treated as
// "no matches" rather than a failed search. "no such column" only counts
// when the query itself names that column as a filter, so schema errors
// still surface.
func isFTSQueryError(err error, query string) bool {
	msg := err.Error()
	if strings.Contains(msg, "fts5:") || strings.Contains(msg, "unterminated string") {
		return true
	}
	const noColumn = "no such column: "
	i := strings.Index(msg, noColumn)
	if i < 0 {
		return false
	}
	col := strings.Fields(msg[i+len(noColumn):])
	return len(col) > 0 && strings.Contains(query, col[0]+":")
}

func scanFinding(r rowScanner) (Finding, error) {
	var f Finding
	var researchID, source sql.NullString
	var created string
	err := r.Scan(&f.ID, &researchID, &f.Content, &source, &f.Confidence, &created)
	f.ResearchID, f.Source, f.CreatedAt = researchID.String, source.String, parseTime(created)
	return f, err
}

func scanHypothesis(r rowScanner) (Hypothesis, error) {
	var h Hypothesis
	var reason sql.NullString
	var created string
	err := r.Scan(&h.ID, &h.Content, &h.Status, &reason, &created)
	h.Reason, h.CreatedAt = reason.String, parseTime(created)
	return h, err
}

func scanInsight(r rowScanner) (Insight, error) {
	var in Insight
	var created string
	err := r.Scan(&in.ID, &in.Content, &in.Confidence, &created)
	in.CreatedAt = parseTime(created)
	return in, err
}

func scanResearch(r rowScanner) (Research, error) {
	var res Research
	var desc sql.NullString
	var created string
	err := r.Scan(&res.ID, &res.Title, &desc, &res.Status, &created)
	res.Description, res.CreatedAt = desc.String, parseTime(created)
	return res, err
}

func scanTask(r rowScanner) (Task, error) {
	var t Task
	var issueID, desc sql.NullString
	var created string
	err := r.Scan(&t.ID, &issueID, &t.Title, &desc, &t.Status, &created)
	t.IssueID, t.Description, t.CreatedAt = issueID.String, desc.String, parseTime(created)
	return t, err
}

func scanIssue(r rowScanner) (Issue, error) {
	var is Issue
	var desc sql.NullString
	var created string
	err := r.Scan(&is.ID, &is.Type, &is.Title, &desc, &is.Priority, &is.Status, &created)
	is.Description, is.CreatedAt = desc.String, parseTime(created)
	return is, err
}

func scanStudy(r rowScanner) (Study, error) {
	var st Study
	var question, summary sql.NullString
	var created string
	err := r.Scan(&st.ID, &st.Topic, &question, &summary, &st.Status, &created)
	st.Question, st.Summary, st.CreatedAt = question.String, summary.String, parseTime(created)
	return st, err
}

func scanAudit(r rowScanner) (AuditEntry, error) {
	var a AuditEntry
	var detail sql.NullString
	var created string
	err := r.Scan(&a.ID, &a.EntityType, &a.EntityID, &a.Action, &detail, &created)
	if detail.Valid {
		a.Detail = json.RawMessage(detail.String)
	}
	a.CreatedAt = parseTime(created)
	return a, err
}
