package knowledge

import (
	"context"
	"database/sql"
	"strings"

	zerrors "github.com/wrath-codes/zenith/internal/errors"
)

func requireText(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return zerrors.ValidationError(field+" must not be empty", nil).WithDetail("field", field)
	}
	return nil
}

func nullable(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// CreateFinding stores a finding. Confidence defaults to "medium".
func (s *Store) CreateFinding(ctx context.Context, f Finding) (Finding, error) {
	if err := requireText("content", f.Content); err != nil {
		return Finding{}, err
	}
	f.ID = newID(KindFinding.idPrefix())
	f.Confidence = orDefault(f.Confidence, "medium")
	f.CreatedAt = s.now()

	err := s.insert(ctx, KindFinding, f.ID, f.Content+" "+f.Source,
		map[string]string{"content": f.Content, "confidence": f.Confidence},
		`INSERT INTO findings (id, research_id, content, source, confidence, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, nullable(f.ResearchID), f.Content, nullable(f.Source), f.Confidence, formatTime(f.CreatedAt))
	return f, err
}

// CreateHypothesis stores a hypothesis. Status defaults to "unverified".
func (s *Store) CreateHypothesis(ctx context.Context, h Hypothesis) (Hypothesis, error) {
	if err := requireText("content", h.Content); err != nil {
		return Hypothesis{}, err
	}
	h.ID = newID(KindHypothesis.idPrefix())
	h.Status = orDefault(h.Status, "unverified")
	h.CreatedAt = s.now()

	err := s.insert(ctx, KindHypothesis, h.ID, h.Content+" "+h.Reason,
		map[string]string{"content": h.Content, "status": h.Status},
		`INSERT INTO hypotheses (id, content, status, reason, created_at) VALUES (?, ?, ?, ?, ?)`,
		h.ID, h.Content, h.Status, nullable(h.Reason), formatTime(h.CreatedAt))
	return h, err
}

// CreateInsight stores an insight. Confidence defaults to "medium".
func (s *Store) CreateInsight(ctx context.Context, in Insight) (Insight, error) {
	if err := requireText("content", in.Content); err != nil {
		return Insight{}, err
	}
	in.ID = newID(KindInsight.idPrefix())
	in.Confidence = orDefault(in.Confidence, "medium")
	in.CreatedAt = s.now()

	err := s.insert(ctx, KindInsight, in.ID, in.Content,
		map[string]string{"content": in.Content, "confidence": in.Confidence},
		`INSERT INTO insights (id, content, confidence, created_at) VALUES (?, ?, ?, ?)`,
		in.ID, in.Content, in.Confidence, formatTime(in.CreatedAt))
	return in, err
}

// CreateResearch stores a research item. Status defaults to "open".
func (s *Store) CreateResearch(ctx context.Context, r Research) (Research, error) {
	if err := requireText("title", r.Title); err != nil {
		return Research{}, err
	}
	r.ID = newID(KindResearch.idPrefix())
	r.Status = orDefault(r.Status, "open")
	r.CreatedAt = s.now()

	err := s.insert(ctx, KindResearch, r.ID, r.Title+" "+r.Description,
		map[string]string{"title": r.Title},
		`INSERT INTO research_items (id, title, description, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.Title, nullable(r.Description), r.Status, formatTime(r.CreatedAt))
	return r, err
}

// CreateTask stores a task. Status defaults to "open".
func (s *Store) CreateTask(ctx context.Context, t Task) (Task, error) {
	if err := requireText("title", t.Title); err != nil {
		return Task{}, err
	}
	t.ID = newID(KindTask.idPrefix())
	t.Status = orDefault(t.Status, "open")
	t.CreatedAt = s.now()

	err := s.insert(ctx, KindTask, t.ID, t.Title+" "+t.Description,
		map[string]string{"title": t.Title},
		`INSERT INTO tasks (id, issue_id, title, description, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, nullable(t.IssueID), t.Title, nullable(t.Description), t.Status, formatTime(t.CreatedAt))
	return t, err
}

// CreateIssue stores an issue. Type defaults to "bug", priority to 3.
func (s *Store) CreateIssue(ctx context.Context, is Issue) (Issue, error) {
	if err := requireText("title", is.Title); err != nil {
		return Issue{}, err
	}
	is.ID = newID(KindIssue.idPrefix())
	is.Type = orDefault(is.Type, "bug")
	is.Status = orDefault(is.Status, "open")
	if is.Priority == 0 {
		is.Priority = 3
	}
	is.CreatedAt = s.now()

	err := s.insert(ctx, KindIssue, is.ID, is.Title+" "+is.Description,
		map[string]string{"title": is.Title, "type": is.Type},
		`INSERT INTO issues (id, type, title, description, priority, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		is.ID, is.Type, is.Title, nullable(is.Description), is.Priority, is.Status, formatTime(is.CreatedAt))
	return is, err
}

// CreateStudy stores a study. Status defaults to "active".
func (s *Store) CreateStudy(ctx context.Context, st Study) (Study, error) {
	if err := requireText("topic", st.Topic); err != nil {
		return Study{}, err
	}
	st.ID = newID(KindStudy.idPrefix())
	st.Status = orDefault(st.Status, "active")
	st.CreatedAt = s.now()

	err := s.insert(ctx, KindStudy, st.ID, strings.Join([]string{st.Topic, st.Question, st.Summary}, " "),
		map[string]string{"topic": st.Topic},
		`INSERT INTO studies (id, topic, question, summary, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		st.ID, st.Topic, nullable(st.Question), nullable(st.Summary), st.Status, formatTime(st.CreatedAt))
	return st, err
}
