package search

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	zerrors "github.com/wrath-codes/zenith/internal/errors"
	"github.com/wrath-codes/zenith/internal/knowledge"
)

// stubSearcher returns canned rows and counts calls.
type stubSearcher struct {
	calls    atomic.Int32
	findings []knowledge.Finding
	tasks    []knowledge.Task
	studies  []knowledge.Study
	audit    []knowledge.AuditEntry
	failOn   knowledge.EntityKind
}

func (s *stubSearcher) hit(kind knowledge.EntityKind) error {
	s.calls.Add(1)
	if s.failOn == kind {
		return errors.New("disk I/O error")
	}
	return nil
}

func (s *stubSearcher) SearchFindings(_ context.Context, _ string, limit int) ([]knowledge.Finding, error) {
	if err := s.hit(knowledge.KindFinding); err != nil {
		return nil, err
	}
	return head(s.findings, limit), nil
}

func (s *stubSearcher) SearchHypotheses(context.Context, string, int) ([]knowledge.Hypothesis, error) {
	return nil, s.hit(knowledge.KindHypothesis)
}

func (s *stubSearcher) SearchInsights(context.Context, string, int) ([]knowledge.Insight, error) {
	return nil, s.hit(knowledge.KindInsight)
}

func (s *stubSearcher) SearchResearch(context.Context, string, int) ([]knowledge.Research, error) {
	return nil, s.hit(knowledge.KindResearch)
}

func (s *stubSearcher) SearchTasks(_ context.Context, _ string, limit int) ([]knowledge.Task, error) {
	if err := s.hit(knowledge.KindTask); err != nil {
		return nil, err
	}
	return head(s.tasks, limit), nil
}

func (s *stubSearcher) SearchIssues(context.Context, string, int) ([]knowledge.Issue, error) {
	return nil, s.hit(knowledge.KindIssue)
}

func (s *stubSearcher) SearchStudies(_ context.Context, _ string, limit int) ([]knowledge.Study, error) {
	if err := s.hit(knowledge.KindStudy); err != nil {
		return nil, err
	}
	return head(s.studies, limit), nil
}

func (s *stubSearcher) SearchAudit(_ context.Context, _ string, limit int) ([]knowledge.AuditEntry, error) {
	if err := s.hit(knowledge.KindAudit); err != nil {
		return nil, err
	}
	return head(s.audit, limit), nil
}

func head[T any](rows []T, n int) []T {
	if len(rows) > n {
		return rows[:n]
	}
	return rows
}

func TestFTSBridge_EmptyQueryIsInvalid(t *testing.T) {
	stub := &stubSearcher{}
	bridge := NewFTSBridge(stub)

	for _, q := range []string{"", "   ", "\t\n"} {
		_, err := bridge.Search(context.Background(), q, FtsSearchFilters{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, zerrors.ErrInvalidQuery))
	}
	assert.Zero(t, stub.calls.Load())
}

func TestFTSBridge_NoMatchingKindReturnsEmpty(t *testing.T) {
	stub := &stubSearcher{}
	bridge := NewFTSBridge(stub)

	got, err := bridge.Search(context.Background(), "runtime", FtsSearchFilters{EntityTypes: []string{"decision", "prd"}})

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Zero(t, stub.calls.Load())
}

func TestFTSBridge_PositionalRelevancePerKind(t *testing.T) {
	stub := &stubSearcher{
		findings: []knowledge.Finding{{ID: "fnd-1", Content: "a"}, {ID: "fnd-2", Content: "b"}, {ID: "fnd-3", Content: "c"}, {ID: "fnd-4", Content: "d"}},
		tasks:    []knowledge.Task{{ID: "tsk-1", Title: "t1"}},
	}
	bridge := NewFTSBridge(stub)

	got, err := bridge.Search(context.Background(), "x", FtsSearchFilters{EntityTypes: []string{"task", "finding", "bogus"}})

	require.NoError(t, err)
	require.Len(t, got, 5)
	// canonical kind order: findings before tasks
	assert.Equal(t, "finding", got[0].EntityType)
	assert.InDelta(t, 1.0, got[0].Relevance, 1e-9)
	assert.InDelta(t, 0.75, got[1].Relevance, 1e-9)
	assert.InDelta(t, 0.5, got[2].Relevance, 1e-9)
	assert.InDelta(t, 0.25, got[3].Relevance, 1e-9)
	assert.Equal(t, "task", got[4].EntityType)
	assert.InDelta(t, 1.0, got[4].Relevance, 1e-9)
	assert.Equal(t, int32(2), stub.calls.Load())
}

func TestFTSBridge_LimitAppliesPerKind(t *testing.T) {
	stub := &stubSearcher{
		findings: []knowledge.Finding{{ID: "1"}, {ID: "2"}, {ID: "3"}},
	}
	bridge := NewFTSBridge(stub)

	got, err := bridge.Search(context.Background(), "x", FtsSearchFilters{EntityTypes: []string{"finding"}, Limit: 2})

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.InDelta(t, 0.5, got[1].Relevance, 1e-9)
}

func TestFTSBridge_TitleAndContentMapping(t *testing.T) {
	stub := &stubSearcher{
		findings: []knowledge.Finding{{ID: "fnd-1", Content: "finding body"}},
		tasks:    []knowledge.Task{{ID: "tsk-1", Title: "Fix parser"}},
		studies:  []knowledge.Study{{ID: "stu-1", Topic: "async rust", Summary: "done"}},
		audit: []knowledge.AuditEntry{
			{ID: "aud-1", EntityID: "fnd-1", Detail: []byte(`{"k":"v"}`)},
			{ID: "aud-2", EntityID: "tsk-9"},
		},
	}
	bridge := NewFTSBridge(stub)

	got, err := bridge.Search(context.Background(), "x", FtsSearchFilters{})

	require.NoError(t, err)
	require.Len(t, got, 5)

	byID := map[string]FtsSearchResult{}
	for _, r := range got {
		byID[r.EntityID] = r
	}
	assert.Nil(t, byID["fnd-1"].Title)
	assert.Equal(t, "finding body", byID["fnd-1"].Content)
	require.NotNil(t, byID["tsk-1"].Title)
	assert.Equal(t, "Fix parser", *byID["tsk-1"].Title)
	assert.Equal(t, "", byID["tsk-1"].Content)
	assert.Equal(t, "async rust", *byID["stu-1"].Title)
	assert.Equal(t, "done", byID["stu-1"].Content)
	assert.Equal(t, `{"k":"v"}`, byID["aud-1"].Content)
	assert.Equal(t, "tsk-9", byID["aud-2"].Content)
	assert.Equal(t, int32(8), stub.calls.Load())
}

func TestFTSBridge_AnyKindFailureAbortsCall(t *testing.T) {
	stub := &stubSearcher{
		findings: []knowledge.Finding{{ID: "fnd-1"}},
		failOn:   knowledge.KindIssue,
	}
	bridge := NewFTSBridge(stub)

	got, err := bridge.Search(context.Background(), "x", FtsSearchFilters{})

	require.Error(t, err)
	assert.Nil(t, got)
	assert.Contains(t, err.Error(), "disk I/O error")
}

func TestFTSBridge_AgainstSQLiteStore(t *testing.T) {
	store, err := knowledge.Open("")
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	_, err = store.CreateTask(ctx, newTask("Tune HNSW parameters", "ef search"))
	require.NoError(t, err)
	_, err = store.CreateFinding(ctx, knowledge.Finding{Content: "HNSW recall drops past M=8"})
	require.NoError(t, err)

	got, err := NewFTSBridge(store).Search(ctx, "hnsw", FtsSearchFilters{EntityTypes: []string{"finding", "task"}})

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "finding", got[0].EntityType)
	assert.Equal(t, "task", got[1].EntityType)
	assert.Equal(t, "ef search", got[1].Content)
}

// newTask builds a task record.
func newTask(title, description string) knowledge.Task {
	return knowledge.Task{Title: title, Description: description}
}
