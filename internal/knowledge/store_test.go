package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	zerrors "github.com/wrath-codes/zenith/internal/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind(" Task ")
	assert.True(t, ok)
	assert.Equal(t, KindTask, k)

	_, ok = ParseKind("decision")
	assert.False(t, ok)
	assert.Len(t, AllKinds, 8)
}

func TestCreateFinding_AssignsPrefixedIDAndDefaults(t *testing.T) {
	s := newTestStore(t)

	f, err := s.CreateFinding(context.Background(), Finding{Content: "tokio spawn requires Send futures"})

	require.NoError(t, err)
	assert.Regexp(t, `^fnd-[0-9a-f]{8}$`, f.ID)
	assert.Equal(t, "medium", f.Confidence)
	assert.False(t, f.CreatedAt.IsZero())
}

func TestCreate_RejectsEmptyText(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateTask(ctx, Task{Title: "  "})
	require.Error(t, err)
	assert.Equal(t, zerrors.ErrCodeInvalidInput, zerrors.GetCode(err))

	_, err = s.CreateStudy(ctx, Study{})
	require.Error(t, err)
}

func TestSearchFindings_RankedMatches(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Given: three findings, two mentioning runtime
	_, err := s.CreateFinding(ctx, Finding{Content: "tokio runtime must be multi-threaded", Source: "docs"})
	require.NoError(t, err)
	_, err = s.CreateFinding(ctx, Finding{Content: "serde derives are slow to compile"})
	require.NoError(t, err)
	_, err = s.CreateFinding(ctx, Finding{Content: "runtime panics when nested runtime blocks"})
	require.NoError(t, err)

	// When: searching
	got, err := s.SearchFindings(ctx, "runtime", 10)

	// Then: only runtime findings return
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, f := range got {
		assert.Contains(t, f.Content, "runtime")
	}
}

func TestSearch_PorterStemming(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.CreateTask(ctx, Task{Title: "Retry failed connections", Description: "backoff"})
	require.NoError(t, err)

	got, err := s.SearchTasks(ctx, "connection", 10)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "backoff", got[0].Description)
}

func TestSearch_RespectsLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := s.CreateInsight(ctx, Insight{Content: "caching helps latency"})
		require.NoError(t, err)
	}

	got, err := s.SearchInsights(ctx, "caching", 3)

	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestSearch_SyntaxErrorIsNoMatch(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateIssue(context.Background(), Issue{Title: "parser crash"})
	require.NoError(t, err)

	got, err := s.SearchIssues(context.Background(), `"unbalanced`, 10)

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearch_UnknownColumnFilterIsNoMatch(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateIssue(context.Background(), Issue{Title: "parser crash"})
	require.NoError(t, err)

	got, err := s.SearchIssues(context.Background(), "bogus:crash", 10)

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIsFTSQueryError(t *testing.T) {
	tests := []struct {
		name  string
		err   string
		query string
		want  bool
	}{
		{"fts5 parse error", `SQL logic error: fts5: syntax error near "" (1)`, `"x`, true},
		{"unterminated string", "SQL logic error: unterminated string (1)", `"x`, true},
		{"column filter in query", "SQL logic error: no such column: bogus (1)", "bogus:crash", true},
		{"schema error", "SQL logic error: no such column: e.titel (1)", "crash", false},
		{"plain sql syntax error", `SQL logic error: near "FRM": syntax error (1)`, "crash", false},
		{"io error", "disk I/O error", "crash", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isFTSQueryError(errors.New(tt.err), tt.query))
		})
	}
}

func TestSearch_EachKindHasItsOwnTable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateHypothesis(ctx, Hypothesis{Content: "arena allocation is faster", Reason: "fewer frees"})
	require.NoError(t, err)
	_, err = s.CreateResearch(ctx, Research{Title: "arena allocators"})
	require.NoError(t, err)
	_, err = s.CreateStudy(ctx, Study{Topic: "arena design", Summary: "bump pointers"})
	require.NoError(t, err)

	hyps, err := s.SearchHypotheses(ctx, "arena", 10)
	require.NoError(t, err)
	assert.Len(t, hyps, 1)
	assert.Equal(t, "unverified", hyps[0].Status)

	res, err := s.SearchResearch(ctx, "arena", 10)
	require.NoError(t, err)
	assert.Len(t, res, 1)

	studies, err := s.SearchStudies(ctx, "arena", 10)
	require.NoError(t, err)
	require.Len(t, studies, 1)
	assert.Equal(t, "bump pointers", studies[0].Summary)

	tasks, err := s.SearchTasks(ctx, "arena", 10)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestCreate_WritesAuditEntry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	task, err := s.CreateTask(ctx, Task{Title: "wire bleve"})
	require.NoError(t, err)

	entries, err := s.SearchAudit(ctx, `"`+task.ID+`"`, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "task", entries[0].EntityType)
	assert.Equal(t, ActionCreated, entries[0].Action)

	var detail map[string]string
	require.NoError(t, json.Unmarshal(entries[0].Detail, &detail))
	assert.Equal(t, "wire bleve", detail["title"])
}

func TestCreateLink_ValidatesAndDeduplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateLink(ctx, "finding", "fnd-1", "hypothesis", "hyp-1", "explodes")
	require.Error(t, err)
	assert.True(t, errors.Is(err, zerrors.New(zerrors.ErrCodeInvalidRelation, "", nil)))

	first, err := s.CreateLink(ctx, "decision", "dec-1", "finding", "fnd-1", "supports")
	require.NoError(t, err)
	again, err := s.CreateLink(ctx, "decision", "dec-1", "finding", "fnd-1", "SUPPORTS")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	_, err = s.CreateLink(ctx, "finding", "fnd-1", "hypothesis", "hyp-1", "informs")
	require.NoError(t, err)

	links, err := s.ListLinks(ctx)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "dec-1", links[0].SourceID)
	assert.Equal(t, "informs", links[1].Relation)

	audits, err := s.SearchAudit(ctx, "linked", 10)
	require.NoError(t, err)
	assert.Len(t, audits, 2)
}

func TestOpen_PersistsToDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", DatabaseFile)
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.CreateFinding(ctx, Finding{Content: "persisted finding"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.SearchFindings(ctx, "persisted", 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestDocuments_CoversEveryKind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.CreateIssue(ctx, Issue{Title: "flaky test", Description: "timing"})
	require.NoError(t, err)

	docs, err := s.Documents(ctx)

	require.NoError(t, err)
	require.Len(t, docs, 2) // issue + its audit entry
	assert.Equal(t, KindIssue, docs[0].Kind)
	assert.Equal(t, "flaky test timing", docs[0].Text)
	assert.Equal(t, KindAudit, docs[1].Kind)
}
