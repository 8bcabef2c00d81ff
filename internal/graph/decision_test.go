package graph

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func link(srcType, srcID, dstType, dstID, relation string) Row {
	return Row{SourceType: srcType, SourceID: srcID, TargetType: dstType, TargetID: dstID, Relation: relation}
}

func chain() []Row {
	return []Row{
		link("decision", "dec-1", "finding", "fnd-1", "supports"),
		link("finding", "fnd-1", "hypothesis", "hyp-1", "informs"),
	}
}

type rowsFunc func(ctx context.Context) ([]Row, error)

func (f rowsFunc) LinkRows(ctx context.Context) ([]Row, error) { return f(ctx) }

func TestAnalyze_Chain(t *testing.T) {
	// Given: decision -> finding -> hypothesis
	dg := FromRows(chain())

	// When: the graph is analyzed
	a := dg.Analyze(1000)

	// Then: it is a single acyclic component
	assert.Equal(t, 3, a.NodeCount)
	assert.Equal(t, 2, a.EdgeCount)
	assert.Equal(t, 1, a.Components)
	assert.False(t, a.HasCycles)
	assert.Equal(t, []string{"decision:dec-1", "finding:fnd-1", "hypothesis:hyp-1"}, a.TopologicalOrder)
	require.Len(t, a.Centrality, 3)
	assert.Equal(t, Centrality{Label: "finding:fnd-1", Score: 1}, a.Centrality[0])
}

func TestShortestPath(t *testing.T) {
	dg := FromRows(chain())

	assert.Equal(t,
		[]string{"decision:dec-1", "finding:fnd-1", "hypothesis:hyp-1"},
		dg.ShortestPath("decision:dec-1", "hypothesis:hyp-1"))
	assert.Equal(t, []string{"finding:fnd-1"}, dg.ShortestPath("finding:fnd-1", "finding:fnd-1"))
}

func TestShortestPath_UnreachableOrUnknown(t *testing.T) {
	dg := FromRows(chain())

	assert.Nil(t, dg.ShortestPath("hypothesis:hyp-1", "decision:dec-1"), "edges are directed")
	assert.Nil(t, dg.ShortestPath("decision:dec-1", "task:tsk-9"))
	assert.Nil(t, dg.ShortestPath("task:tsk-9", "decision:dec-1"))
}

func TestShortestPath_PrefersFewerHops(t *testing.T) {
	dg := FromRows([]Row{
		link("task", "a", "task", "b", "blocks"),
		link("task", "b", "task", "c", "blocks"),
		link("task", "c", "task", "d", "blocks"),
		link("task", "a", "task", "d", "depends_on"),
	})

	assert.Equal(t, []string{"task:a", "task:d"}, dg.ShortestPath("task:a", "task:d"))
}

func TestCycle_TwoNodes(t *testing.T) {
	dg := FromRows([]Row{
		link("task", "tsk-1", "task", "tsk-2", "blocks"),
		link("task", "tsk-2", "task", "tsk-1", "blocks"),
	})

	order, ok := dg.TopologicalSort()
	assert.False(t, ok)
	assert.Nil(t, order)
	assert.True(t, dg.HasCycles())

	a := dg.Analyze(1000)
	assert.True(t, a.HasCycles)
	assert.Nil(t, a.TopologicalOrder)
}

func TestCycle_SelfLoop(t *testing.T) {
	// Given: an entity linked to itself
	dg := FromRows([]Row{link("task", "tsk-1", "task", "tsk-1", "relates_to")})

	// Then: it is one node and one edge, and it counts as a cycle
	assert.Equal(t, 1, dg.NodeCount())
	assert.Equal(t, 1, dg.EdgeCount())
	assert.True(t, dg.HasCycles())
	assert.Equal(t, 1, dg.ConnectedComponents())
}

func TestEdgeCount_CountsDuplicateRows(t *testing.T) {
	rows := append(chain(), chain()[0])

	dg := FromRows(rows)

	assert.Equal(t, 3, dg.NodeCount())
	assert.Equal(t, 3, dg.EdgeCount())
}

func TestConnectedComponents_IgnoresDirection(t *testing.T) {
	dg := FromRows([]Row{
		link("finding", "f1", "insight", "i1", "supports"),
		link("finding", "f2", "insight", "i1", "supports"),
		link("issue", "x1", "task", "t1", "triggers"),
	})

	assert.Equal(t, 2, dg.ConnectedComponents())
}

func TestCentrality_RanksByScoreThenLabel(t *testing.T) {
	// Given: a hub that every path crosses
	dg := FromRows([]Row{
		link("research", "r1", "study", "hub", "informs"),
		link("study", "hub", "finding", "b", "supports"),
		link("study", "hub", "finding", "a", "supports"),
	})

	got := dg.Centrality()

	// Then: the hub leads and the zero scores follow in label order
	require.Len(t, got, 4)
	assert.Equal(t, "study:hub", got[0].Label)
	assert.InDelta(t, 2.0, got[0].Score, 1e-9)
	assert.Equal(t, []string{"finding:a", "finding:b", "research:r1"},
		[]string{got[1].Label, got[2].Label, got[3].Label})
}

func TestCentrality_CountsParallelLinks(t *testing.T) {
	// Given: two links a->b, so two of the three shortest a->d paths cross b
	dg := FromRows([]Row{
		link("finding", "a", "finding", "b", "supports"),
		link("finding", "a", "finding", "b", "informs"),
		link("finding", "b", "finding", "d", "supports"),
		link("finding", "a", "finding", "c", "supports"),
		link("finding", "c", "finding", "d", "supports"),
	})

	got := dg.Centrality()

	// Then: b carries twice the betweenness of c
	require.Len(t, got, 4)
	assert.Equal(t, "finding:b", got[0].Label)
	assert.InDelta(t, 2.0/3.0, got[0].Score, 1e-9)
	assert.Equal(t, "finding:c", got[1].Label)
	assert.InDelta(t, 1.0/3.0, got[1].Score, 1e-9)
	assert.Equal(t, 5, dg.EdgeCount())
}

func TestCentrality_IgnoresSelfLoops(t *testing.T) {
	dg := FromRows(append(chain(), link("finding", "fnd-1", "finding", "fnd-1", "relates_to")))

	got := dg.Centrality()

	assert.Equal(t, "finding:fnd-1", got[0].Label)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
}

func TestAnalyze_SkipsCentralityAboveLimit(t *testing.T) {
	dg := FromRows(chain())

	a := dg.Analyze(2)

	assert.Equal(t, 3, a.NodeCount)
	assert.Empty(t, a.Centrality)
	assert.NotNil(t, a.Centrality)
}

func TestAnalyze_Empty(t *testing.T) {
	a := FromRows(nil).Analyze(10)

	assert.Zero(t, a.NodeCount)
	assert.Zero(t, a.Components)
	assert.False(t, a.HasCycles)
	assert.Empty(t, a.TopologicalOrder)
}

func TestFromSource(t *testing.T) {
	src := rowsFunc(func(context.Context) ([]Row, error) { return chain(), nil })

	dg, err := FromSource(context.Background(), src)

	require.NoError(t, err)
	assert.Equal(t, 3, dg.NodeCount())
	assert.Equal(t, "decision", dg.Nodes()[0].EntityType)
}

func TestFromSource_ReadFailureAborts(t *testing.T) {
	boom := errors.New("scan failed")
	src := rowsFunc(func(context.Context) ([]Row, error) { return nil, boom })

	dg, err := FromSource(context.Background(), src)

	assert.ErrorIs(t, err, boom)
	assert.Nil(t, dg)
}

func TestGraphAnalysis_JSON(t *testing.T) {
	cyclic := FromRows([]Row{
		link("task", "tsk-1", "task", "tsk-2", "blocks"),
		link("task", "tsk-2", "task", "tsk-1", "blocks"),
	}).Analyze(10)

	data, err := json.Marshal(cyclic)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"node_count": 2,
		"edge_count": 2,
		"components": 1,
		"has_cycles": true,
		"topological_order": null,
		"centrality": [["task:tsk-1", 0], ["task:tsk-2", 0]]
	}`, string(data))

	var back GraphAnalysis
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, cyclic.Centrality, back.Centrality)
}
