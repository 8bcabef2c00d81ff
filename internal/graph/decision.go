package graph

import (
	"context"
	"log/slog"
	"sort"

	ggraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Row is one entity link as read from storage.
type Row struct {
	SourceType string
	SourceID   string
	TargetType string
	TargetID   string
	Relation   string
}

// LinkSource supplies the link rows a graph is built from.
type LinkSource interface {
	LinkRows(ctx context.Context) ([]Row, error)
}

// Node is an entity in the graph.
type Node struct {
	EntityType string
	EntityID   string
	Label      string
}

// Label returns the node key for an entity.
func Label(entityType, entityID string) string {
	return entityType + ":" + entityID
}

// DecisionGraph is a directed graph over linked entities.
type DecisionGraph struct {
	g     *simple.DirectedGraph
	nodes []Node // indexed by gonum node ID
	index map[string]int64

	// links counts link rows per ordered node pair. g holds one edge per
	// pair, so parallel links are only visible here.
	links     map[nodePair]int
	linkCount int

	// Self-loops cannot be stored in a simple graph, so they are counted here.
	selfLoops int
}

type nodePair struct{ from, to int64 }

// FromRows builds a graph from rows in order.
func FromRows(rows []Row) *DecisionGraph {
	dg := &DecisionGraph{
		g:     simple.NewDirectedGraph(),
		index: make(map[string]int64),
		links: make(map[nodePair]int),
	}
	for _, r := range rows {
		dg.add(r)
	}
	return dg
}

// FromSource reads all link rows from src and builds a graph. A read
// failure aborts construction.
func FromSource(ctx context.Context, src LinkSource) (*DecisionGraph, error) {
	rows, err := src.LinkRows(ctx)
	if err != nil {
		return nil, err
	}
	dg := FromRows(rows)
	slog.Debug("graph_built",
		slog.Int("nodes", dg.NodeCount()),
		slog.Int("edges", dg.EdgeCount()))
	return dg, nil
}

func (dg *DecisionGraph) add(r Row) {
	from := dg.node(r.SourceType, r.SourceID)
	to := dg.node(r.TargetType, r.TargetID)
	dg.linkCount++

	if from == to {
		dg.selfLoops++
		return
	}
	dg.links[nodePair{from, to}]++
	dg.g.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
}

func (dg *DecisionGraph) node(entityType, entityID string) int64 {
	label := Label(entityType, entityID)
	if id, ok := dg.index[label]; ok {
		return id
	}
	id := int64(len(dg.nodes))
	dg.nodes = append(dg.nodes, Node{EntityType: entityType, EntityID: entityID, Label: label})
	dg.index[label] = id
	dg.g.AddNode(simple.Node(id))
	return id
}

// NodeCount returns the number of distinct entities.
func (dg *DecisionGraph) NodeCount() int {
	return len(dg.nodes)
}

// EdgeCount returns the number of link rows, including duplicates and
// self-loops.
func (dg *DecisionGraph) EdgeCount() int {
	return dg.linkCount
}

// Nodes returns the nodes in insertion order.
func (dg *DecisionGraph) Nodes() []Node {
	out := make([]Node, len(dg.nodes))
	copy(out, dg.nodes)
	return out
}

// TopologicalSort returns node labels in dependency order. ok is false when
// the graph has a cycle. Ties are ordered by node insertion.
func (dg *DecisionGraph) TopologicalSort() (order []string, ok bool) {
	if dg.selfLoops > 0 {
		return nil, false
	}
	sorted, err := topo.SortStabilized(dg.g, nil)
	if err != nil {
		return nil, false
	}
	return dg.labels(sorted), true
}

// HasCycles reports whether the graph contains a cycle, self-loops included.
func (dg *DecisionGraph) HasCycles() bool {
	_, ok := dg.TopologicalSort()
	return !ok
}

// ShortestPath returns the unit-cost shortest path between two labels, or
// nil when either label is unknown or to is unreachable.
func (dg *DecisionGraph) ShortestPath(from, to string) []string {
	u, ok := dg.index[from]
	if !ok {
		return nil
	}
	v, ok := dg.index[to]
	if !ok {
		return nil
	}
	nodes, _ := path.DijkstraFrom(dg.g.Node(u), dg.g).To(v)
	if len(nodes) == 0 {
		return nil
	}
	return dg.labels(nodes)
}

// ConnectedComponents returns the number of weakly connected components.
func (dg *DecisionGraph) ConnectedComponents() int {
	return len(topo.ConnectedComponents(ggraph.Undirect{G: dg.g}))
}

// Centrality returns the betweenness of every node, highest first. Equal
// scores are ordered by label. Scores are not normalized, and each parallel
// link between two nodes counts as a separate shortest path.
func (dg *DecisionGraph) Centrality() []Centrality {
	scores := dg.betweenness()

	out := make([]Centrality, len(dg.nodes))
	for id, n := range dg.nodes {
		out[id] = Centrality{Label: n.Label, Score: scores[id]}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// betweenness runs Brandes' algorithm over unit-length paths. Path counts
// are multiplied by the number of links joining each pair.
func (dg *DecisionGraph) betweenness() []float64 {
	n := len(dg.nodes)
	succ := make([][]int64, n)
	for p := range dg.links {
		succ[p.from] = append(succ[p.from], p.to)
	}
	for _, s := range succ {
		sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
	}

	cb := make([]float64, n)
	sigma := make([]float64, n)
	delta := make([]float64, n)
	dist := make([]int, n)
	preds := make([][]int64, n)
	for s := int64(0); s < int64(n); s++ {
		for i := range dist {
			dist[i] = -1
			sigma[i] = 0
			delta[i] = 0
			preds[i] = preds[i][:0]
		}
		dist[s] = 0
		sigma[s] = 1

		stack := make([]int64, 0, n)
		queue := []int64{s}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)
			for _, w := range succ[v] {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v] * float64(dg.links[nodePair{v, w}])
					preds[w] = append(preds[w], v)
				}
			}
		}

		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range preds[w] {
				delta[v] += sigma[v] * float64(dg.links[nodePair{v, w}]) / sigma[w] * (1 + delta[w])
			}
			if w != s {
				cb[w] += delta[w]
			}
		}
	}
	return cb
}

// Analyze runs every analysis. Centrality is skipped when the graph has more
// than maxNodesForCentrality nodes.
func (dg *DecisionGraph) Analyze(maxNodesForCentrality int) GraphAnalysis {
	order, ok := dg.TopologicalSort()

	centrality := []Centrality{}
	if dg.NodeCount() <= maxNodesForCentrality {
		centrality = dg.Centrality()
	} else {
		slog.Debug("centrality_skipped",
			slog.Int("nodes", dg.NodeCount()),
			slog.Int("max_nodes", maxNodesForCentrality))
	}

	return GraphAnalysis{
		NodeCount:        dg.NodeCount(),
		EdgeCount:        dg.EdgeCount(),
		Components:       dg.ConnectedComponents(),
		HasCycles:        !ok,
		TopologicalOrder: order,
		Centrality:       centrality,
	}
}

func (dg *DecisionGraph) labels(nodes []ggraph.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = dg.nodes[n.ID()].Label
	}
	return out
}
