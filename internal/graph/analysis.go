package graph

import (
	"encoding/json"
	"fmt"
)

// GraphAnalysis aggregates the results of every graph algorithm.
// TopologicalOrder is nil when the graph is cyclic.
type GraphAnalysis struct {
	NodeCount        int          `json:"node_count"`
	EdgeCount        int          `json:"edge_count"`
	Components       int          `json:"components"`
	HasCycles        bool         `json:"has_cycles"`
	TopologicalOrder []string     `json:"topological_order"`
	Centrality       []Centrality `json:"centrality"`
}

// Centrality is a node's betweenness score. It encodes as a
// [label, score] pair.
type Centrality struct {
	Label string
	Score float64
}

// MarshalJSON implements json.Marshaler.
func (c Centrality) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{c.Label, c.Score})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Centrality) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("centrality: want [label, score], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &c.Label); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &c.Score)
}
