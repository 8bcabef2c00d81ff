// Package graph analyzes the decision graph formed by entity links.
//
// Each link row becomes a directed edge between nodes labelled "type:id".
// A DecisionGraph is built fresh per request and is read-only once built;
// the algorithms are delegated to gonum.
package graph
