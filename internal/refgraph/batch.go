package refgraph

import (
	"context"
	"encoding/json"
	"io"

	zerrors "github.com/wrath-codes/zenith/internal/errors"
)

// Batch is the wire form of one producer payload.
type Batch struct {
	Refs  []SymbolRefHit `json:"refs"`
	Edges []RefEdge      `json:"edges"`
}

// DecodeBatch reads a Batch from JSON.
func DecodeBatch(r io.Reader) (Batch, error) {
	var b Batch
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&b); err != nil {
		return Batch{}, zerrors.ValidationError("decode reference batch", err)
	}
	return b, nil
}

// Summary reports the size and category mix of a reference graph.
type Summary struct {
	Refs       int64            `json:"refs"`
	Edges      int64            `json:"edges"`
	Categories map[string]int64 `json:"categories"`
	// Signature is set when a lookup was requested and the ref exists.
	Signature *string `json:"signature,omitempty"`
}

// Summarize loads b into a fresh graph and reports on it. When lookup is
// non-empty its signature is included if present.
func Summarize(ctx context.Context, b Batch, lookup string) (Summary, error) {
	g, err := NewReferenceGraph()
	if err != nil {
		return Summary{}, err
	}
	defer g.Close()

	if err := g.Insert(ctx, b.Refs, b.Edges); err != nil {
		return Summary{}, err
	}

	var sum Summary
	if sum.Refs, err = g.RefCount(ctx); err != nil {
		return Summary{}, err
	}
	if sum.Edges, err = g.EdgeCount(ctx); err != nil {
		return Summary{}, err
	}
	if sum.Categories, err = g.CategoryCounts(ctx); err != nil {
		return Summary{}, err
	}
	if lookup != "" {
		sig, ok, err := g.LookupSignature(ctx, lookup)
		if err != nil {
			return Summary{}, err
		}
		if ok {
			sum.Signature = &sig
		}
	}
	return sum, nil
}
