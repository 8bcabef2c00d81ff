package search

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	zerrors "github.com/wrath-codes/zenith/internal/errors"
	"github.com/wrath-codes/zenith/internal/knowledge"
)

// FTSBridge queries one lexical index per entity kind and normalizes the
// rows into FtsSearchResult.
type FTSBridge struct {
	searcher knowledge.Searcher
}

// NewFTSBridge creates a bridge over searcher.
func NewFTSBridge(searcher knowledge.Searcher) *FTSBridge {
	return &FTSBridge{searcher: searcher}
}

// Search runs query against every selected kind concurrently and returns
// the batches concatenated in canonical kind order. Any kind failing fails
// the whole call.
func (b *FTSBridge) Search(ctx context.Context, query string, filters FtsSearchFilters) ([]FtsSearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, zerrors.InvalidQuery("search query must not be empty")
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = DefaultFTSLimit
	}
	kinds := resolveKinds(filters.EntityTypes)

	batches := make([][]FtsSearchResult, len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			batch, err := b.searchKind(gctx, kind, query, limit)
			if err != nil {
				return err
			}
			slog.Debug("fts_kind_searched",
				slog.String("kind", string(kind)),
				slog.Int("hits", len(batch)))
			batches[i] = batch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := []FtsSearchResult{}
	for _, batch := range batches {
		results = append(results, batch...)
	}
	return results, nil
}

// resolveKinds intersects the requested names with the closed kind list.
// Unknown names are dropped; an empty request selects every kind.
func resolveKinds(requested []string) []knowledge.EntityKind {
	if len(requested) == 0 {
		return knowledge.AllKinds
	}

	wanted := make(map[knowledge.EntityKind]bool, len(requested))
	for _, name := range requested {
		if k, ok := knowledge.ParseKind(name); ok {
			wanted[k] = true
		}
	}

	kinds := make([]knowledge.EntityKind, 0, len(wanted))
	for _, k := range knowledge.AllKinds {
		if wanted[k] {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

func (b *FTSBridge) searchKind(ctx context.Context, kind knowledge.EntityKind, query string, limit int) ([]FtsSearchResult, error) {
	s := b.searcher
	switch kind {
	case knowledge.KindFinding:
		rows, err := s.SearchFindings(ctx, query, limit)
		return rank(kind, rows, err, func(f knowledge.Finding) (string, *string, string) {
			return f.ID, nil, f.Content
		})
	case knowledge.KindHypothesis:
		rows, err := s.SearchHypotheses(ctx, query, limit)
		return rank(kind, rows, err, func(h knowledge.Hypothesis) (string, *string, string) {
			return h.ID, nil, h.Content
		})
	case knowledge.KindInsight:
		rows, err := s.SearchInsights(ctx, query, limit)
		return rank(kind, rows, err, func(in knowledge.Insight) (string, *string, string) {
			return in.ID, nil, in.Content
		})
	case knowledge.KindResearch:
		rows, err := s.SearchResearch(ctx, query, limit)
		return rank(kind, rows, err, func(r knowledge.Research) (string, *string, string) {
			return r.ID, &r.Title, r.Description
		})
	case knowledge.KindTask:
		rows, err := s.SearchTasks(ctx, query, limit)
		return rank(kind, rows, err, func(t knowledge.Task) (string, *string, string) {
			return t.ID, &t.Title, t.Description
		})
	case knowledge.KindIssue:
		rows, err := s.SearchIssues(ctx, query, limit)
		return rank(kind, rows, err, func(is knowledge.Issue) (string, *string, string) {
			return is.ID, &is.Title, is.Description
		})
	case knowledge.KindStudy:
		rows, err := s.SearchStudies(ctx, query, limit)
		return rank(kind, rows, err, func(st knowledge.Study) (string, *string, string) {
			return st.ID, &st.Topic, st.Summary
		})
	case knowledge.KindAudit:
		rows, err := s.SearchAudit(ctx, query, limit)
		return rank(kind, rows, err, func(a knowledge.AuditEntry) (string, *string, string) {
			if len(a.Detail) > 0 {
				return a.ID, nil, string(a.Detail)
			}
			return a.ID, nil, a.EntityID
		})
	default:
		return []FtsSearchResult{}, nil
	}
}

// rank maps rows to results, giving position i of n the relevance (n-i)/n.
func rank[T any](kind knowledge.EntityKind, rows []T, err error, project func(T) (id string, title *string, content string)) ([]FtsSearchResult, error) {
	if err != nil {
		return nil, err
	}

	n := float64(len(rows))
	out := make([]FtsSearchResult, len(rows))
	for i, row := range rows {
		id, title, content := project(row)
		out[i] = FtsSearchResult{
			EntityType: string(kind),
			EntityID:   id,
			Title:      title,
			Content:    content,
			Relevance:  (n - float64(i)) / n,
		}
	}
	return out, nil
}
