package store

import (
	"bufio"
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"

	zerrors "github.com/wrath-codes/zenith/internal/errors"
)

// VectorsFile is the HNSW graph file inside the data directory. Its id
// mapping lives next to it with a ".meta" suffix.
const VectorsFile = "vectors.hnsw"

// VectorHit is one nearest-neighbour match. Score is cosine similarity in
// [-1, 1].
type VectorHit struct {
	ID    string
	Score float64
}

// HNSWConfig tunes the HNSW graph.
type HNSWConfig struct {
	Dimensions int
	M          int
	EfSearch   int
}

// HNSWStore is a cosine kNN index over symbol and doc-chunk embeddings,
// built on coder/hnsw. Replaced ids are orphaned in the graph rather than
// deleted, since removing the last node of a layer corrupts it.
type HNSWStore struct {
	mu    sync.RWMutex
	graph *hnsw.Graph[uint64]
	cfg   HNSWConfig

	ids     map[string]uint64
	keys    map[uint64]string
	nextKey uint64

	closed bool
}

type hnswMeta struct {
	IDs     map[string]uint64
	NextKey uint64
	Config  HNSWConfig
}

// NewHNSWStore creates an empty index.
func NewHNSWStore(cfg HNSWConfig) *HNSWStore {
	if cfg.M == 0 {
		cfg.M = 16
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = 20
	}
	g := hnsw.NewGraph[uint64]()
	g.Distance = hnsw.CosineDistance
	g.M = cfg.M
	g.EfSearch = cfg.EfSearch
	g.Ml = 0.25

	return &HNSWStore{
		graph: g,
		cfg:   cfg,
		ids:   make(map[string]uint64),
		keys:  make(map[uint64]string),
	}
}

func errClosed() error {
	return zerrors.New(zerrors.ErrCodeVectorStore, "vector store is closed", nil)
}

func (s *HNSWStore) checkDims(n int) error {
	if n != s.cfg.Dimensions {
		return zerrors.New(zerrors.ErrCodeDimensionMismatch,
			fmt.Sprintf("vector has %d dimensions, index expects %d", n, s.cfg.Dimensions), nil).
			WithSuggestion("Rebuild the index with 'zen index' after changing embeddings.dimensions")
	}
	return nil
}

// Add inserts or replaces vectors by id.
func (s *HNSWStore) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return zerrors.ValidationError(
			fmt.Sprintf("ids and vectors length mismatch: %d vs %d", len(ids), len(vectors)), nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed()
	}
	for _, v := range vectors {
		if err := s.checkDims(len(v)); err != nil {
			return err
		}
	}

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if old, ok := s.ids[id]; ok {
			delete(s.keys, old)
			delete(s.ids, id)
		}

		vec := make([]float32, len(vectors[i]))
		copy(vec, vectors[i])
		if !unit(vec) {
			slog.Debug("vector_skipped_zero", slog.String("id", id))
			continue
		}
		key := s.nextKey
		s.nextKey++
		s.graph.Add(hnsw.MakeNode(key, vec))

		s.ids[id] = key
		s.keys[key] = id
	}
	return nil
}

// Search returns up to k neighbours of query, most similar first.
func (s *HNSWStore) Search(ctx context.Context, query []float32, k int) ([]VectorHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errClosed()
	}
	if err := s.checkDims(len(query)); err != nil {
		return nil, err
	}
	if k <= 0 || len(s.ids) == 0 {
		return []VectorHit{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q := make([]float32, len(query))
	copy(q, query)
	if !unit(q) {
		// A zero vector has no direction to compare.
		return []VectorHit{}, nil
	}

	// Orphans still occupy result slots.
	orphans := s.graph.Len() - len(s.ids)
	nodes := s.graph.Search(q, k+orphans)

	hits := make([]VectorHit, 0, k)
	for _, n := range nodes {
		id, ok := s.keys[n.Key]
		if !ok {
			continue
		}
		hits = append(hits, VectorHit{
			ID:    id,
			Score: 1 - float64(s.graph.Distance(q, n.Value)),
		})
		if len(hits) == k {
			break
		}
	}
	return hits, nil
}

// Delete removes ids from the index. Unknown ids are ignored.
func (s *HNSWStore) Delete(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed()
	}
	for _, id := range ids {
		if key, ok := s.ids[id]; ok {
			delete(s.keys, key)
			delete(s.ids, id)
		}
	}
	return nil
}

// Contains reports whether id is indexed.
func (s *HNSWStore) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok && !s.closed
}

// AllIDs returns the live ids in no particular order.
func (s *HNSWStore) AllIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil
	}
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of live vectors.
func (s *HNSWStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0
	}
	return len(s.ids)
}

// Orphans returns the number of replaced or deleted nodes still in the graph.
func (s *HNSWStore) Orphans() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0
	}
	return s.graph.Len() - len(s.ids)
}

// Save writes the graph to path and the id mapping to path+".meta". Both
// are written to a temp file and renamed into place.
func (s *HNSWStore) Save(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errClosed()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerrors.New(zerrors.ErrCodeFileWrite, "create vector directory", err)
	}

	err := writeAtomic(path, func(f *os.File) error { return s.graph.Export(f) })
	if err != nil {
		return zerrors.New(zerrors.ErrCodeFileWrite, "save vector graph", err)
	}
	meta := hnswMeta{IDs: s.ids, NextKey: s.nextKey, Config: s.cfg}
	err = writeAtomic(path+".meta", func(f *os.File) error { return gob.NewEncoder(f).Encode(meta) })
	if err != nil {
		return zerrors.New(zerrors.ErrCodeFileWrite, "save vector metadata", err)
	}
	return nil
}

// Load replaces the index with the one saved at path. The saved dimensions
// must match the configured ones.
func (s *HNSWStore) Load(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed()
	}

	meta, err := readMeta(path + ".meta")
	if err != nil {
		return err
	}
	if err := s.checkDims(meta.Config.Dimensions); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return zerrors.IOError("open vector graph", err)
	}
	defer f.Close()
	// Import needs an io.ByteReader.
	if err := s.graph.Import(bufio.NewReader(f)); err != nil {
		return zerrors.New(zerrors.ErrCodeVectorStore, "import vector graph", err)
	}

	s.ids = meta.IDs
	s.nextKey = meta.NextKey
	s.keys = make(map[uint64]string, len(meta.IDs))
	for id, key := range meta.IDs {
		s.keys[key] = id
	}
	return nil
}

// Close releases the graph. It is idempotent.
func (s *HNSWStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.graph = nil
	return nil
}

// OpenHNSWStore loads the index under dataDir, or returns an empty one when
// none has been saved yet.
func OpenHNSWStore(dataDir string, dims int) (*HNSWStore, error) {
	s := NewHNSWStore(HNSWConfig{Dimensions: dims})
	path := filepath.Join(dataDir, VectorsFile)
	if _, err := os.Stat(path + ".meta"); os.IsNotExist(err) {
		return s, nil
	}
	if err := s.Load(path); err != nil {
		return nil, err
	}
	slog.Debug("vector_store_loaded", slog.String("path", path), slog.Int("vectors", s.Count()))
	return s, nil
}

func readMeta(path string) (hnswMeta, error) {
	var meta hnswMeta
	f, err := os.Open(path)
	if err != nil {
		return meta, zerrors.IOError("open vector metadata", err)
	}
	defer f.Close()
	if err := gob.NewDecoder(f).Decode(&meta); err != nil {
		return meta, zerrors.New(zerrors.ErrCodeVectorStore, "decode vector metadata", err)
	}
	return meta, nil
}

func writeAtomic(path string, write func(*os.File) error) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// unit scales v to length 1 and reports false for the zero vector.
func unit(v []float32) bool {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return false
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
	return true
}
