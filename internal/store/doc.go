// Package store persists the indexed symbol corpus: symbol and doc-chunk
// metadata in SQLite, their embeddings in an HNSW graph, and the lock that
// serializes writers of the data directory.
package store
