package rag

import (
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/sabia-ai/sabia/types"
)

func init() {
	// Metadata values cross the gob boundary as interfaces; register the
	// concrete types callers are expected to put in them.
	gob.Register(map[string]any{})
	gob.Register([]any{})
	gob.Register("")
	gob.Register(0)
	gob.Register(int64(0))
	gob.Register(uint(0))
	gob.Register(0.0)
	gob.Register(false)
}

type indexEntry struct {
	Vector   []float64
	Content  string
	Metadata Metadata
}

// FlatIndex is an append-only in-memory vector index with exhaustive cosine
// similarity search. The first insertion fixes the vector dimensionality for
// the index's lifetime. Safe for concurrent use: searches take a read lock,
// mutations an exclusive lock.
type FlatIndex struct {
	mu      sync.RWMutex
	dims    int
	entries []indexEntry
	logger  *zap.Logger
}

// NewFlatIndex creates an empty index.
func NewFlatIndex(logger *zap.Logger) *FlatIndex {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FlatIndex{logger: logger}
}

// Insert appends (vector, content, metadata) triples as one batch. The three
// slices must have equal length. Every vector must match the index dimension;
// on the first insertion into an empty index the dimension is taken from the
// first vector. A dimension or arity violation fails the whole batch without
// touching existing entries.
func (x *FlatIndex) Insert(vectors [][]float64, contents []string, metadatas []Metadata) error {
	if len(vectors) != len(contents) || len(vectors) != len(metadatas) {
		return types.NewError(types.ErrArityMismatch,
			fmt.Sprintf("mismatched batch sizes: %d vectors, %d contents, %d metadatas",
				len(vectors), len(contents), len(metadatas)))
	}
	if len(vectors) == 0 {
		return nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	dims := x.dims
	if dims == 0 {
		dims = len(vectors[0])
	}
	for i, vec := range vectors {
		if len(vec) != dims {
			return types.NewError(types.ErrDimensionMismatch,
				fmt.Sprintf("vector %d has dimension %d, index requires %d", i, len(vec), dims))
		}
	}

	x.dims = dims
	for i, vec := range vectors {
		x.entries = append(x.entries, indexEntry{
			Vector:   vec,
			Content:  contents[i],
			Metadata: metadatas[i],
		})
	}

	x.logger.Debug("entries inserted",
		zap.Int("count", len(vectors)),
		zap.Int("total", len(x.entries)))

	return nil
}

// Search returns up to k entries ranked by descending cosine similarity to
// query. Ties keep insertion order, earlier entries first. Returns an empty
// result for an empty index or k <= 0, and ErrDimensionMismatch when the
// query vector length disagrees with the index.
func (x *FlatIndex) Search(query []float64, k int) ([]SearchHit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if len(x.entries) == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != x.dims {
		return nil, types.NewError(types.ErrDimensionMismatch,
			fmt.Sprintf("query has dimension %d, index requires %d", len(query), x.dims))
	}

	hits := make([]SearchHit, 0, len(x.entries))
	for _, e := range x.entries {
		hits = append(hits, SearchHit{
			Content:  e.Content,
			Metadata: e.Metadata,
			Score:    cosineSimilarity(query, e.Vector),
		})
	}

	// Stable sort keeps insertion order among equal scores.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// Len returns the number of stored entries.
func (x *FlatIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Dimensions returns the fixed vector dimension, 0 while the index is empty.
func (x *FlatIndex) Dimensions() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.dims
}

// Clear discards all entries and releases the dimension so the next
// insertion fixes it again.
func (x *FlatIndex) Clear() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.entries = nil
	x.dims = 0
}

type indexSnapshot struct {
	Dims    int
	Entries []indexEntry
}

// Save writes a snapshot of the index to path. Best effort, not a durability
// guarantee.
func (x *FlatIndex) Save(path string) error {
	x.mu.RLock()
	snap := indexSnapshot{Dims: x.dims, Entries: x.entries}
	x.mu.RUnlock()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create index snapshot: %w", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(snap); err != nil {
		return fmt.Errorf("failed to encode index snapshot: %w", err)
	}
	return nil
}

// Load replaces the index contents with a snapshot previously written by
// Save. Loading a nonexistent path is a no-op, not an error.
func (x *FlatIndex) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open index snapshot: %w", err)
	}
	defer f.Close()

	var snap indexSnapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return fmt.Errorf("failed to decode index snapshot: %w", err)
	}

	x.mu.Lock()
	x.dims = snap.Dims
	x.entries = snap.Entries
	x.mu.Unlock()

	x.logger.Info("index snapshot loaded",
		zap.String("path", path),
		zap.Int("entries", len(snap.Entries)))

	return nil
}

// cosineSimilarity returns the cosine of the angle between a and b, 0 when
// either vector has zero norm. Assumes equal lengths.
func cosineSimilarity(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
