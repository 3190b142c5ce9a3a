package rag

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/sabia-ai/sabia/types"
)

func TestFlatIndex_InsertFixesDimension(t *testing.T) {
	x := NewFlatIndex(nil)
	assert.Equal(t, 0, x.Dimensions())

	err := x.Insert([][]float64{{1, 0, 0}}, []string{"a"}, []Metadata{nil})
	require.NoError(t, err)
	assert.Equal(t, 3, x.Dimensions())
	assert.Equal(t, 1, x.Len())
}

func TestFlatIndex_DimensionMismatch(t *testing.T) {
	x := NewFlatIndex(nil)
	require.NoError(t, x.Insert([][]float64{{1, 0, 0}}, []string{"a"}, []Metadata{nil}))

	err := x.Insert([][]float64{{1, 0}}, []string{"b"}, []Metadata{nil})
	require.Error(t, err)
	assert.Equal(t, types.ErrDimensionMismatch, types.GetErrorCode(err))
	// the failed batch must not corrupt existing entries
	assert.Equal(t, 1, x.Len())
}

func TestFlatIndex_DimensionMismatchWithinBatch(t *testing.T) {
	x := NewFlatIndex(nil)

	err := x.Insert(
		[][]float64{{1, 0}, {1, 0, 0}},
		[]string{"a", "b"},
		[]Metadata{nil, nil},
	)
	require.Error(t, err)
	assert.Equal(t, types.ErrDimensionMismatch, types.GetErrorCode(err))
	assert.Equal(t, 0, x.Len())
	assert.Equal(t, 0, x.Dimensions())
}

func TestFlatIndex_ArityMismatch(t *testing.T) {
	x := NewFlatIndex(nil)

	err := x.Insert([][]float64{{1}}, []string{"a", "b"}, []Metadata{nil})
	require.Error(t, err)
	assert.Equal(t, types.ErrArityMismatch, types.GetErrorCode(err))
}

func TestFlatIndex_SearchEmpty(t *testing.T) {
	x := NewFlatIndex(nil)

	hits, err := x.Search([]float64{1, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestFlatIndex_SearchNonPositiveK(t *testing.T) {
	x := NewFlatIndex(nil)
	require.NoError(t, x.Insert([][]float64{{1, 0}}, []string{"a"}, []Metadata{nil}))

	for _, k := range []int{0, -1} {
		hits, err := x.Search([]float64{1, 0}, k)
		require.NoError(t, err)
		assert.Empty(t, hits)
	}
}

func TestFlatIndex_SearchQueryDimensionMismatch(t *testing.T) {
	x := NewFlatIndex(nil)
	require.NoError(t, x.Insert([][]float64{{1, 0}}, []string{"a"}, []Metadata{nil}))

	_, err := x.Search([]float64{1, 0, 0}, 1)
	require.Error(t, err)
	assert.Equal(t, types.ErrDimensionMismatch, types.GetErrorCode(err))
}

func TestFlatIndex_SearchRanking(t *testing.T) {
	x := NewFlatIndex(nil)
	require.NoError(t, x.Insert(
		[][]float64{{1, 0}, {0, 1}, {0.7, 0.7}},
		[]string{"east", "north", "northeast"},
		[]Metadata{{"source": "e"}, {"source": "n"}, {"source": "ne"}},
	))

	hits, err := x.Search([]float64{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, "east", hits[0].Content)
	assert.Equal(t, "northeast", hits[1].Content)
	assert.Equal(t, "north", hits[2].Content)
	assert.Equal(t, Metadata{"source": "e"}, hits[0].Metadata)
	assert.Greater(t, hits[0].Score, hits[1].Score)
	assert.Greater(t, hits[1].Score, hits[2].Score)
}

func TestFlatIndex_TiesKeepInsertionOrder(t *testing.T) {
	x := NewFlatIndex(nil)
	vec := []float64{0.5, 0.5}
	require.NoError(t, x.Insert(
		[][]float64{vec, vec},
		[]string{"first inserted", "second inserted"},
		[]Metadata{nil, nil},
	))

	hits, err := x.Search(vec, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "first inserted", hits[0].Content)
	assert.Equal(t, "second inserted", hits[1].Content)
}

func TestFlatIndex_KBound(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(t, "n")
		k := rapid.IntRange(-2, 30).Draw(t, "k")

		x := NewFlatIndex(nil)
		for i := 0; i < n; i++ {
			v := []float64{float64(i), 1}
			require.NoError(t, x.Insert([][]float64{v}, []string{"entry"}, []Metadata{nil}))
		}

		hits, err := x.Search([]float64{1, 1}, k)
		require.NoError(t, err)

		bound := k
		if bound < 0 {
			bound = 0
		}
		assert.LessOrEqual(t, len(hits), bound)
		assert.LessOrEqual(t, len(hits), n)
	})
}

func TestFlatIndex_Clear(t *testing.T) {
	x := NewFlatIndex(nil)
	require.NoError(t, x.Insert([][]float64{{1, 0}}, []string{"a"}, []Metadata{nil}))

	x.Clear()
	assert.Equal(t, 0, x.Len())
	assert.Equal(t, 0, x.Dimensions())

	// dimension is released: a different shape is accepted after Clear
	require.NoError(t, x.Insert([][]float64{{1, 0, 0}}, []string{"b"}, []Metadata{nil}))
	assert.Equal(t, 3, x.Dimensions())
}

func TestFlatIndex_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.gob")

	x := NewFlatIndex(nil)
	require.NoError(t, x.Insert(
		[][]float64{{1, 0}, {0, 1}},
		[]string{"east", "north"},
		[]Metadata{{"source": "e", "page": 3}, {"source": "n"}},
	))
	require.NoError(t, x.Save(path))

	restored := NewFlatIndex(nil)
	require.NoError(t, restored.Load(path))

	assert.Equal(t, 2, restored.Len())
	assert.Equal(t, 2, restored.Dimensions())

	hits, err := restored.Search([]float64{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "east", hits[0].Content)
	assert.Equal(t, Metadata{"source": "e", "page": 3}, hits[0].Metadata)
}

func TestFlatIndex_LoadMissingPathIsNoOp(t *testing.T) {
	x := NewFlatIndex(nil)
	require.NoError(t, x.Insert([][]float64{{1, 0}}, []string{"a"}, []Metadata{nil}))

	require.NoError(t, x.Load(filepath.Join(t.TempDir(), "nope.gob")))
	assert.Equal(t, 1, x.Len())
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"zero vector", []float64{0, 0}, []float64{1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}
