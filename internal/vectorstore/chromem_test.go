package vectorstore

import (
	"context"
	"hash/fnv"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder produces deterministic unit vectors from text so
// identical texts are maximally similar.
type fakeEmbedder struct{}

func (fakeEmbedder) embed(text string) []float32 {
	const dims = 8
	vec := make([]float32, dims)
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()
	var norm float64
	for i := range vec {
		seed = seed*1664525 + 1013904223
		vec[i] = float32(seed%1000) / 1000.0
		norm += float64(vec[i]) * float64(vec[i])
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

func (f fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.embed(t)
	}
	return out, nil
}

func (f fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return f.embed(text), nil
}

func newTestStore(t *testing.T) *ChromemStore {
	t.Helper()
	store, err := NewChromemStore(ChromemConfig{
		Path:       t.TempDir(),
		Collection: "test_memory",
	}, fakeEmbedder{}, nil)
	require.NoError(t, err)
	return store
}

func TestChromemAddValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, nil)
	assert.ErrorIs(t, err, ErrEmptyDocuments)

	_, err = store.Add(ctx, []Document{{ID: "a", Content: "text"}})
	assert.ErrorIs(t, err, ErrMissingUser)

	_, err = store.Add(ctx, []Document{{UserID: "alice", Content: "text"}})
	assert.Error(t, err)
}

func TestChromemAddAndSearch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	docs := []Document{
		{ID: "m1", UserID: "alice", Content: "battery storage research",
			Metadata: map[string]string{"kind": "research_session"}},
		{ID: "m2", UserID: "alice", Content: "selected source about solar panels",
			Metadata: map[string]string{"kind": "source_preference"}},
		{ID: "m3", UserID: "bob", Content: "battery storage research"},
	}
	ids, err := store.Add(ctx, docs)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2", "m3"}, ids)

	results, err := store.Search(ctx, "alice", "battery storage research", 10, nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "m1", results[0].ID)
	for _, r := range results {
		assert.Equal(t, "alice", r.Metadata[userMetadataKey])
	}

	// Metadata filters narrow the result set.
	results, err = store.Search(ctx, "alice", "battery storage research", 10,
		map[string]string{"kind": "source_preference"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "m2", results[0].ID)
}

func TestChromemSearchRequiresUser(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Search(context.Background(), "", "query", 5, nil)
	assert.ErrorIs(t, err, ErrMissingUser)

	_, err = store.All(context.Background(), "", 5)
	assert.ErrorIs(t, err, ErrMissingUser)
}

func TestChromemSearchEmptyStore(t *testing.T) {
	store := newTestStore(t)

	results, err := store.Search(context.Background(), "alice", "anything", 5, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestChromemAllScopedToUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, []Document{
		{ID: "a1", UserID: "alice", Content: "first"},
		{ID: "a2", UserID: "alice", Content: "second"},
		{ID: "b1", UserID: "bob", Content: "third"},
	})
	require.NoError(t, err)

	results, err := store.All(ctx, "alice", 50)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	ids := map[string]bool{}
	for _, r := range results {
		ids[r.ID] = true
	}
	assert.True(t, ids["a1"])
	assert.True(t, ids["a2"])

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestChromemOverwriteByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, []Document{{ID: "m1", UserID: "alice", Content: "original"}})
	require.NoError(t, err)
	_, err = store.Add(ctx, []Document{{ID: "m1", UserID: "alice", Content: "updated"}})
	require.NoError(t, err)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := store.All(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "updated", results[0].Content)
}
