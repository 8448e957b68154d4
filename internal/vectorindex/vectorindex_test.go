package vectorindex

import (
	"context"
	"testing"

	"docqa/internal/providers"

	"github.com/stretchr/testify/require"
)

func buildTestIndex(t *testing.T, chunks []string) *Index {
	t.Helper()
	idx, err := Build(context.Background(), chunks, providers.NewMockProvider(32))
	require.NoError(t, err)
	return idx
}

func TestBuildPreservesChunkOrder(t *testing.T) {
	chunks := []string{"alpha", "beta", "gamma"}
	idx := buildTestIndex(t, chunks)
	require.Equal(t, 3, idx.Len())
	for i, e := range idx.Entries {
		require.Equal(t, chunks[i], e.Text)
		require.Equal(t, idx.Dim, len(e.Vector))
	}
	require.NotEmpty(t, idx.EmbedModel)
}

func TestSearchExactTextRanksFirst(t *testing.T) {
	chunks := []string{
		"The capital of France is Paris.",
		"Bananas are yellow fruit.",
		"Go is a statically typed language.",
	}
	idx := buildTestIndex(t, chunks)

	embedder := providers.NewMockProvider(32)
	vecs, _, err := embedder.Embed(context.Background(), providers.EmbedRequest{Inputs: []string{chunks[0]}})
	require.NoError(t, err)

	got := idx.Search(vecs[0], 3)
	require.Len(t, got, 3)
	require.Equal(t, chunks[0], got[0])
}

func TestSearchReturnsAtMostKAndAtMostLen(t *testing.T) {
	idx := buildTestIndex(t, []string{"one", "two"})
	query := idx.Entries[0].Vector

	require.Len(t, idx.Search(query, 1), 1)
	require.Len(t, idx.Search(query, 5), 2)
	require.Empty(t, idx.Search(query, 0))
}

func TestSearchIsDeterministic(t *testing.T) {
	idx := buildTestIndex(t, []string{"same text", "same text", "other"})
	query := idx.Entries[2].Vector

	a := idx.Search(query, 3)
	b := idx.Search(query, 3)
	require.Equal(t, a, b)
	// Tie between the two identical chunks resolves to original order.
	require.Equal(t, "same text", a[1])
	require.Equal(t, "same text", a[2])
}

func TestPersistLoadRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())
	chunks := []string{"The capital of France is Paris.", "Unrelated filler text."}
	idx := buildTestIndex(t, chunks)

	require.NoError(t, store.Persist(idx, "doc-1"))

	loaded, err := store.Load("doc-1")
	require.NoError(t, err)
	require.Equal(t, idx.EmbedModel, loaded.EmbedModel)
	require.Equal(t, idx.Len(), loaded.Len())

	embedder := providers.NewMockProvider(32)
	vecs, _, err := embedder.Embed(context.Background(), providers.EmbedRequest{Inputs: []string{chunks[0]}})
	require.NoError(t, err)
	got := loaded.Search(vecs[0], 1)
	require.Equal(t, chunks[0], got[0])
}

func TestPersistOverwritesPriorArtifact(t *testing.T) {
	store := NewStore(t.TempDir())
	old := buildTestIndex(t, []string{"old content"})
	require.NoError(t, store.Persist(old, "doc-1"))

	replacement := buildTestIndex(t, []string{"new content", "more new content"})
	require.NoError(t, store.Persist(replacement, "doc-1"))

	loaded, err := store.Load("doc-1")
	require.NoError(t, err)
	require.Equal(t, 2, loaded.Len())
	require.Equal(t, "new content", loaded.Entries[0].Text)
}

func TestLoadMissingIsNotFound(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.Load("never-uploaded")
	require.ErrorIs(t, err, ErrIndexNotFound)
}

func TestDeleteMissingIsNoError(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.Delete("absent"))
}
