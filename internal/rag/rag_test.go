package rag

import (
	"context"
	"errors"
	"testing"

	"docqa/internal/models"
	"docqa/internal/providers"
	"docqa/internal/vectorindex"

	"github.com/stretchr/testify/require"
)

type failingLLM struct{}

func (failingLLM) Generate(context.Context, providers.GenerateRequest) (providers.GenerateResponse, providers.ProviderInfo, error) {
	return providers.GenerateResponse{}, providers.ProviderInfo{Name: "fail"}, errors.New("model unavailable")
}

type emptyLLM struct{}

func (emptyLLM) Generate(context.Context, providers.GenerateRequest) (providers.GenerateResponse, providers.ProviderInfo, error) {
	return providers.GenerateResponse{Text: "   "}, providers.ProviderInfo{Name: "empty"}, nil
}

func testIndex(t *testing.T, chunks []string) *vectorindex.Index {
	t.Helper()
	idx, err := vectorindex.Build(context.Background(), chunks, providers.NewMockProvider(32))
	require.NoError(t, err)
	return idx
}

func TestRetrieveClampsOutOfRangeK(t *testing.T) {
	chunks := []string{"a", "b", "c", "d", "e", "f"}
	idx := testIndex(t, chunks)
	r := NewRetriever(providers.NewMockProvider(32))

	for _, k := range []int{-1, 0, 1, 2, 6, 100} {
		got, err := r.Retrieve(context.Background(), idx, "a", models.SearchParams{K: k})
		require.NoError(t, err)
		require.Len(t, got, models.DefaultK, "k=%d should clamp to default", k)
	}
}

func TestRetrieveHonorsInRangeK(t *testing.T) {
	chunks := []string{"a", "b", "c", "d", "e", "f"}
	idx := testIndex(t, chunks)
	r := NewRetriever(providers.NewMockProvider(32))

	for k := models.MinK; k <= models.MaxK; k++ {
		got, err := r.Retrieve(context.Background(), idx, "a", models.SearchParams{K: k})
		require.NoError(t, err)
		require.Len(t, got, k)
	}
}

func TestRetrieveSmallIndexReturnsAll(t *testing.T) {
	idx := testIndex(t, []string{"only chunk"})
	r := NewRetriever(providers.NewMockProvider(32))

	got, err := r.Retrieve(context.Background(), idx, "anything", models.SearchParams{K: 3})
	require.NoError(t, err)
	require.Equal(t, []string{"only chunk"}, got)
}

func TestRetrieveRanksExactMatchFirst(t *testing.T) {
	chunks := []string{"filler one", "The capital of France is Paris.", "filler two"}
	idx := testIndex(t, chunks)
	r := NewRetriever(providers.NewMockProvider(32))

	got, err := r.Retrieve(context.Background(), idx, "The capital of France is Paris.", models.SearchParams{K: 3})
	require.NoError(t, err)
	require.Equal(t, "The capital of France is Paris.", got[0])
}

func TestRetrieveRejectsModelMismatch(t *testing.T) {
	idx := testIndex(t, []string{"a"})
	idx.EmbedModel = "some-other-model"
	r := NewRetriever(providers.NewMockProvider(32))

	_, err := r.Retrieve(context.Background(), idx, "a", models.SearchParams{K: 3})
	require.Error(t, err)
	require.Contains(t, err.Error(), "embedding model")
}

func TestComposeIncludesContextInPrompt(t *testing.T) {
	c := NewComposer(providers.NewMockProvider(32))
	answer := c.Compose(context.Background(), "What is the capital of France?", []string{"The capital of France is Paris."})
	require.Contains(t, answer, "Paris")
}

func TestComposeModelFailureReturnsExplanation(t *testing.T) {
	c := NewComposer(failingLLM{})
	answer := c.Compose(context.Background(), "anything", []string{"ctx"})
	require.NotEmpty(t, answer)
	require.Contains(t, answer, "Error processing question")
}

func TestComposeEmptyCompletionGetsFallbackText(t *testing.T) {
	c := NewComposer(emptyLLM{})
	answer := c.Compose(context.Background(), "anything", nil)
	require.Contains(t, answer, "not available")
}

func TestBuildPromptSubstitution(t *testing.T) {
	p := buildPrompt("Q?", []string{"first", "second"})
	require.Contains(t, p, "first\n\nsecond")
	require.Contains(t, p, "Question: Q?")
	require.NotContains(t, p, "{context}")
	require.NotContains(t, p, "{question}")
}
