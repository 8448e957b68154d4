package rag

import (
	"context"
	"fmt"

	"docqa/internal/models"
	"docqa/internal/providers"
	"docqa/internal/vectorindex"
)

// Retriever embeds a question and ranks a document's indexed chunks against
// it. The same embedding provider used at index build time must be used at
// query time; a model mismatch is refused rather than returning undefined
// similarity results.
type Retriever struct {
	embedder providers.EmbeddingProvider
}

func NewRetriever(embedder providers.EmbeddingProvider) *Retriever {
	return &Retriever{embedder: embedder}
}

// Retrieve returns up to k chunk texts in descending similarity order. k is
// clamped to the default when outside the allowed range.
func (r *Retriever) Retrieve(ctx context.Context, idx *vectorindex.Index, question string, params models.SearchParams) ([]string, error) {
	k := params.EffectiveK()
	vectors, info, err := r.embedder.Embed(ctx, providers.EmbedRequest{
		Operation: "question_embed",
		Inputs:    []string{question},
	})
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedding provider returned no vectors")
	}
	if idx.EmbedModel != "" && info.Model != idx.EmbedModel {
		return nil, fmt.Errorf("index built with embedding model %q but queried with %q", idx.EmbedModel, info.Model)
	}
	return idx.Search(vectors[0], k), nil
}
