package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"

	"docqa/internal/providers"
)

// Entry pairs a chunk's text with its embedding. Entries keep the chunk's
// original order so ranking ties resolve deterministically.
type Entry struct {
	Text   string
	Vector []float32
}

// Index is an exact nearest-neighbor index over one document's chunk
// embeddings. It records the embedding model that produced the vectors;
// querying with a different model is refused.
type Index struct {
	EmbedModel string
	Dim        int
	Entries    []Entry
}

// Build embeds every chunk in one provider call and assembles the in-memory
// index. Chunk order is preserved.
func Build(ctx context.Context, chunks []string, embedder providers.EmbeddingProvider) (*Index, error) {
	vectors, info, err := embedder.Embed(ctx, providers.EmbedRequest{
		Operation: "index_build",
		Inputs:    chunks,
	})
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}
	idx := &Index{EmbedModel: info.Model}
	for i, v := range vectors {
		if idx.Dim == 0 {
			idx.Dim = len(v)
		}
		if len(v) != idx.Dim {
			return nil, fmt.Errorf("embedding dimension mismatch at chunk %d: %d != %d", i, len(v), idx.Dim)
		}
		idx.Entries = append(idx.Entries, Entry{Text: chunks[i], Vector: v})
	}
	return idx, nil
}

// Len reports the number of indexed chunks.
func (idx *Index) Len() int {
	return len(idx.Entries)
}

type scored struct {
	pos   int
	score float64
}

// Search returns up to k chunk texts ranked by descending cosine similarity
// against the query vector. Ties break on original chunk order.
func (idx *Index) Search(query []float32, k int) []string {
	if k <= 0 || len(idx.Entries) == 0 {
		return nil
	}
	scores := make([]scored, 0, len(idx.Entries))
	for i, e := range idx.Entries {
		scores = append(scores, scored{pos: i, score: cosine(query, e.Vector)})
	}
	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].score > scores[b].score
	})
	if k > len(scores) {
		k = len(scores)
	}
	out := make([]string, 0, k)
	for _, s := range scores[:k] {
		out = append(out, idx.Entries[s.pos].Text)
	}
	return out
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
