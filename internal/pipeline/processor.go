package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"

	"docqa/internal/chunker"
	"docqa/internal/config"
	"docqa/internal/extract"
	"docqa/internal/models"
	"docqa/internal/providers"
	"docqa/internal/rag"
	"docqa/internal/util"
	"docqa/internal/vectorindex"
)

// Processor runs the document ingestion and question-answering pipelines.
// One Processor is built at startup and shared across requests; it holds no
// per-request state.
type Processor struct {
	uploadRoot string
	docs       DocumentStore
	chunks     ChunkStore
	splitter   chunker.Splitter
	indexes    *vectorindex.Store
	embedder   providers.EmbeddingProvider
	llm        providers.LLMProvider
	retriever  *rag.Retriever
	composer   *rag.Composer
	locks      *ingestLocks
}

func New(cfg config.Config, docs DocumentStore, chunks ChunkStore, indexes *vectorindex.Store, pm *providers.Manager) *Processor {
	embedder := pm.FirstEmbedProvider()
	llm := pm.FirstLLMProvider()
	return &Processor{
		uploadRoot: cfg.UploadRoot,
		docs:       docs,
		chunks:     chunks,
		splitter:   chunker.New(cfg.ChunkSize, cfg.ChunkOverlap),
		indexes:    indexes,
		embedder:   embedder,
		llm:        llm,
		retriever:  rag.NewRetriever(embedder),
		composer:   rag.NewComposer(llm),
		locks:      newIngestLocks(),
	}
}

// Process ingests one document: extract, persist text, chunk, embed, persist
// the index, and only then flip the processed flag. On error the document is
// left unprocessed and the caller is expected to delete it; the pipeline
// itself never deletes records.
func (p *Processor) Process(ctx context.Context, doc models.Document) error {
	unlock := p.locks.lock(doc.DocID)
	defer unlock()

	path := util.SafeJoin(p.uploadRoot, doc.Filename)
	text, err := extract.Text(path, doc.FileType)
	if err != nil {
		return fmt.Errorf("process document %s: %w", doc.DocID, err)
	}
	text = util.SanitizeText(text)

	// Persist extracted text before the later stages so it survives a
	// downstream failure; the processed flag stays false until the index
	// is durable.
	if err := p.docs.SaveContent(ctx, doc.DocID, text); err != nil {
		return fmt.Errorf("process document %s: %w", doc.DocID, err)
	}

	texts, err := p.splitter.Split(text)
	if err != nil {
		return fmt.Errorf("process document %s: %w", doc.DocID, err)
	}
	if err := p.chunks.ReplaceChunks(ctx, doc.DocID, texts); err != nil {
		return fmt.Errorf("process document %s: %w", doc.DocID, err)
	}

	idx, err := vectorindex.Build(ctx, texts, p.embedder)
	if err != nil {
		return fmt.Errorf("process document %s: build index: %w", doc.DocID, err)
	}
	if err := p.indexes.Persist(idx, doc.DocID); err != nil {
		return fmt.Errorf("process document %s: %w", doc.DocID, err)
	}

	if err := p.docs.MarkProcessed(ctx, doc.DocID); err != nil {
		return fmt.Errorf("process document %s: %w", doc.DocID, err)
	}
	return nil
}

// Ask answers a question about a processed document. It always returns a
// displayable answer string; query-path failures become explanatory text
// rather than errors.
func (p *Processor) Ask(ctx context.Context, docID, question string, params models.SearchParams) string {
	idx, err := p.indexes.Load(docID)
	if err != nil {
		if errors.Is(err, vectorindex.ErrIndexNotFound) {
			return "Error: Could not load document data. Please ensure the document is properly processed."
		}
		log.Printf("load index for %s: %v", docID, err)
		return "Error: Could not load document data. Please ensure the document is properly processed."
	}

	retrieved, err := p.retriever.Retrieve(ctx, idx, question, params)
	if err != nil {
		log.Printf("retrieve for %s: %v", docID, err)
		return "Error processing question: could not search the document. Please try again."
	}

	return p.composer.Compose(ctx, question, retrieved)
}

// Cleanup removes any index artifact left behind for a document, for callers
// that delete the record after a failed ingestion.
func (p *Processor) Cleanup(docID string) error {
	return p.indexes.Delete(docID)
}
