package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"docqa/internal/config"
	"docqa/internal/models"
	"docqa/internal/providers"
	"docqa/internal/vectorindex"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeDocStore struct {
	mu   sync.Mutex
	docs map[string]*models.Document
}

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{docs: make(map[string]*models.Document)}
}

func (s *fakeDocStore) add(d models.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := d
	s.docs[d.DocID] = &copied
}

func (s *fakeDocStore) GetDocument(_ context.Context, docID string) (models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[docID]
	if !ok {
		return models.Document{}, errors.New("document not found")
	}
	return *d, nil
}

func (s *fakeDocStore) SaveContent(_ context.Context, docID, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[docID]
	if !ok {
		return errors.New("document not found")
	}
	d.Content = content
	return nil
}

func (s *fakeDocStore) MarkProcessed(_ context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[docID]
	if !ok {
		return errors.New("document not found")
	}
	d.Processed = true
	return nil
}

type fakeChunkStore struct {
	mu     sync.Mutex
	chunks map[string][]string
}

func newFakeChunkStore() *fakeChunkStore {
	return &fakeChunkStore{chunks: make(map[string][]string)}
}

func (s *fakeChunkStore) ReplaceChunks(_ context.Context, docID string, texts []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[docID] = append([]string(nil), texts...)
	return nil
}

func newTestProcessor(t *testing.T) (*Processor, *fakeDocStore, *fakeChunkStore, config.Config) {
	t.Helper()
	cfg := config.Config{
		UploadRoot:   t.TempDir(),
		IndexRoot:    t.TempDir(),
		ChunkSize:    1000,
		ChunkOverlap: 200,
		EmbedDim:     32,
	}
	docs := newFakeDocStore()
	chunks := newFakeChunkStore()
	pm, err := providers.NewManager(config.Config{LLMProviders: "mock", EmbedProviders: "mock", EmbedDim: 32})
	require.NoError(t, err)
	proc := New(cfg, docs, chunks, vectorindex.NewStore(cfg.IndexRoot), pm)
	return proc, docs, chunks, cfg
}

func uploadTxt(t *testing.T, cfg config.Config, docs *fakeDocStore, content string) models.Document {
	t.Helper()
	doc := models.Document{
		DocID:    uuid.NewString(),
		Title:    "test document",
		FileType: "txt",
	}
	doc.Filename = doc.DocID + ".txt"
	require.NoError(t, os.WriteFile(filepath.Join(cfg.UploadRoot, doc.Filename), []byte(content), 0o644))
	docs.add(doc)
	return doc
}

func TestProcessThenAskAnswersFromDocument(t *testing.T) {
	proc, docs, chunks, cfg := newTestProcessor(t)
	doc := uploadTxt(t, cfg, docs, "The capital of France is Paris.")

	require.NoError(t, proc.Process(context.Background(), doc))

	stored, err := docs.GetDocument(context.Background(), doc.DocID)
	require.NoError(t, err)
	require.True(t, stored.Processed)
	require.Equal(t, "The capital of France is Paris.", stored.Content)

	require.Equal(t, []string{"The capital of France is Paris."}, chunks.chunks[doc.DocID])

	answer := proc.Ask(context.Background(), doc.DocID, "What is the capital of France?", models.SearchParams{K: 3})
	require.Contains(t, answer, "Paris")
}

func TestProcessUnsupportedTypeLeavesDocumentUnprocessed(t *testing.T) {
	proc, docs, chunks, cfg := newTestProcessor(t)
	doc := models.Document{DocID: uuid.NewString(), Title: "bad", FileType: "exe"}
	doc.Filename = doc.DocID + ".exe"
	require.NoError(t, os.WriteFile(filepath.Join(cfg.UploadRoot, doc.Filename), []byte("MZ"), 0o644))
	docs.add(doc)

	err := proc.Process(context.Background(), doc)
	require.Error(t, err)

	stored, getErr := docs.GetDocument(context.Background(), doc.DocID)
	require.NoError(t, getErr)
	require.False(t, stored.Processed)
	require.Empty(t, chunks.chunks[doc.DocID])

	// No index artifact was created either.
	answer := proc.Ask(context.Background(), doc.DocID, "anything", models.SearchParams{K: 3})
	require.Contains(t, answer, "Could not load document data")
}

func TestProcessExtractionFailureRetainsNoPartialState(t *testing.T) {
	proc, docs, _, cfg := newTestProcessor(t)
	doc := models.Document{DocID: uuid.NewString(), Title: "corrupt", FileType: "pdf"}
	doc.Filename = doc.DocID + ".pdf"
	require.NoError(t, os.WriteFile(filepath.Join(cfg.UploadRoot, doc.Filename), []byte("not a pdf"), 0o644))
	docs.add(doc)

	require.Error(t, proc.Process(context.Background(), doc))

	stored, err := docs.GetDocument(context.Background(), doc.DocID)
	require.NoError(t, err)
	require.False(t, stored.Processed)
	require.Empty(t, stored.Content)
}

func TestAskUnknownDocumentReturnsExplanationNotError(t *testing.T) {
	proc, _, _, _ := newTestProcessor(t)
	answer := proc.Ask(context.Background(), uuid.NewString(), "question", models.SearchParams{K: 3})
	require.Contains(t, answer, "Could not load document data")
}

func TestReprocessReplacesChunksAndIndex(t *testing.T) {
	proc, docs, chunks, cfg := newTestProcessor(t)
	doc := uploadTxt(t, cfg, docs, "Original content about apples.")
	require.NoError(t, proc.Process(context.Background(), doc))
	require.Equal(t, []string{"Original content about apples."}, chunks.chunks[doc.DocID])

	// Replace the stored file and run the pipeline again for the same id.
	require.NoError(t, os.WriteFile(filepath.Join(cfg.UploadRoot, doc.Filename), []byte("Replacement content about oranges."), 0o644))
	require.NoError(t, proc.Process(context.Background(), doc))

	require.Equal(t, []string{"Replacement content about oranges."}, chunks.chunks[doc.DocID])

	answer := proc.Ask(context.Background(), doc.DocID, "Replacement content about oranges.", models.SearchParams{K: 3})
	require.Contains(t, answer, "oranges")
	require.NotContains(t, answer, "apples")
}

func TestProcessEmptyFileYieldsZeroChunks(t *testing.T) {
	proc, docs, chunks, cfg := newTestProcessor(t)
	doc := uploadTxt(t, cfg, docs, "")

	require.NoError(t, proc.Process(context.Background(), doc))
	require.Empty(t, chunks.chunks[doc.DocID])

	stored, err := docs.GetDocument(context.Background(), doc.DocID)
	require.NoError(t, err)
	require.True(t, stored.Processed)
}

func TestCleanupRemovesIndexArtifact(t *testing.T) {
	proc, docs, _, cfg := newTestProcessor(t)
	doc := uploadTxt(t, cfg, docs, "Some content.")
	require.NoError(t, proc.Process(context.Background(), doc))

	require.NoError(t, proc.Cleanup(doc.DocID))
	answer := proc.Ask(context.Background(), doc.DocID, "anything", models.SearchParams{K: 3})
	require.Contains(t, answer, "Could not load document data")
}
