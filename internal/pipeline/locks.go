package pipeline

import "sync"

// ingestLocks serializes ingestion per document id without blocking other
// documents. Queries are intentionally not coordinated with ingestion; the
// persisted index is last-writer-wins.
type ingestLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newIngestLocks() *ingestLocks {
	return &ingestLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *ingestLocks) lock(docID string) func() {
	l.mu.Lock()
	m, ok := l.locks[docID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[docID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
