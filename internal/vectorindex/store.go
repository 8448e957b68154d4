package vectorindex

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"docqa/internal/util"
)

var ErrIndexNotFound = errors.New("vector index not found")

// Store persists one index blob per document under a root directory. The
// artifact path is derived from the document id alone, so reload needs only
// the id. The index is a derived artifact: losing it does not lose data,
// but the document must be re-uploaded to rebuild it.
type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

// Path is deterministic in the document id.
func (s *Store) Path(docID string) string {
	return filepath.Join(s.root, filepath.Base(docID)+".index")
}

// Persist serializes the index, fully overwriting any prior artifact for the
// same document id. The write is atomic so a concurrent load never sees a
// partial blob.
func (s *Store) Persist(idx *Index, docID string) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(idx); err != nil {
		return fmt.Errorf("encode index for %s: %w", docID, err)
	}
	if err := util.WriteFileAtomic(s.Path(docID), buf.Bytes()); err != nil {
		return fmt.Errorf("persist index for %s: %w", docID, err)
	}
	return nil
}

// Load reads a previously persisted index. A missing artifact is reported as
// ErrIndexNotFound, distinct from an empty or corrupt index.
func (s *Store) Load(docID string) (*Index, error) {
	f, err := os.Open(s.Path(docID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: document %s", ErrIndexNotFound, docID)
		}
		return nil, fmt.Errorf("open index for %s: %w", docID, err)
	}
	defer f.Close()

	var idx Index
	if err := gob.NewDecoder(f).Decode(&idx); err != nil {
		return nil, fmt.Errorf("decode index for %s: %w", docID, err)
	}
	return &idx, nil
}

// Delete removes the artifact for a document id. A missing artifact is not
// an error.
func (s *Store) Delete(docID string) error {
	if err := os.Remove(s.Path(docID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete index for %s: %w", docID, err)
	}
	return nil
}
