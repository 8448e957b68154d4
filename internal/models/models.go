package models

import "time"

type Document struct {
	DocID      string    `json:"document_id"`
	Title      string    `json:"title"`
	Filename   string    `json:"filename"`
	FileType   string    `json:"file_type"`
	Content    string    `json:"content,omitempty"`
	Processed  bool      `json:"processed"`
	UploadDate time.Time `json:"upload_date"`
}

type DocumentChunk struct {
	DocID      string    `json:"document_id"`
	ChunkIndex int       `json:"chunk_index"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// SearchParams carries query-time retrieval options. The only recognized
// option is K, the number of chunks to retrieve.
type SearchParams struct {
	K int `json:"k"`
}

const (
	MinK     = 3
	MaxK     = 5
	DefaultK = 3
)

// EffectiveK clamps out-of-range values to the default rather than rejecting
// them. The request boundary validates separately and rejects instead; the
// two layers are intentionally independent.
func (p SearchParams) EffectiveK() int {
	if p.K < MinK || p.K > MaxK {
		return DefaultK
	}
	return p.K
}
