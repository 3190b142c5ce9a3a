package rag

// Metadata is an opaque mapping carried alongside every chunk so results can
// be traced back to their source.
type Metadata map[string]any

// Clone returns a shallow copy. Each chunk carries its own copy of the source
// document's metadata.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Chunk is a bounded substring of a source document, the unit stored in the
// vector index.
type Chunk struct {
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata,omitempty"`
}

// SearchHit is a chunk returned by similarity search together with its
// cosine similarity score (higher is more similar).
type SearchHit struct {
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata,omitempty"`
	Score    float64  `json:"score"`
}
