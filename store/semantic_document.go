package store

// SemanticDocument is an embedded text document in one of the semantic
// collections. DocID is unique within a collection, not globally; upserting
// an existing (collection, doc_id) pair replaces the previous row.
type SemanticDocument struct {
	Collection string
	DocID      string
	Document   string
	Metadata   map[string]any
	Embedding  []float32
	CreatedTs  int64
}

// SearchSemanticDocuments describes a nearest-neighbor query over one
// collection. Filter entries match metadata by equality.
type SearchSemanticDocuments struct {
	Collection string
	Embedding  []float32
	Limit      int
	Filter     map[string]any
}

// SemanticMatch is a retrieval result ranked by ascending cosine distance.
type SemanticMatch struct {
	DocID    string
	Document string
	Metadata map[string]any
	Distance float32
}
