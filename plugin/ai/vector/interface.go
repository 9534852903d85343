// Package vector provides the semantic memory service: nearest-neighbor
// text retrieval over three named collections.
package vector

import "context"

// Collection names a logical semantic memory collection.
type Collection string

const (
	// CollectionConversations indexes past conversation snippets.
	CollectionConversations Collection = "conversations"
	// CollectionEvents indexes natural-language home event descriptions.
	CollectionEvents Collection = "events"
	// CollectionKnowledge indexes the general knowledge base.
	CollectionKnowledge Collection = "knowledge"
)

// QueryResult is a retrieval result ranked by ascending cosine distance.
type QueryResult struct {
	ID       string         `json:"id"`
	Document string         `json:"document"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Distance float32        `json:"distance"`
}

// SemanticStore is the semantic memory service interface.
// Document ids are unique per collection, not globally; re-adding an id
// replaces the previous document (last write wins).
type SemanticStore interface {
	// AddDocument embeds text and indexes it in the collection.
	AddDocument(ctx context.Context, collection Collection, id, text string, metadata map[string]any) error

	// Query returns up to n nearest documents, ascending by distance.
	// An empty collection yields an empty slice, never an error.
	Query(ctx context.Context, collection Collection, queryText string, n int, filter map[string]any) ([]QueryResult, error)

	// DeleteDocuments removes documents by id; unknown ids are a no-op.
	DeleteDocuments(ctx context.Context, collection Collection, ids []string) error

	// Count returns the number of documents in the collection.
	Count(ctx context.Context, collection Collection) (int, error)
}

// Embedder turns text into a vector. The embedding function itself is a
// black box supplied by the AI provider.
type Embedder interface {
	Embedding(ctx context.Context, text string) ([]float32, error)
}
