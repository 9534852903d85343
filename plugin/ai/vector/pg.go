package vector

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ariahome/aria/store"
)

// PGStore is the production SemanticStore backed by the pgvector columns of
// the relational store.
type PGStore struct {
	store    *store.Store
	embedder Embedder
}

// NewPGStore creates a SemanticStore over the given store and embedder.
func NewPGStore(s *store.Store, embedder Embedder) *PGStore {
	return &PGStore{
		store:    s,
		embedder: embedder,
	}
}

func (p *PGStore) AddDocument(ctx context.Context, collection Collection, id, text string, metadata map[string]any) error {
	embedding, err := p.embedder.Embedding(ctx, text)
	if err != nil {
		return errors.Wrap(err, "failed to embed document")
	}
	return p.store.GetDriver().UpsertSemanticDocument(ctx, &store.SemanticDocument{
		Collection: string(collection),
		DocID:      id,
		Document:   text,
		Metadata:   metadata,
		Embedding:  embedding,
	})
}

func (p *PGStore) Query(ctx context.Context, collection Collection, queryText string, n int, filter map[string]any) ([]QueryResult, error) {
	embedding, err := p.embedder.Embedding(ctx, queryText)
	if err != nil {
		return nil, errors.Wrap(err, "failed to embed query")
	}

	matches, err := p.store.GetDriver().SearchSemanticDocuments(ctx, &store.SearchSemanticDocuments{
		Collection: string(collection),
		Embedding:  embedding,
		Limit:      n,
		Filter:     filter,
	})
	if err != nil {
		return nil, err
	}

	results := make([]QueryResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, QueryResult{
			ID:       m.DocID,
			Document: m.Document,
			Metadata: m.Metadata,
			Distance: m.Distance,
		})
	}
	return results, nil
}

func (p *PGStore) DeleteDocuments(ctx context.Context, collection Collection, ids []string) error {
	return p.store.GetDriver().DeleteSemanticDocuments(ctx, string(collection), ids)
}

func (p *PGStore) Count(ctx context.Context, collection Collection) (int, error) {
	return p.store.GetDriver().CountSemanticDocuments(ctx, string(collection))
}
