package sqlite

import (
	"context"
	"errors"

	"github.com/ariahome/aria/store"
)

// Semantic vector search is NOT supported on SQLite. SQLite is intended for
// development/testing; production deployments use PostgreSQL with pgvector.
// On SQLite the application falls back to the in-memory vector store.

// ErrSemanticNotSupported is returned when semantic document persistence is
// requested on SQLite.
var ErrSemanticNotSupported = errors.New("semantic documents are not supported on SQLite; use PostgreSQL")

func (*DB) UpsertSemanticDocument(context.Context, *store.SemanticDocument) error {
	return ErrSemanticNotSupported
}

func (*DB) SearchSemanticDocuments(context.Context, *store.SearchSemanticDocuments) ([]*store.SemanticMatch, error) {
	return nil, ErrSemanticNotSupported
}

func (*DB) DeleteSemanticDocuments(context.Context, string, []string) error {
	return ErrSemanticNotSupported
}

func (*DB) CountSemanticDocuments(context.Context, string) (int, error) {
	return 0, ErrSemanticNotSupported
}
