package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that a store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Migrate creates the schema if absent. Idempotent.
	Migrate(ctx context.Context) error

	// Conversation model related methods.
	CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error)
	ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error)
	DeleteConversation(ctx context.Context, delete *DeleteConversation) error

	// Message model related methods.
	CreateMessage(ctx context.Context, create *Message) (*Message, error)
	ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error)

	// HomeEvent model related methods.
	CreateHomeEvent(ctx context.Context, create *HomeEvent) (*HomeEvent, error)
	ListHomeEvents(ctx context.Context, find *FindHomeEvent) ([]*HomeEvent, error)

	// UserPreference model related methods.
	UpsertUserPreference(ctx context.Context, upsert *UserPreference) (*UserPreference, error)
	GetUserPreference(ctx context.Context, key string) (*UserPreference, error)

	// SemanticDocument model related methods. Only the postgres driver
	// supports these; sqlite deployments use the in-memory vector store.
	UpsertSemanticDocument(ctx context.Context, upsert *SemanticDocument) error
	SearchSemanticDocuments(ctx context.Context, search *SearchSemanticDocuments) ([]*SemanticMatch, error)
	DeleteSemanticDocuments(ctx context.Context, collection string, docIDs []string) error
	CountSemanticDocuments(ctx context.Context, collection string) (int, error)

	// Stats returns row counts for the health/status surface.
	Stats(ctx context.Context) (*Stats, error)
}

// Stats holds row counts per entity kind.
type Stats struct {
	Conversations int `json:"conversations"`
	Messages      int `json:"messages"`
	HomeEvents    int `json:"home_events"`
	Preferences   int `json:"preferences"`
}
