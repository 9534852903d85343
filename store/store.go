// Package store provides database access to all persistent objects:
// conversations, messages, home events, user preferences, and semantic
// documents.
package store

import (
	"context"

	"github.com/ariahome/aria/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

// Migrate creates the schema if it does not exist yet. Idempotent; must be
// called once at startup before any other operation.
func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error) {
	return s.driver.CreateConversation(ctx, create)
}

func (s *Store) ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error) {
	return s.driver.ListConversations(ctx, find)
}

// GetConversationBySession returns the conversation for a session id, or nil
// when none exists.
func (s *Store) GetConversationBySession(ctx context.Context, sessionID string) (*Conversation, error) {
	list, err := s.driver.ListConversations(ctx, &FindConversation{SessionID: &sessionID})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) DeleteConversation(ctx context.Context, delete *DeleteConversation) error {
	return s.driver.DeleteConversation(ctx, delete)
}

func (s *Store) CreateMessage(ctx context.Context, create *Message) (*Message, error) {
	return s.driver.CreateMessage(ctx, create)
}

func (s *Store) ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error) {
	return s.driver.ListMessages(ctx, find)
}

func (s *Store) CreateHomeEvent(ctx context.Context, create *HomeEvent) (*HomeEvent, error) {
	return s.driver.CreateHomeEvent(ctx, create)
}

func (s *Store) ListHomeEvents(ctx context.Context, find *FindHomeEvent) ([]*HomeEvent, error) {
	return s.driver.ListHomeEvents(ctx, find)
}

func (s *Store) UpsertUserPreference(ctx context.Context, upsert *UserPreference) (*UserPreference, error) {
	return s.driver.UpsertUserPreference(ctx, upsert)
}

// GetUserPreference returns the preference for key, or nil when unknown.
func (s *Store) GetUserPreference(ctx context.Context, key string) (*UserPreference, error) {
	return s.driver.GetUserPreference(ctx, key)
}

// Stats returns row counts for the health/status surface.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	return s.driver.Stats(ctx)
}
