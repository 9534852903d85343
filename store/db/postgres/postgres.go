package postgres

import (
	"context"
	"database/sql"
	"time"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/ariahome/aria/internal/profile"
	"github.com/ariahome/aria/store"
)

// PostgreSQL is the production driver. All features are fully supported,
// including semantic vector search via the pgvector extension.

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a PostgreSQL database for the given profile.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	db, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", profile.DSN)
	}

	// Single-home deployment: a small pool keeps resource usage low while
	// staying responsive.
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(2 * time.Hour)
	db.SetConnMaxIdleTime(15 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return &DB{
		db:      db,
		profile: profile,
	}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

const schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS conversation (
	id SERIAL PRIMARY KEY,
	session_id TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL DEFAULT '',
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS message (
	id SERIAL PRIMARY KEY,
	conversation_id INTEGER NOT NULL REFERENCES conversation (id) ON DELETE CASCADE,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	metadata JSONB,
	created_ts BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_message_conversation_id ON message (conversation_id);

CREATE TABLE IF NOT EXISTS home_event (
	id SERIAL PRIMARY KEY,
	event_type TEXT NOT NULL,
	source TEXT NOT NULL DEFAULT '',
	data JSONB,
	created_ts BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_home_event_event_type ON home_event (event_type);
CREATE INDEX IF NOT EXISTS idx_home_event_created_ts ON home_event (created_ts);

CREATE TABLE IF NOT EXISTS user_preference (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_ts BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS semantic_document (
	id SERIAL PRIMARY KEY,
	collection TEXT NOT NULL,
	doc_id TEXT NOT NULL,
	document TEXT NOT NULL,
	metadata JSONB,
	embedding vector NOT NULL,
	created_ts BIGINT NOT NULL,
	UNIQUE (collection, doc_id)
);

CREATE INDEX IF NOT EXISTS idx_semantic_document_collection ON semantic_document (collection);
`

// Migrate creates the schema if absent. Idempotent.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to apply schema")
	}
	return nil
}

func (d *DB) Stats(ctx context.Context) (*store.Stats, error) {
	stats := &store.Stats{}
	for _, q := range []struct {
		table string
		dst   *int
	}{
		{"conversation", &stats.Conversations},
		{"message", &stats.Messages},
		{"home_event", &stats.HomeEvents},
		{"user_preference", &stats.Preferences},
	} {
		if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+q.table).Scan(q.dst); err != nil {
			return nil, errors.Wrapf(err, "failed to count %s", q.table)
		}
	}
	return stats, nil
}
