package sqlite

import (
	"context"
	"database/sql"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"
	"github.com/pkg/errors"

	"github.com/ariahome/aria/internal/profile"
	"github.com/ariahome/aria/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a SQLite database for the given profile.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	// Foreign keys are required for the conversation -> message cascade.
	dsn := profile.DSN + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", profile.DSN)
	}

	// modernc.org/sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent writers.
	db.SetMaxOpenConns(1)

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
CREATE TABLE IF NOT EXISTS conversation (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL DEFAULT '',
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS message (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	conversation_id INTEGER NOT NULL REFERENCES conversation (id) ON DELETE CASCADE,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	metadata TEXT,
	created_ts BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_message_conversation_id ON message (conversation_id);

CREATE TABLE IF NOT EXISTS home_event (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	event_type TEXT NOT NULL,
	source TEXT NOT NULL DEFAULT '',
	data TEXT,
	created_ts BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_home_event_event_type ON home_event (event_type);
CREATE INDEX IF NOT EXISTS idx_home_event_created_ts ON home_event (created_ts);

CREATE TABLE IF NOT EXISTS user_preference (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_ts BIGINT NOT NULL
);
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
