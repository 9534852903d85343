package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ariahome/aria/store"
)

func (d *DB) UpsertUserPreference(ctx context.Context, upsert *store.UserPreference) (*store.UserPreference, error) {
	upsert.UpdatedTs = time.Now().Unix()

	stmt := `INSERT INTO user_preference (key, value, updated_ts)
		VALUES (` + placeholders(3) + `)
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_ts = EXCLUDED.updated_ts`
	if _, err := d.db.ExecContext(ctx, stmt, upsert.Key, upsert.Value, upsert.UpdatedTs); err != nil {
		return nil, fmt.Errorf("failed to upsert user_preference: %w", err)
	}
	return upsert, nil
}

func (d *DB) GetUserPreference(ctx context.Context, key string) (*store.UserPreference, error) {
	pref := &store.UserPreference{}
	err := d.db.QueryRowContext(ctx,
		"SELECT key, value, updated_ts FROM user_preference WHERE key = ?", key).
		Scan(&pref.Key, &pref.Value, &pref.UpdatedTs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user_preference: %w", err)
	}
	return pref, nil
}
