package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ariahome/aria/store"
)

func (d *DB) CreateHomeEvent(ctx context.Context, create *store.HomeEvent) (*store.HomeEvent, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	data, err := marshalJSONMap(create.Data)
	if err != nil {
		return nil, err
	}

	fields := []string{"event_type", "source", "data", "created_ts"}
	args := []any{create.EventType, create.Source, data, create.CreatedTs}

	stmt := `INSERT INTO home_event (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create home_event: %w", err)
	}
	return create, nil
}

func (d *DB) ListHomeEvents(ctx context.Context, find *store.FindHomeEvent) ([]*store.HomeEvent, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.EventType != nil {
		where, args = append(where, "event_type = "+placeholder(len(args)+1)), append(args, *find.EventType)
	}
	if find.Source != nil {
		where, args = append(where, "source = "+placeholder(len(args)+1)), append(args, *find.Source)
	}

	query := `SELECT id, event_type, source, data, created_ts
		FROM home_event WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts DESC, id DESC`
	if find.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list home_events: %w", err)
	}
	defer rows.Close()

	list := make([]*store.HomeEvent, 0)
	for rows.Next() {
		e := &store.HomeEvent{}
		var data sql.NullString
		if err := rows.Scan(&e.ID, &e.EventType, &e.Source, &data, &e.CreatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan home_event: %w", err)
		}
		if e.Data, err = unmarshalJSONMap(data); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate home_events: %w", err)
	}
	return list, nil
}
