package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/ariahome/aria/store"
)

// UpsertSemanticDocument inserts or replaces a document within a collection.
// Last write for a (collection, doc_id) pair wins.
func (d *DB) UpsertSemanticDocument(ctx context.Context, upsert *store.SemanticDocument) error {
	if upsert.CreatedTs == 0 {
		upsert.CreatedTs = time.Now().Unix()
	}
	metadata, err := marshalJSONMap(upsert.Metadata)
	if err != nil {
		return err
	}

	stmt := `INSERT INTO semantic_document (collection, doc_id, document, metadata, embedding, created_ts)
		VALUES (` + placeholders(6) + `)
		ON CONFLICT (collection, doc_id)
		DO UPDATE SET
			document = EXCLUDED.document,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding,
			created_ts = EXCLUDED.created_ts`
	if _, err := d.db.ExecContext(ctx, stmt,
		upsert.Collection,
		upsert.DocID,
		upsert.Document,
		metadata,
		pgvector.NewVector(upsert.Embedding),
		upsert.CreatedTs,
	); err != nil {
		return errors.Wrap(err, "failed to upsert semantic document")
	}
	return nil
}

// SearchSemanticDocuments returns the nearest documents by cosine distance,
// ascending. An empty collection yields an empty slice, not an error.
func (d *DB) SearchSemanticDocuments(ctx context.Context, search *store.SearchSemanticDocuments) ([]*store.SemanticMatch, error) {
	if search == nil {
		return nil, errors.New("search parameter cannot be nil")
	}

	where := []string{"collection = $1"}
	args := []any{search.Collection, pgvector.NewVector(search.Embedding)}

	if len(search.Filter) > 0 {
		filter, err := json.Marshal(search.Filter)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal metadata filter")
		}
		where = append(where, fmt.Sprintf("metadata @> $%d::jsonb", len(args)+1))
		args = append(args, string(filter))
	}

	query := `SELECT doc_id, document, metadata, embedding <=> $2 AS distance
		FROM semantic_document
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY distance ASC`
	limit := search.Limit
	if limit <= 0 {
		limit = 5
	}
	query += fmt.Sprintf(" LIMIT %d", limit)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search semantic documents")
	}
	defer rows.Close()

	list := make([]*store.SemanticMatch, 0)
	for rows.Next() {
		m := &store.SemanticMatch{}
		var metadata sql.NullString
		if err := rows.Scan(&m.DocID, &m.Document, &metadata, &m.Distance); err != nil {
			return nil, errors.Wrap(err, "failed to scan semantic match")
		}
		if m.Metadata, err = unmarshalJSONMap(metadata); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate semantic matches")
	}
	return list, nil
}

// DeleteSemanticDocuments removes documents by id. Unknown ids are a no-op.
func (d *DB) DeleteSemanticDocuments(ctx context.Context, collection string, docIDs []string) error {
	if len(docIDs) == 0 {
		return nil
	}

	args := []any{collection}
	holders := make([]string, len(docIDs))
	for i, id := range docIDs {
		holders[i] = placeholder(len(args) + 1)
		args = append(args, id)
	}

	stmt := `DELETE FROM semantic_document WHERE collection = $1 AND doc_id IN (` + strings.Join(holders, ", ") + `)`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to delete semantic documents")
	}
	return nil
}

func (d *DB) CountSemanticDocuments(ctx context.Context, collection string) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM semantic_document WHERE collection = $1", collection).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count semantic documents")
	}
	return count, nil
}
