package sqlite

import (
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// placeholder returns a placeholder for SQLite (uses ?).
func placeholder(int) string {
	return "?"
}

// placeholders returns n placeholders for SQLite.
func placeholders(n int) string {
	list := make([]string, n)
	for i := range list {
		list[i] = placeholder(i + 1)
	}
	return strings.Join(list, ", ")
}

// marshalJSONMap encodes a metadata map for storage, or nil for NULL.
func marshalJSONMap(m map[string]any) (any, error) {
	if m == nil {
		return nil, nil
	}
	buf, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal json column")
	}
	return string(buf), nil
}

// unmarshalJSONMap decodes a nullable JSON column.
func unmarshalJSONMap(raw sql.NullString) (map[string]any, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw.String), &m); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal json column")
	}
	return m, nil
}
