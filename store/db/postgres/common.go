package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// placeholder returns a numbered placeholder for PostgreSQL ($1, $2, ...).
func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// placeholders returns n numbered placeholders.
func placeholders(n int) string {
	list := make([]string, n)
	for i := range list {
		list[i] = placeholder(i + 1)
	}
	return strings.Join(list, ", ")
}

// marshalJSONMap encodes a metadata map for a JSONB column, or nil for NULL.
func marshalJSONMap(m map[string]any) (any, error) {
	if m == nil {
		return nil, nil
	}
	buf, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal jsonb column")
	}
	return string(buf), nil
}

// unmarshalJSONMap decodes a nullable JSONB column.
func unmarshalJSONMap(raw sql.NullString) (map[string]any, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw.String), &m); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal jsonb column")
	}
	return m, nil
}
