package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// quoteIdentifier quotes a table or column name for use in SQL text.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (s *Store) datasetsTable() string {
	return quoteIdentifier(s.prefix + "datasets")
}

func (s *Store) recordsTable() string {
	return quoteIdentifier(s.prefix + "dataset_records")
}

// schemaSQL returns the statements that create the snapshot tables.
func (s *Store) schemaSQL() []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	header TEXT NOT NULL,
	record_count INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);`, s.datasetsTable()),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	dataset_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	payload TEXT NOT NULL,
	PRIMARY KEY (dataset_id, position)
);`, s.recordsTable()),
	}
}

// tableExists checks sqlite_master for a table with the given unprefixed name.
func (s *Store) tableExists(ctx context.Context, r dbRunner, name string) (bool, error) {
	var found string
	err := r.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name = ?;", s.prefix+name).Scan(&found)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
