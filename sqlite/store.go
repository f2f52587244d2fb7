// Package sqlite stores dataset snapshots in a SQLite database so loaded
// tables survive restarts. Each dataset is one row in the datasets table and
// each record one JSON payload row keyed by its position.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/asaidimu/go-tabula/core/table"
	"go.uber.org/zap"
)

// ErrNotFound is returned for unknown dataset ids.
var ErrNotFound = errors.New("snapshot not found")

// dbRunner abstracts the methods shared by *sql.DB and *sql.Tx.
type dbRunner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// DatasetInfo describes a stored snapshot.
type DatasetInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Records   int       `json:"records"`
	CreatedAt time.Time `json:"createdAt"`
}

// Snapshot is a stored dataset with its table.
type Snapshot struct {
	DatasetInfo
	Table *table.Table `json:"-"`
}

// Store persists dataset snapshots.
type Store struct {
	db     *sql.DB
	prefix string
	logger *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithTablePrefix prefixes the names of the tables the store creates.
func WithTablePrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// NewStore wraps an open database. Call Migrate before first use.
func NewStore(db *sql.DB, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{db: db, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates the snapshot tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range s.schemaSQL() {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to execute SQL statement '%s': %w", stmt, err)
			}
		}
		return nil
	})
}

// Ready reports whether Migrate has created the snapshot tables.
func (s *Store) Ready(ctx context.Context) (bool, error) {
	for _, name := range []string{"datasets", "dataset_records"} {
		ok, err := s.tableExists(ctx, s.db, name)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// Save writes t under id, replacing any snapshot already stored there.
func (s *Store) Save(ctx context.Context, id, name string, t *table.Table) error {
	if t == nil {
		return fmt.Errorf("cannot save snapshot %s: nil table", id)
	}
	header, err := json.Marshal(t.Header)
	if err != nil {
		return fmt.Errorf("failed to encode header: %w", err)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.deleteRecords(ctx, tx, id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			fmt.Sprintf("INSERT OR REPLACE INTO %s (id, name, header, record_count, created_at) VALUES (?, ?, ?, ?, ?);",
				s.datasetsTable()),
			id, name, string(header), t.Len(), time.Now().UTC().UnixMilli())
		if err != nil {
			return fmt.Errorf("failed to insert dataset row: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx,
			fmt.Sprintf("INSERT INTO %s (dataset_id, position, payload) VALUES (?, ?, ?);", s.recordsTable()))
		if err != nil {
			return fmt.Errorf("failed to prepare record insert: %w", err)
		}
		defer stmt.Close()

		for i, rec := range t.Records {
			payload, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("failed to encode record %d: %w", i, err)
			}
			if _, err := stmt.ExecContext(ctx, id, i, string(payload)); err != nil {
				return fmt.Errorf("failed to insert record %d: %w", i, err)
			}
		}
		s.logger.Debug("Saved snapshot", zap.String("id", id), zap.Int("records", t.Len()))
		return nil
	})
}

// Load reads the snapshot stored under id with its records in original order.
func (s *Store) Load(ctx context.Context, id string) (*Snapshot, error) {
	info, header, err := s.info(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT payload FROM %s WHERE dataset_id = ? ORDER BY position;", s.recordsTable()), id)
	if err != nil {
		s.logger.Error("Failed to select records", zap.Error(err), zap.String("id", id))
		return nil, fmt.Errorf("failed to select records: %w", err)
	}
	defer rows.Close()

	records, err := readRecords(rows)
	if err != nil {
		return nil, err
	}
	return &Snapshot{DatasetInfo: *info, Table: table.New(header, records)}, nil
}

// List returns every stored snapshot, oldest first.
func (s *Store) List(ctx context.Context) ([]DatasetInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT id, name, record_count, created_at FROM %s ORDER BY created_at, id;", s.datasetsTable()))
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	out := []DatasetInfo{}
	for rows.Next() {
		var (
			info    DatasetInfo
			created int64
		)
		if err := rows.Scan(&info.ID, &info.Name, &info.Records, &created); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		info.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after scanning rows: %w", err)
	}
	return out, nil
}

// Delete removes the snapshot stored under id.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?;", s.datasetsTable()), id)
		if err != nil {
			return fmt.Errorf("failed to delete dataset row: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return s.deleteRecords(ctx, tx, id)
	})
}

// Optimize asks SQLite to refresh its query planner statistics.
func (s *Store) Optimize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA optimize;"); err != nil {
		return fmt.Errorf("failed to optimize database: %w", err)
	}
	return nil
}

func (s *Store) info(ctx context.Context, r dbRunner, id string) (*DatasetInfo, []string, error) {
	var (
		info    DatasetInfo
		header  string
		created int64
	)
	err := r.QueryRowContext(ctx,
		fmt.Sprintf("SELECT id, name, header, record_count, created_at FROM %s WHERE id = ?;", s.datasetsTable()), id).
		Scan(&info.ID, &info.Name, &header, &info.Records, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, nil, fmt.Errorf("failed to select dataset row: %w", err)
	}
	info.CreatedAt = time.UnixMilli(created).UTC()

	var fields []string
	if err := json.Unmarshal([]byte(header), &fields); err != nil {
		return nil, nil, fmt.Errorf("failed to decode header: %w", err)
	}
	return &info, fields, nil
}

func (s *Store) deleteRecords(ctx context.Context, r dbRunner, id string) error {
	if _, err := r.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE dataset_id = ?;", s.recordsTable()), id); err != nil {
		return fmt.Errorf("failed to delete records: %w", err)
	}
	return nil
}

// withTx runs fn in a transaction, committing on success.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("Rollback failed", zap.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// readRecords decodes one JSON payload column per row.
func readRecords(rows *sql.Rows) ([]table.Record, error) {
	records := []table.Record{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rec := table.Record{}
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after scanning rows: %w", err)
	}
	return records, nil
}
