// Package pgstore implements checkpoint.Store on PostgreSQL, grounded
// on the teacher's store/postgres package: a DBPool interface
// abstraction over *pgxpool.Pool so tests can substitute pgxmock, JSONB
// state/metadata columns, and ON CONFLICT upserts. Adapted to this
// domain's thread_id/version composite key.
package pgstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentmap-go/agentmap/checkpoint"
)

// DBPool is the subset of *pgxpool.Pool this store depends on,
// abstracted so tests can substitute pgxmock.
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store implements checkpoint.Store using a PostgreSQL connection pool.
type Store struct {
	pool      DBPool
	tableName string
}

// Options configures the Postgres connection.
type Options struct {
	ConnString string
	TableName  string // default "checkpoints"
}

// New creates a Postgres checkpoint store, opening its own pool.
func New(ctx context.Context, opts Options) (*Store, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	return NewWithPool(pool, opts.TableName), nil
}

// NewWithPool wraps an existing DBPool, useful for mock-based testing
// or sharing a pool across multiple stores.
func NewWithPool(pool DBPool, tableName string) *Store {
	if tableName == "" {
		tableName = "checkpoints"
	}
	return &Store{pool: pool, tableName: tableName}
}

// InitSchema creates the checkpoints table if it does not exist.
func (s *Store) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			thread_id TEXT NOT NULL,
			version INTEGER NOT NULL,
			position TEXT NOT NULL,
			state JSONB NOT NULL,
			metadata JSONB,
			timestamp TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (thread_id, version)
		);
		CREATE INDEX IF NOT EXISTS idx_%s_thread_id ON %s (thread_id);
	`, s.tableName, s.tableName, s.tableName)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() { s.pool.Close() }

func (s *Store) Save(ctx context.Context, cp *checkpoint.Checkpoint) error {
	stateJSON, err := json.Marshal(cp.State)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	metadataJSON, err := json.Marshal(cp.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (thread_id, version, position, state, metadata, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (thread_id, version) DO UPDATE SET
			position = EXCLUDED.position,
			state = EXCLUDED.state,
			metadata = EXCLUDED.metadata,
			timestamp = EXCLUDED.timestamp
	`, s.tableName)

	_, err = s.pool.Exec(ctx, query, cp.ThreadID, cp.Version, cp.Position, stateJSON, metadataJSON, cp.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, threadID string) (*checkpoint.Checkpoint, error) {
	query := fmt.Sprintf(`
		SELECT thread_id, version, position, state, metadata, timestamp
		FROM %s WHERE thread_id = $1 ORDER BY version DESC LIMIT 1
	`, s.tableName)

	var cp checkpoint.Checkpoint
	var stateJSON, metadataJSON []byte

	err := s.pool.QueryRow(ctx, query, threadID).Scan(
		&cp.ThreadID, &cp.Version, &cp.Position, &stateJSON, &metadataJSON, &cp.Timestamp,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	return decode(&cp, stateJSON, metadataJSON)
}

func (s *Store) List(ctx context.Context, threadID string) ([]*checkpoint.Checkpoint, error) {
	query := fmt.Sprintf(`
		SELECT thread_id, version, position, state, metadata, timestamp
		FROM %s WHERE thread_id = $1 ORDER BY version ASC
	`, s.tableName)

	rows, err := s.pool.Query(ctx, query, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	defer rows.Close()

	var out []*checkpoint.Checkpoint
	for rows.Next() {
		var cp checkpoint.Checkpoint
		var stateJSON, metadataJSON []byte
		if err := rows.Scan(&cp.ThreadID, &cp.Version, &cp.Position, &stateJSON, &metadataJSON, &cp.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan checkpoint row: %w", err)
		}
		decoded, err := decode(&cp, stateJSON, metadataJSON)
		if err != nil {
			return nil, err
		}
		out = append(out, decoded)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating checkpoint rows: %w", err)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, threadID string, version int) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE thread_id = $1 AND version = $2", s.tableName)
	_, err := s.pool.Exec(ctx, query, threadID, version)
	if err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, threadID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE thread_id = $1", s.tableName)
	_, err := s.pool.Exec(ctx, query, threadID)
	if err != nil {
		return fmt.Errorf("failed to clear checkpoints: %w", err)
	}
	return nil
}

func decode(cp *checkpoint.Checkpoint, stateJSON, metadataJSON []byte) (*checkpoint.Checkpoint, error) {
	if err := json.Unmarshal(stateJSON, &cp.State); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &cp.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return cp, nil
}

var _ checkpoint.Store = (*Store)(nil)
