// Package sqlitestore implements checkpoint.Store on SQLite, grounded
// on the teacher's store/sqlite package (mattn/go-sqlite3: INSERT ...
// ON CONFLICT DO UPDATE, JSON-text state/metadata columns).
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/agentmap-go/agentmap/checkpoint"
)

// Store implements checkpoint.Store using a SQLite database.
type Store struct {
	db        *sql.DB
	tableName string
}

// Options configures the SQLite connection.
type Options struct {
	Path      string
	TableName string // default "checkpoints"
}

// New opens (creating if necessary) a SQLite-backed checkpoint store.
func New(opts Options) (*Store, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "checkpoints"
	}
	s := &Store{db: db, tableName: tableName}
	if err := s.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			thread_id TEXT NOT NULL,
			version INTEGER NOT NULL,
			position TEXT NOT NULL,
			state TEXT NOT NULL,
			metadata TEXT,
			timestamp DATETIME NOT NULL,
			PRIMARY KEY (thread_id, version)
		);
		CREATE INDEX IF NOT EXISTS idx_%s_thread_id ON %s (thread_id);
	`, s.tableName, s.tableName, s.tableName)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

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
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(thread_id, version) DO UPDATE SET
			position = excluded.position,
			state = excluded.state,
			metadata = excluded.metadata,
			timestamp = excluded.timestamp
	`, s.tableName)

	_, err = s.db.ExecContext(ctx, query, cp.ThreadID, cp.Version, cp.Position, string(stateJSON), string(metadataJSON), cp.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, threadID string) (*checkpoint.Checkpoint, error) {
	query := fmt.Sprintf(`
		SELECT thread_id, version, position, state, metadata, timestamp
		FROM %s WHERE thread_id = ? ORDER BY version DESC LIMIT 1
	`, s.tableName)

	cp, stateJSON, metadataJSON, err := scanRow(s.db.QueryRowContext(ctx, query, threadID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	return decode(cp, stateJSON, metadataJSON)
}

func (s *Store) List(ctx context.Context, threadID string) ([]*checkpoint.Checkpoint, error) {
	query := fmt.Sprintf(`
		SELECT thread_id, version, position, state, metadata, timestamp
		FROM %s WHERE thread_id = ? ORDER BY version ASC
	`, s.tableName)

	rows, err := s.db.QueryContext(ctx, query, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	defer rows.Close()

	var out []*checkpoint.Checkpoint
	for rows.Next() {
		var cp checkpoint.Checkpoint
		var stateJSON, metadataJSON string
		if err := rows.Scan(&cp.ThreadID, &cp.Version, &cp.Position, &stateJSON, &metadataJSON, &cp.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan checkpoint row: %w", err)
		}
		decoded, err := decode(&cp, stateJSON, metadataJSON)
		if err != nil {
			return nil, err
		}
		out = append(out, decoded)
	}
	return out, rows.Err()
}

func (s *Store) Delete(ctx context.Context, threadID string, version int) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE thread_id = ? AND version = ?", s.tableName)
	_, err := s.db.ExecContext(ctx, query, threadID, version)
	if err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, threadID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE thread_id = ?", s.tableName)
	_, err := s.db.ExecContext(ctx, query, threadID)
	if err != nil {
		return fmt.Errorf("failed to clear checkpoints: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(row rowScanner) (*checkpoint.Checkpoint, string, string, error) {
	var cp checkpoint.Checkpoint
	var stateJSON, metadataJSON string
	err := row.Scan(&cp.ThreadID, &cp.Version, &cp.Position, &stateJSON, &metadataJSON, &cp.Timestamp)
	return &cp, stateJSON, metadataJSON, err
}

func decode(cp *checkpoint.Checkpoint, stateJSON, metadataJSON string) (*checkpoint.Checkpoint, error) {
	if err := json.Unmarshal([]byte(stateJSON), &cp.State); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal([]byte(metadataJSON), &cp.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return cp, nil
}

var _ checkpoint.Store = (*Store)(nil)
