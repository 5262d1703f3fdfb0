// Package kv implements the "kv" storage provider
// (agent/builtin.StorageAgent's ConfigureKVService) over SQLite,
// grounded on the teacher's store/sqlite/sqlite.go: a single table
// keyed by (collection, key), sql.Open("sqlite3", ...), and
// ON CONFLICT upserts, generalized from one fixed checkpoints schema
// to an arbitrary-collection document table since a key-value
// provider has no single fixed record shape to model columns after.
package kv

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/agentmap-go/agentmap/agent/builtin"
)

// Provider implements storageReader/storageWriter over a SQLite-backed
// key-value table. A "collection" groups keys into a namespace (e.g. a
// logical bucket); the document value is stored as JSON.
type Provider struct {
	db        *sql.DB
	tableName string
}

// Options configures the SQLite connection backing the provider.
type Options struct {
	Path      string
	TableName string // default "kv_documents"
}

// New opens (creating if necessary) a SQLite-backed kv provider.
func New(opts Options) (*Provider, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("storageprovider/kv: open database: %w", err)
	}
	tableName := opts.TableName
	if tableName == "" {
		tableName = "kv_documents"
	}
	p := &Provider{db: db, tableName: tableName}
	if err := p.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

func (p *Provider) initSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			collection TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (collection, key)
		);
	`, p.tableName)
	if _, err := p.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("storageprovider/kv: create schema: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (p *Provider) Close() error { return p.db.Close() }

// Read looks up a single key (params["key"]) within collection, or —
// when params carries no key — returns every document in collection
// keyed by its key.
func (p *Provider) Read(ctx context.Context, collection string, params map[string]any) (any, error) {
	if key, ok := params["key"].(string); ok && key != "" {
		return p.readOne(ctx, collection, key)
	}
	return p.readAll(ctx, collection)
}

func (p *Provider) readOne(ctx context.Context, collection, key string) (any, error) {
	query := fmt.Sprintf("SELECT value FROM %s WHERE collection = ? AND key = ?", p.tableName)
	var raw string
	err := p.db.QueryRowContext(ctx, query, collection, key).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("storageprovider/kv: no document %q in collection %q", key, collection)
		}
		return nil, fmt.Errorf("storageprovider/kv: read %q/%q: %w", collection, key, err)
	}
	return decode(raw)
}

func (p *Provider) readAll(ctx context.Context, collection string) (any, error) {
	query := fmt.Sprintf("SELECT key, value FROM %s WHERE collection = ?", p.tableName)
	rows, err := p.db.QueryContext(ctx, query, collection)
	if err != nil {
		return nil, fmt.Errorf("storageprovider/kv: read collection %q: %w", collection, err)
	}
	defer rows.Close()

	out := make(map[string]any)
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("storageprovider/kv: scan row in %q: %w", collection, err)
		}
		value, err := decode(raw)
		if err != nil {
			return nil, err
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storageprovider/kv: iterate collection %q: %w", collection, err)
	}
	return out, nil
}

// Write upserts data under params["key"] in collection. mode is
// accepted for interface symmetry with the other providers but every
// write is an upsert regardless of its value.
func (p *Provider) Write(ctx context.Context, collection string, data any, mode string, params map[string]any) (builtin.DocumentResult, error) {
	key, _ := params["key"].(string)
	if key == "" {
		return builtin.DocumentResult{}, fmt.Errorf("storageprovider/kv: write requires a 'key' parameter")
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return builtin.DocumentResult{}, fmt.Errorf("storageprovider/kv: marshal document %q/%q: %w", collection, key, err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (collection, key, value) VALUES (?, ?, ?)
		ON CONFLICT(collection, key) DO UPDATE SET value = excluded.value
	`, p.tableName)
	if _, err := p.db.ExecContext(ctx, query, collection, key, string(encoded)); err != nil {
		return builtin.DocumentResult{}, fmt.Errorf("storageprovider/kv: write %q/%q: %w", collection, key, err)
	}

	return builtin.DocumentResult{Success: true, FilePath: collection, Mode: mode}, nil
}

func decode(raw string) (any, error) {
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, fmt.Errorf("storageprovider/kv: decode stored document: %w", err)
	}
	return value, nil
}
