// Package sqlite is a file-backed store used to run the functions locally without DynamoDB.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"tasnim.dev/aria-idc/internal/store"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS aria_tables (
	name TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS aria_items (
	table_name TEXT NOT NULL,
	item_key   TEXT NOT NULL,
	body       TEXT NOT NULL,
	PRIMARY KEY (table_name, item_key)
);`

// keySep joins hash and range values into a single column value.
const keySep = "\x1f"

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database file at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	// A single connection keeps writes serialized and makes ":memory:" usable.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating sqlite schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Table(schema store.Schema) store.Table {
	return &table{db: s.db, schema: schema}
}

func (s *Store) Ensure(ctx context.Context, schema store.Schema) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO aria_tables (name) VALUES (?) ON CONFLICT (name) DO NOTHING`, schema.Name)
	if err != nil {
		return false, fmt.Errorf("registering table %s: %w", schema.Name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type table struct {
	db     *sql.DB
	schema store.Schema
}

func (t *table) Schema() store.Schema { return t.schema }

func (t *table) encodeKey(key store.Key) (string, error) {
	parts := make([]string, 0, 2)
	for _, attr := range t.schema.KeyAttributes() {
		v, ok := key[attr]
		if !ok || v == "" {
			return "", fmt.Errorf("%s: %w %s", t.schema.Name, store.ErrMissingKey, attr)
		}
		parts = append(parts, v)
	}
	return strings.Join(parts, keySep), nil
}

func (t *table) Put(ctx context.Context, item store.Item) error {
	key, err := t.schema.KeyOf(item)
	if err != nil {
		return err
	}
	encoded, err := t.encodeKey(key)
	if err != nil {
		return err
	}
	body, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encoding item for %s: %w", t.schema.Name, err)
	}
	// ON CONFLICT keeps the original rowid so scans stay in first-insert order.
	_, err = t.db.ExecContext(ctx, `
		INSERT INTO aria_items (table_name, item_key, body) VALUES (?, ?, ?)
		ON CONFLICT (table_name, item_key) DO UPDATE SET body = excluded.body`,
		t.schema.Name, encoded, string(body))
	if err != nil {
		return fmt.Errorf("put into %s: %w", t.schema.Name, err)
	}
	return nil
}

func (t *table) Get(ctx context.Context, key store.Key) (store.Item, bool, error) {
	encoded, err := t.encodeKey(key)
	if err != nil {
		return nil, false, err
	}
	var body string
	err = t.db.QueryRowContext(ctx,
		`SELECT body FROM aria_items WHERE table_name = ? AND item_key = ?`,
		t.schema.Name, encoded).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get from %s: %w", t.schema.Name, err)
	}
	item, err := decode(body)
	if err != nil {
		return nil, false, fmt.Errorf("decoding item from %s: %w", t.schema.Name, err)
	}
	return item, true, nil
}

func (t *table) Delete(ctx context.Context, key store.Key) error {
	_, err := t.DeleteIfExists(ctx, key)
	return err
}

func (t *table) DeleteIfExists(ctx context.Context, key store.Key) (bool, error) {
	encoded, err := t.encodeKey(key)
	if err != nil {
		return false, err
	}
	res, err := t.db.ExecContext(ctx,
		`DELETE FROM aria_items WHERE table_name = ? AND item_key = ?`, t.schema.Name, encoded)
	if err != nil {
		return false, fmt.Errorf("delete from %s: %w", t.schema.Name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (t *table) Scan(ctx context.Context) ([]store.Item, error) {
	rows, err := t.db.QueryContext(ctx,
		`SELECT body FROM aria_items WHERE table_name = ? ORDER BY rowid`, t.schema.Name)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", t.schema.Name, err)
	}
	defer rows.Close()

	var items []store.Item
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.schema.Name, err)
		}
		item, err := decode(body)
		if err != nil {
			return nil, fmt.Errorf("decoding item from %s: %w", t.schema.Name, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (t *table) HasItems(ctx context.Context) (bool, error) {
	var exists bool
	err := t.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM aria_items WHERE table_name = ?)`, t.schema.Name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("counting %s: %w", t.schema.Name, err)
	}
	return exists, nil
}

func decode(body string) (store.Item, error) {
	var item store.Item
	if err := json.Unmarshal([]byte(body), &item); err != nil {
		return nil, err
	}
	return item, nil
}
