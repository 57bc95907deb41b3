package store

import (
	"context"
	"errors"
	"fmt"
)

// Item is a single table row. Values are strings, numbers, string lists or bools.
type Item map[string]any

// Key identifies one item by its hash and optional range attribute.
type Key map[string]string

// ErrMissingKey is returned when an item lacks one of its key attributes.
var ErrMissingKey = errors.New("missing key attribute")

// Schema describes a table's name and primary key.
type Schema struct {
	Name     string
	HashKey  string
	RangeKey string
}

// KeyAttributes returns the key attribute names, hash first.
func (s Schema) KeyAttributes() []string {
	if s.RangeKey == "" {
		return []string{s.HashKey}
	}
	return []string{s.HashKey, s.RangeKey}
}

// KeyOf extracts the primary key of item.
func (s Schema) KeyOf(item Item) (Key, error) {
	key := Key{}
	for _, attr := range s.KeyAttributes() {
		v, ok := item[attr].(string)
		if !ok || v == "" {
			return nil, fmt.Errorf("%s: %w %s", s.Name, ErrMissingKey, attr)
		}
		key[attr] = v
	}
	return key, nil
}

// Table is a key-value table holding items of a single schema.
type Table interface {
	Schema() Schema
	Put(ctx context.Context, item Item) error
	Get(ctx context.Context, key Key) (Item, bool, error)
	Delete(ctx context.Context, key Key) error
	// DeleteIfExists deletes key only when it exists and reports whether it did.
	DeleteIfExists(ctx context.Context, key Key) (bool, error)
	// Scan returns every item of the table.
	Scan(ctx context.Context) ([]Item, error)
	HasItems(ctx context.Context) (bool, error)
}

// Store hands out tables of one backend.
type Store interface {
	Table(schema Schema) Table
	// Ensure creates the table when missing and reports whether it was created.
	Ensure(ctx context.Context, schema Schema) (bool, error)
	Close() error
}

// Clear deletes every item of t and returns how many were removed.
func Clear(ctx context.Context, t Table) (int, error) {
	items, err := t.Scan(ctx)
	if err != nil {
		return 0, fmt.Errorf("scan %s: %w", t.Schema().Name, err)
	}
	for i, item := range items {
		key, err := t.Schema().KeyOf(item)
		if err != nil {
			return i, err
		}
		if err := t.Delete(ctx, key); err != nil {
			return i, fmt.Errorf("delete from %s: %w", t.Schema().Name, err)
		}
	}
	return len(items), nil
}

// String returns the attribute as a string, or "" when absent or not a string.
func (i Item) String(attr string) string {
	s, _ := i[attr].(string)
	return s
}
