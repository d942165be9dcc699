// Package docstore is a small key-value document store abstraction with
// Postgres (JSONB), DynamoDB and in-memory backends.
//
// Every collection is keyed by a single string attribute. Documents are
// JSON-shaped maps; typed records are converted with Encode and Decode.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("docstore: item not found")
	ErrConditionFailed = errors.New("docstore: condition failed")
)

// Item is one stored document.
type Item map[string]any

// Filter selects items whose Attr equals Value. Items keyed by ExcludeKey
// are skipped when ExcludeKey is set.
type Filter struct {
	Attr       string
	Value      string
	ExcludeKey string
}

// Page is one bounded scan result. LastKey is set when More is true.
type Page struct {
	Items   []Item
	LastKey string
	More    bool
}

type Table interface {
	Name() string
	Get(ctx context.Context, key string) (Item, error)
	// Put creates the item and never overwrites: an existing key yields ErrConditionFailed.
	Put(ctx context.Context, key string, item Item) error
	// Update merges changes into the top-level attributes of an existing item.
	Update(ctx context.Context, key string, changes Item) error
	Delete(ctx context.Context, key string) error
	Scan(ctx context.Context, filter Filter) ([]Item, error)
	// ScanPage returns up to limit items in the backend's native order,
	// starting after startAfter when it is not empty.
	ScanPage(ctx context.Context, limit int, startAfter string) (Page, error)
}

type Store interface {
	Table(name, keyAttr string) Table
	Ping(ctx context.Context) error
	Close() error
}

// Encode converts a JSON-tagged record into an Item.
func Encode(v any) (Item, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode: %w", err)
	}

	var item Item
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("docstore: encode: %w", err)
	}

	return item, nil
}

// Decode fills out from item using the record's JSON tags.
func Decode(item Item, out any) error {
	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("docstore: decode: %w", err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("docstore: decode: %w", err)
	}

	return nil
}

func matches(item Item, keyAttr string, filter Filter) bool {
	value, ok := item[filter.Attr].(string)
	if !ok || value != filter.Value {
		return false
	}

	if filter.ExcludeKey != "" {
		if key, _ := item[keyAttr].(string); key == filter.ExcludeKey {
			return false
		}
	}

	return true
}
