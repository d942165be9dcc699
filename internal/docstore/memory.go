package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore keeps documents in process memory. Scans run in key order.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string]map[string][]byte)}
}

func (s *MemoryStore) Table(name, keyAttr string) Table {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[name]; !ok {
		s.tables[name] = make(map[string][]byte)
	}

	return &memoryTable{store: s, name: name, keyAttr: keyAttr}
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) Close() error {
	return nil
}

type memoryTable struct {
	store   *MemoryStore
	name    string
	keyAttr string
}

func (t *memoryTable) Name() string { return t.name }

func (t *memoryTable) rows() map[string][]byte {
	return t.store.tables[t.name]
}

func (t *memoryTable) Get(ctx context.Context, key string) (Item, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	raw, ok := t.rows()[key]
	if !ok {
		return nil, ErrNotFound
	}

	return unmarshalItem(raw)
}

func (t *memoryTable) Put(ctx context.Context, key string, item Item) error {
	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("memory %s: put: %w", t.name, err)
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	if _, exists := t.rows()[key]; exists {
		return ErrConditionFailed
	}
	t.rows()[key] = raw

	return nil
}

func (t *memoryTable) Update(ctx context.Context, key string, changes Item) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	raw, ok := t.rows()[key]
	if !ok {
		return ErrNotFound
	}

	item, err := unmarshalItem(raw)
	if err != nil {
		return err
	}

	// values go through JSON so the stored shape matches the other backends
	normalized, err := Encode(changes)
	if err != nil {
		return err
	}
	for attr, value := range normalized {
		item[attr] = value
	}

	merged, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("memory %s: update: %w", t.name, err)
	}
	t.rows()[key] = merged

	return nil
}

func (t *memoryTable) Delete(ctx context.Context, key string) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	if _, ok := t.rows()[key]; !ok {
		return ErrNotFound
	}
	delete(t.rows(), key)

	return nil
}

func (t *memoryTable) Scan(ctx context.Context, filter Filter) ([]Item, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	var items []Item
	for _, key := range t.sortedKeys() {
		item, err := unmarshalItem(t.rows()[key])
		if err != nil {
			return nil, err
		}
		if matches(item, t.keyAttr, filter) {
			items = append(items, item)
		}
	}

	return items, nil
}

func (t *memoryTable) ScanPage(ctx context.Context, limit int, startAfter string) (Page, error) {
	if limit <= 0 {
		return Page{}, fmt.Errorf("memory %s: scan limit must be positive", t.name)
	}

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	keys := t.sortedKeys()
	start := 0
	if startAfter != "" {
		start = sort.SearchStrings(keys, startAfter)
		if start < len(keys) && keys[start] == startAfter {
			start++
		}
	}

	var page Page
	for _, key := range keys[start:] {
		if len(page.Items) == limit {
			page.More = true
			break
		}
		item, err := unmarshalItem(t.rows()[key])
		if err != nil {
			return Page{}, err
		}
		page.Items = append(page.Items, item)
		page.LastKey = key
	}

	if !page.More {
		page.LastKey = ""
	}

	return page, nil
}

func (t *memoryTable) sortedKeys() []string {
	keys := make([]string, 0, len(t.rows()))
	for key := range t.rows() {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func unmarshalItem(raw []byte) (Item, error) {
	var item Item
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("memory: corrupt item: %w", err)
	}
	return item, nil
}
