package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresStore keeps each collection in its own (pk TEXT, doc JSONB) table.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureTables creates the collection tables that do not exist yet.
func (s *PostgresStore) EnsureTables(ctx context.Context, names ...string) error {
	for _, name := range names {
		query := fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (pk TEXT PRIMARY KEY, doc JSONB NOT NULL)`,
			pq.QuoteIdentifier(name),
		)
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("postgres: create table %s: %w", name, err)
		}
	}
	return nil
}

func (s *PostgresStore) Table(name, keyAttr string) Table {
	return &postgresTable{
		db:      s.db,
		name:    name,
		ident:   pq.QuoteIdentifier(name),
		keyAttr: keyAttr,
	}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type postgresTable struct {
	db      *sqlx.DB
	name    string
	ident   string
	keyAttr string
}

type postgresRow struct {
	PK  string `db:"pk"`
	Doc []byte `db:"doc"`
}

func (t *postgresTable) Name() string { return t.name }

func (t *postgresTable) Get(ctx context.Context, key string) (Item, error) {
	query := fmt.Sprintf(`SELECT doc FROM %s WHERE pk = $1`, t.ident)

	var doc []byte
	err := t.db.GetContext(ctx, &doc, query, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("postgres %s: get: %w", t.name, err)
	}

	return decodeDoc(doc)
}

func (t *postgresTable) Put(ctx context.Context, key string, item Item) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (pk, doc) VALUES ($1, $2::jsonb) ON CONFLICT (pk) DO NOTHING`,
		t.ident,
	)

	doc, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("postgres %s: put: %w", t.name, err)
	}

	result, err := t.db.ExecContext(ctx, query, key, string(doc))
	if err != nil {
		return fmt.Errorf("postgres %s: put: %w", t.name, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres %s: put: %w", t.name, err)
	}

	if rowsAffected == 0 {
		return ErrConditionFailed
	}

	return nil
}

func (t *postgresTable) Update(ctx context.Context, key string, changes Item) error {
	query := fmt.Sprintf(`UPDATE %s SET doc = doc || $2::jsonb WHERE pk = $1`, t.ident)

	doc, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("postgres %s: update: %w", t.name, err)
	}

	result, err := t.db.ExecContext(ctx, query, key, string(doc))
	if err != nil {
		return fmt.Errorf("postgres %s: update: %w", t.name, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres %s: update: %w", t.name, err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (t *postgresTable) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE pk = $1`, t.ident)

	result, err := t.db.ExecContext(ctx, query, key)
	if err != nil {
		return fmt.Errorf("postgres %s: delete: %w", t.name, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres %s: delete: %w", t.name, err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (t *postgresTable) Scan(ctx context.Context, filter Filter) ([]Item, error) {
	query := fmt.Sprintf(
		`SELECT pk, doc FROM %s WHERE doc->>$1 = $2 AND pk <> $3 ORDER BY pk`,
		t.ident,
	)

	var rows []postgresRow
	if err := t.db.SelectContext(ctx, &rows, query, filter.Attr, filter.Value, filter.ExcludeKey); err != nil {
		return nil, fmt.Errorf("postgres %s: scan: %w", t.name, err)
	}

	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		item, err := decodeDoc(row.Doc)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, nil
}

func (t *postgresTable) ScanPage(ctx context.Context, limit int, startAfter string) (Page, error) {
	if limit <= 0 {
		return Page{}, fmt.Errorf("postgres %s: scan limit must be positive", t.name)
	}

	query := fmt.Sprintf(`SELECT pk, doc FROM %s WHERE pk > $1 ORDER BY pk LIMIT $2`, t.ident)

	// one extra row tells whether another page exists
	var rows []postgresRow
	if err := t.db.SelectContext(ctx, &rows, query, startAfter, limit+1); err != nil {
		return Page{}, fmt.Errorf("postgres %s: scan page: %w", t.name, err)
	}

	var page Page
	if len(rows) > limit {
		rows = rows[:limit]
		page.More = true
		page.LastKey = rows[len(rows)-1].PK
	}

	page.Items = make([]Item, 0, len(rows))
	for _, row := range rows {
		item, err := decodeDoc(row.Doc)
		if err != nil {
			return Page{}, err
		}
		page.Items = append(page.Items, item)
	}

	return page, nil
}

func decodeDoc(doc []byte) (Item, error) {
	var item Item
	if err := json.Unmarshal(doc, &item); err != nil {
		return nil, fmt.Errorf("postgres: corrupt document: %w", err)
	}
	return item, nil
}
