package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// Store keeps entity documents in the entities table as JSONB.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// List returns every entity ordered by category, then name.
func (s *Store) List(ctx context.Context) ([]Doc, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT json(data) FROM entities ORDER BY category, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []Doc{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var d Doc
		if err := json.Unmarshal([]byte(data), &d); err != nil {
			return nil, fmt.Errorf("decoding entity: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *Store) Get(ctx context.Context, name string) (Doc, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM entities WHERE name = ?`, name,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Doc{}, ErrNotFound
	}
	if err != nil {
		return Doc{}, err
	}
	var d Doc
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return Doc{}, fmt.Errorf("decoding entity: %w", err)
	}
	return d, nil
}

// Put validates d and inserts or replaces it by name.
func (s *Store) Put(ctx context.Context, d Doc) error {
	if err := d.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO entities (name, category, data) VALUES (?, ?, jsonb(?))
		 ON CONFLICT(name) DO UPDATE SET category = excluded.category, data = excluded.data`,
		d.Name, d.Category, string(data),
	)
	return err
}

func (s *Store) Delete(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM entities WHERE name = ?`, name)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entities`).Scan(&n)
	return n, err
}

// Seed inserts docs when the table is empty. It reports whether anything was
// written.
func (s *Store) Seed(ctx context.Context, docs []Doc) (bool, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	for _, d := range docs {
		data, err := json.Marshal(d)
		if err != nil {
			return false, err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO entities (name, category, data) VALUES (?, ?, jsonb(?))`,
			d.Name, d.Category, string(data),
		); err != nil {
			return false, fmt.Errorf("seeding %q: %w", d.Name, err)
		}
	}
	return true, tx.Commit()
}
