package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/studyhub-tz/studyhub/internal/common"
	"github.com/studyhub-tz/studyhub/internal/server/store/migrations"
)

// PostgresStore keeps every collection in one documents table with a
// JSONB doc column, so new collections need no schema work.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to PostgreSQL, applies migrations and
// returns the store.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

func (s *PostgresStore) Close() error { return s.db.Close() }

func (s *PostgresStore) FetchAll(ctx context.Context, collection string, filter *Filter) ([]json.RawMessage, error) {
	query := `SELECT doc FROM documents WHERE collection = $1`
	args := []any{collection}
	if filter != nil {
		query += ` AND doc->>$2 = $3`
		args = append(args, filter.Field, filter.Value)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []json.RawMessage
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		result = append(result, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	query := `SELECT doc FROM documents WHERE collection = $1 AND id = $2`

	var doc []byte
	err := s.db.QueryRowContext(ctx, query, collection, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, collection, id string, doc json.RawMessage) error {
	query := `
		INSERT INTO documents (collection, id, doc)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE SET doc = excluded.doc, updated_at = now()`

	if _, err := s.db.ExecContext(ctx, query, collection, id, string(doc)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateField(ctx context.Context, collection, id, field string, value any) error {
	v, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode value: %w", err)
	}

	query := `
		UPDATE documents
		SET doc = jsonb_set(doc, ARRAY[$3], $4::jsonb, true), updated_at = now()
		WHERE collection = $1 AND id = $2`

	res, err := s.db.ExecContext(ctx, query, collection, id, field, string(v))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	query := `DELETE FROM documents WHERE collection = $1 AND id = $2`
	if _, err := s.db.ExecContext(ctx, query, collection, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
