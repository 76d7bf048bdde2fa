package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/studyhub-tz/studyhub/internal/common"
	"github.com/studyhub-tz/studyhub/internal/dbx"
)

// Schema describes how one entity type maps onto its cache table: the
// table name, the entity's id, and the mirror columns extracted from the
// document for filtering and ordering. The document itself is stored as
// a JSON blob in the doc column and is the authoritative copy; mirror
// columns exist only so WHERE and ORDER BY clauses have something to
// index.
type Schema[T any] struct {
	Table   string
	ID      func(*T) string
	Columns []string
	Values  func(*T) []any
}

// Table is a generic cache table over the capability set
// {get, upsert, delete, query, watch}. One instance per entity type,
// all sharing the same database handle and change hub.
type Table[T any] struct {
	db     *sql.DB
	hub    *Hub
	schema Schema[T]
}

func NewTable[T any](db *sql.DB, hub *Hub, schema Schema[T]) *Table[T] {
	return &Table[T]{db: db, hub: hub, schema: schema}
}

// Name returns the underlying table name.
func (t *Table[T]) Name() string { return t.schema.Table }

func (t *Table[T]) upsertQuery() string {
	cols := append([]string{"id"}, t.schema.Columns...)
	cols = append(cols, "doc")

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")

	var updates []string
	for _, c := range cols[1:] {
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", c, c))
	}

	return fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s`,
		t.schema.Table, strings.Join(cols, ", "), placeholders, strings.Join(updates, ", "),
	)
}

func (t *Table[T]) upsertArgs(e *T) ([]any, error) {
	doc, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s document: %w", t.schema.Table, err)
	}
	args := append([]any{t.schema.ID(e)}, t.schema.Values(e)...)
	return append(args, string(doc)), nil
}

// Upsert inserts or fully replaces the row keyed by the entity's id.
// A replace resets every field to the incoming document's values,
// including fields the incoming document left at their zero value.
func (t *Table[T]) Upsert(ctx context.Context, e *T) error {
	args, err := t.upsertArgs(e)
	if err != nil {
		return err
	}
	if _, err := t.db.ExecContext(ctx, t.upsertQuery(), args...); err != nil {
		return fmt.Errorf("failed to upsert into %s: %w", t.schema.Table, err)
	}
	t.hub.Notify(t.schema.Table)
	return nil
}

// UpsertAll replaces all given entities in a single transaction and
// signals watchers once.
func (t *Table[T]) UpsertAll(ctx context.Context, items []T) error {
	if len(items) == 0 {
		return nil
	}
	query := t.upsertQuery()
	err := dbx.WithTx(ctx, t.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for i := range items {
			args, err := t.upsertArgs(&items[i])
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to upsert into %s: %w", t.schema.Table, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	t.hub.Notify(t.schema.Table)
	return nil
}

func (t *Table[T]) decode(doc []byte) (*T, error) {
	e := new(T)
	if err := json.Unmarshal(doc, e); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrCorruptDocument, t.schema.Table, err)
	}
	return e, nil
}

// Get returns the entity with the given id, or common.ErrNotFound.
func (t *Table[T]) Get(ctx context.Context, id string) (*T, error) {
	query := fmt.Sprintf(`SELECT doc FROM %s WHERE id = ?`, t.schema.Table)
	var doc []byte
	if err := t.db.QueryRowContext(ctx, query, id).Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select from %s: %w", t.schema.Table, err)
	}
	return t.decode(doc)
}

// Query returns all entities matching the WHERE fragment, ordered by the
// ORDER BY fragment. Both fragments may be empty. Fragments are composed
// from pre-declared repository queries, never from user input.
func (t *Table[T]) Query(ctx context.Context, where, order string, args ...any) ([]T, error) {
	query := fmt.Sprintf(`SELECT doc FROM %s`, t.schema.Table)
	if where != "" {
		query += " WHERE " + where
	}
	if order != "" {
		query += " ORDER BY " + order
	}

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select from %s: %w", t.schema.Table, err)
	}
	defer rows.Close()

	var result []T
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		e, err := t.decode(doc)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes the row with the given id. Missing rows are not an error.
func (t *Table[T]) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, t.schema.Table)
	if _, err := t.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", t.schema.Table, err)
	}
	t.hub.Notify(t.schema.Table)
	return nil
}

// DeleteWhere removes all rows matching the WHERE fragment. No cascade:
// deleting a subject's row leaves its notes untouched.
func (t *Table[T]) DeleteWhere(ctx context.Context, where string, args ...any) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s`, t.schema.Table, where)
	if _, err := t.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", t.schema.Table, err)
	}
	t.hub.Notify(t.schema.Table)
	return nil
}

// Count returns the number of rows matching the WHERE fragment.
func (t *Table[T]) Count(ctx context.Context, where string, args ...any) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, t.schema.Table)
	if where != "" {
		query += " WHERE " + where
	}
	var n int
	if err := t.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", t.schema.Table, err)
	}
	return n, nil
}

// Avg returns the average of a mirror column over rows matching the WHERE
// fragment, with the number of rows it covered. Absent rows yield (0, 0).
func (t *Table[T]) Avg(ctx context.Context, column, where string, args ...any) (float64, int, error) {
	query := fmt.Sprintf(`SELECT COALESCE(AVG(%s), 0), COUNT(*) FROM %s`, column, t.schema.Table)
	if where != "" {
		query += " WHERE " + where
	}
	var avg float64
	var n int
	if err := t.db.QueryRowContext(ctx, query, args...).Scan(&avg, &n); err != nil {
		return 0, 0, fmt.Errorf("failed to aggregate %s: %w", t.schema.Table, err)
	}
	return avg, n, nil
}

// SumInt returns the integer sum of a mirror column over matching rows.
func (t *Table[T]) SumInt(ctx context.Context, column, where string, args ...any) (int64, error) {
	query := fmt.Sprintf(`SELECT COALESCE(SUM(%s), 0) FROM %s`, column, t.schema.Table)
	if where != "" {
		query += " WHERE " + where
	}
	var sum int64
	if err := t.db.QueryRowContext(ctx, query, args...).Scan(&sum); err != nil {
		return 0, fmt.Errorf("failed to aggregate %s: %w", t.schema.Table, err)
	}
	return sum, nil
}

// IncrementField bumps an integer field inside the stored document in a
// single UPDATE statement, so two concurrent increments can never drop an
// update. mirrorColumn names the extracted column kept in step with the
// field; pass "" when the field has no mirror. Returns the new value, or
// common.ErrNotFound if the row does not exist.
func (t *Table[T]) IncrementField(ctx context.Context, id, field, mirrorColumn string) (int64, error) {
	path := "$." + field
	mirror := ""
	if mirrorColumn != "" {
		mirror = fmt.Sprintf(", %s = %s + 1", mirrorColumn, mirrorColumn)
	}
	query := fmt.Sprintf(
		`UPDATE %s SET doc = json_set(doc, ?, COALESCE(json_extract(doc, ?), 0) + 1)%s
		 WHERE id = ?
		 RETURNING CAST(json_extract(doc, ?) AS INTEGER)`,
		t.schema.Table, mirror,
	)
	var value int64
	err := t.db.QueryRowContext(ctx, query, path, path, id, path).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, common.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment %s.%s: %w", t.schema.Table, field, err)
	}
	t.hub.Notify(t.schema.Table)
	return value, nil
}

// Mutate reads the entity, applies transform, and writes the result back
// as a full replace. Read-modify-write without a transaction: concurrent
// mutations of the same row are last-write-wins.
func (t *Table[T]) Mutate(ctx context.Context, id string, transform func(*T)) (*T, error) {
	e, err := t.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	transform(e)
	if err := t.Upsert(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Watch returns a live subscription to the query: the current snapshot is
// delivered first, then the full matching result set is re-delivered
// after every write to this table. The channel closes when ctx is
// cancelled. Slow consumers see coalesced snapshots, never partial ones.
func (t *Table[T]) Watch(ctx context.Context, where, order string, args ...any) (<-chan []T, error) {
	snapshot, err := t.Query(ctx, where, order, args...)
	if err != nil {
		return nil, err
	}

	id, signal := t.hub.Subscribe(t.schema.Table)
	out := make(chan []T, 1)
	out <- snapshot

	go func() {
		defer close(out)
		defer t.hub.Unsubscribe(t.schema.Table, id)
		for {
			select {
			case <-ctx.Done():
				return
			case <-signal:
				next, err := t.Query(ctx, where, order, args...)
				if err != nil {
					// The row set is unreadable (e.g. corrupt document);
					// drop this delivery and keep the subscription alive.
					continue
				}
				select {
				case out <- next:
				default:
					// replace the stale pending snapshot
					select {
					case <-out:
					default:
					}
					out <- next
				}
			}
		}
	}()
	return out, nil
}
