package store

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"
)

// execer is satisfied by *sql.DB and *sql.Tx so the upsert logic is
// shared between single saves and transactional batches.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Save upserts one entity keyed on its identity field. A positive
// identity updates every non-identity column of the matching row; an
// unset or non-positive identity inserts a new row and writes the
// storage-generated identity back into the caller's struct. Every save
// rewrites the full row; there is no dirty-field tracking.
func Save[T any](ctx context.Context, s *Store, entity *T) (err error) {
	defer func() { s.record("save", err) }()
	sc, err := schemaFor[T](s)
	if err != nil {
		return err
	}
	return saveOne(ctx, s.db, sc, entity)
}

func saveOne(ctx context.Context, ex execer, sc *entitySchema, entity any) error {
	rv := reflect.ValueOf(entity).Elem()

	if sc.Identity != nil && rv.Field(sc.Identity.Index).Int() > 0 {
		return updateRow(ctx, ex, sc, rv)
	}
	return insertRow(ctx, ex, sc, rv)
}

func updateRow(ctx context.Context, ex execer, sc *entitySchema, rv reflect.Value) error {
	data := sc.dataFields()
	sets := make([]string, len(data))
	args := make([]any, 0, len(data)+1)
	for i, fd := range data {
		sets[i] = quoteIdent(fd.Name) + " = ?"
		args = append(args, encodeValue(rv.Field(fd.Index), fd.Kind))
	}
	args = append(args, rv.Field(sc.Identity.Index).Int())
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		quoteIdent(sc.Table), strings.Join(sets, ", "), quoteIdent(sc.Identity.Name))
	if _, err := ex.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update %s: %w", sc.Table, err)
	}
	return nil
}

func insertRow(ctx context.Context, ex execer, sc *entitySchema, rv reflect.Value) error {
	data := sc.dataFields()
	names := make([]string, len(data))
	marks := make([]string, len(data))
	args := make([]any, len(data))
	for i, fd := range data {
		names[i] = quoteIdent(fd.Name)
		marks[i] = "?"
		args[i] = encodeValue(rv.Field(fd.Index), fd.Kind)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(sc.Table), strings.Join(names, ", "), strings.Join(marks, ", "))
	res, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert %s: %w", sc.Table, err)
	}
	if sc.Identity == nil {
		return nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert %s: read generated id: %w", sc.Table, err)
	}
	ident := rv.Field(sc.Identity.Index)
	if ident.OverflowInt(id) {
		return fmt.Errorf("insert %s: generated id %d overflows %s", sc.Table, id, ident.Type())
	}
	ident.SetInt(id)
	return nil
}

// Delete removes the row with the given identity. For a type without an
// identity field this is a deliberate no-op, not an error.
func Delete[T any](ctx context.Context, s *Store, id int64) (err error) {
	defer func() { s.record("delete", err) }()
	sc, err := schemaFor[T](s)
	if err != nil {
		return err
	}
	if sc.Identity == nil {
		return nil
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?",
		quoteIdent(sc.Table), quoteIdent(sc.Identity.Name))
	if _, err = s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete %s: %w", sc.Table, err)
	}
	return nil
}

// DeleteWhere removes rows matching a caller-supplied clause. The clause
// must literally begin with WHERE (case-insensitive, leading whitespace
// tolerated) or the call fails before any SQL runs. That prefix check is
// the sole guard against an unscoped delete; it is textual, not a parse.
func DeleteWhere[T any](ctx context.Context, s *Store, clause string, args ...any) (n int64, err error) {
	defer func() { s.record("delete_where", err) }()
	sc, err := schemaFor[T](s)
	if err != nil {
		return 0, err
	}
	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(clause)), "WHERE") {
		return 0, fmt.Errorf("%w: %q", ErrMalformedClause, clause)
	}
	res, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s %s", quoteIdent(sc.Table), clause), args...)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", sc.Table, err)
	}
	return res.RowsAffected()
}

// Exists reports whether any row matches the optional clause, which is
// appended verbatim. A clause containing a statement separator is
// rejected; this is a shallow injection guard, nothing more.
func Exists[T any](ctx context.Context, s *Store, clause string, args ...any) (ok bool, err error) {
	defer func() { s.record("exists", err) }()
	sc, err := schemaFor[T](s)
	if err != nil {
		return false, err
	}
	if strings.Contains(clause, ";") {
		return false, fmt.Errorf("%w: statement separator in clause", ErrUnsafeQuery)
	}
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s %s)", quoteIdent(sc.Table), clause)
	var found int
	if err = s.db.QueryRowContext(ctx, query, args...).Scan(&found); err != nil {
		return false, fmt.Errorf("exists %s: %w", sc.Table, err)
	}
	return found != 0, nil
}

// Count returns the number of rows in T's table.
func Count[T any](ctx context.Context, s *Store) (n int64, err error) {
	defer func() { s.record("count", err) }()
	sc, err := schemaFor[T](s)
	if err != nil {
		return 0, err
	}
	if err = s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(sc.Table))).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", sc.Table, err)
	}
	return n, nil
}
