package store

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
)

// GetByID looks up a single entity by its identity column. Returns
// (nil, nil) when no row matches, following the repository convention
// that absence is not an error.
func GetByID[T any](ctx context.Context, s *Store, id int64) (out *T, err error) {
	defer func() { s.record("get_by_id", err) }()
	sc, err := schemaFor[T](s)
	if err != nil {
		return nil, err
	}
	if sc.Identity == nil {
		return nil, fmt.Errorf("%s: %w", sc.Table, ErrNoIdentity)
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		sc.columnList(), quoteIdent(sc.Table), quoteIdent(sc.Identity.Name))
	items, err := queryEntities[T](ctx, s, sc, query, id)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// GetAll returns every row of T's table in storage-native order.
func GetAll[T any](ctx context.Context, s *Store) (out []T, err error) {
	defer func() { s.record("get_all", err) }()
	sc, err := schemaFor[T](s)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s", sc.columnList(), quoteIdent(sc.Table))
	return queryEntities[T](ctx, s, sc, query)
}

// GetByColumn returns the first entity whose named column equals value,
// or (nil, nil) when none matches. The column must be a known field of
// T; anything else fails before touching storage.
func GetByColumn[T any](ctx context.Context, s *Store, column string, value any) (out *T, err error) {
	defer func() { s.record("get_by_column", err) }()
	items, err := listByColumn[T](ctx, s, column, value, 1)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// GetListByColumn returns every entity whose named column equals value.
func GetListByColumn[T any](ctx context.Context, s *Store, column string, value any) (out []T, err error) {
	defer func() { s.record("get_list_by_column", err) }()
	return listByColumn[T](ctx, s, column, value, 0)
}

func listByColumn[T any](ctx context.Context, s *Store, column string, value any, limit int) ([]T, error) {
	sc, err := schemaFor[T](s)
	if err != nil {
		return nil, err
	}
	fd, err := sc.field(column)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		sc.columnList(), quoteIdent(sc.Table), quoteIdent(fd.Name))
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	return queryEntities[T](ctx, s, sc, query, value)
}

// GetPaged returns one page of rows ordered ascending by orderBy, which
// must be a known field. Page numbers are 1-indexed; the offset is
// (page-1)*size.
func GetPaged[T any](ctx context.Context, s *Store, page, size int, orderBy string) (out []T, err error) {
	defer func() { s.record("get_paged", err) }()
	sc, err := schemaFor[T](s)
	if err != nil {
		return nil, err
	}
	fd, err := sc.field(orderBy)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s ASC LIMIT ? OFFSET ?",
		sc.columnList(), quoteIdent(sc.Table), quoteIdent(fd.Name))
	return queryEntities[T](ctx, s, sc, query, size, (page-1)*size)
}

func queryEntities[T any](ctx context.Context, s *Store, sc *entitySchema, query string, args ...any) ([]T, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", sc.Table, err)
	}
	defer rows.Close()
	return scanRows[T](rows, sc)
}

// scanRows maps result rows onto entities. Result columns are matched to
// fields by exact name; unmatched columns are ignored, NULLs leave the
// destination field at its zero value, and a value that fails to convert
// aborts the whole read.
func scanRows[T any](rows *sql.Rows, sc *entitySchema) ([]T, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	fields := make([]*fieldDesc, len(cols))
	for i, name := range cols {
		fields[i] = sc.byName[name]
	}

	raw := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}

	var out []T
	for rows.Next() {
		for i := range raw {
			raw[i] = nil
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", sc.Table, err)
		}
		var item T
		rv := reflect.ValueOf(&item).Elem()
		for i, fd := range fields {
			if fd == nil {
				continue
			}
			if err := decodeValue(raw[i], fd.Kind, rv.Field(fd.Index)); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", sc.Table, fd.Name, err)
			}
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
