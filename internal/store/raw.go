package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Scalar is the tagged result of ExecuteScalar: Valid is false when the
// query produced no row or the first column was NULL.
type Scalar struct {
	Valid bool
	Value any
}

// ExecuteNonQuery runs an arbitrary parameterized statement and returns
// the number of affected rows. No guard applies here: this is the
// unmediated side of the escape hatch.
func (s *Store) ExecuteNonQuery(ctx context.Context, query string, args ...any) (n int64, err error) {
	defer func() { s.record("execute_non_query", err) }()
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("execute: %w", err)
	}
	return res.RowsAffected()
}

// ExecuteScalar runs a query and returns the first column of the first
// row as a tagged value.
func (s *Store) ExecuteScalar(ctx context.Context, query string, args ...any) (out Scalar, err error) {
	defer func() { s.record("execute_scalar", err) }()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Scalar{}, fmt.Errorf("execute scalar: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return Scalar{}, rows.Err()
	}
	cols, err := rows.Columns()
	if err != nil {
		return Scalar{}, fmt.Errorf("columns: %w", err)
	}
	raw := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return Scalar{}, fmt.Errorf("scan scalar: %w", err)
	}
	if raw[0] == nil {
		return Scalar{}, nil
	}
	return Scalar{Valid: true, Value: raw[0]}, nil
}

// destructiveKeyword flags statements that write or reshape data. This
// is a coarse textual net for the read-only path, not a SQL parser, and
// crafted input can slip past it; see ExecuteQuery.
var destructiveKeyword = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|truncate|replace)\b`)

// ExecuteQuery runs an arbitrary parameterized read and maps the result
// rows onto T like the typed query path. Statements containing a
// destructive keyword are rejected up front. The guard stops accidents,
// not adversaries; the unguarded ExecuteNonQuery exists for statements
// it refuses.
func ExecuteQuery[T any](ctx context.Context, s *Store, query string, args ...any) (out []T, err error) {
	defer func() { s.record("execute_query", err) }()
	sc, err := schemaFor[T](s)
	if err != nil {
		return nil, err
	}
	if kw := destructiveKeyword.FindString(query); kw != "" {
		return nil, fmt.Errorf("%w: %q in read-only query", ErrUnsafeQuery, strings.ToUpper(kw))
	}
	return queryEntities[T](ctx, s, sc, query, args...)
}

// CreateIndex creates an index on one column of T's table. The name is
// derived deterministically from table and column, so repeated calls are
// idempotent via IF NOT EXISTS.
func CreateIndex[T any](ctx context.Context, s *Store, column string, unique bool) (err error) {
	defer func() { s.record("create_index", err) }()
	sc, err := schemaFor[T](s)
	if err != nil {
		return err
	}
	fd, err := sc.field(column)
	if err != nil {
		return err
	}
	kind := "INDEX"
	if unique {
		kind = "UNIQUE INDEX"
	}
	name := fmt.Sprintf("idx_%s_%s", strings.ToLower(sc.Table), strings.ToLower(fd.Name))
	ddl := fmt.Sprintf("CREATE %s IF NOT EXISTS %s ON %s (%s)",
		kind, quoteIdent(name), quoteIdent(sc.Table), quoteIdent(fd.Name))
	if _, err = s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create index %s: %w", name, err)
	}
	return nil
}

// Vacuum reclaims free space. It can block concurrent access for its
// whole duration and is never invoked automatically; run it in a
// maintenance window.
func (s *Store) Vacuum(ctx context.Context) (err error) {
	defer func() { s.record("vacuum", err) }()
	if _, err = s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}
	return nil
}
