package store

import (
	"context"
	"fmt"
	"strings"
)

// EnsureTable creates the table for T if it does not exist, then brings
// its columns up to date with the type. Idempotent; safe to call from
// several goroutines registering the same type for the first time, since
// both the CREATE and each ADD COLUMN are guarded against existing state.
//
// A table, once created, only ever gains columns. Fields removed from
// the type leave their columns orphaned in storage and silently ignored.
func EnsureTable[T any](ctx context.Context, s *Store) (err error) {
	defer func() { s.record("ensure_table", err) }()
	sc, err := schemaFor[T](s)
	if err != nil {
		return err
	}
	if _, err = s.db.ExecContext(ctx, createTableSQL(sc)); err != nil {
		return fmt.Errorf("create table %s: %w", sc.Table, err)
	}
	s.migrate(ctx, sc)
	return nil
}

// Migrate runs the additive column diff for T's table without creating
// it. An error is returned only when the type itself cannot be
// described; migration trouble is logged, never propagated.
func Migrate[T any](ctx context.Context, s *Store) (err error) {
	defer func() { s.record("migrate", err) }()
	sc, err := schemaFor[T](s)
	if err != nil {
		return err
	}
	s.migrate(ctx, sc)
	return nil
}

func createTableSQL(sc *entitySchema) string {
	cols := make([]string, 0, len(sc.Fields))
	for _, fd := range sc.Fields {
		if sc.Identity != nil && fd.Index == sc.Identity.Index {
			cols = append(cols, quoteIdent(fd.Name)+" INTEGER PRIMARY KEY AUTOINCREMENT")
			continue
		}
		cols = append(cols, quoteIdent(fd.Name)+" "+columnType(fd.Kind))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteIdent(sc.Table), strings.Join(cols, ", "))
}

// migrate diffs the live column set against the type's fields and issues
// one ADD COLUMN per gap. The name comparison is case-sensitive. A
// failure here is logged and swallowed: the table stays usable with a
// possibly incomplete schema rather than blocking access.
func (s *Store) migrate(ctx context.Context, sc *entitySchema) {
	live, err := s.tableColumns(ctx, sc.Table)
	if err != nil {
		s.log.Warn("schema migration skipped", "table", sc.Table, "error", err)
		return
	}
	for _, fd := range sc.Fields {
		if live[fd.Name] {
			continue
		}
		ddl := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
			quoteIdent(sc.Table), quoteIdent(fd.Name), columnType(fd.Kind))
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			// Concurrent registration may have added it first; either
			// way the table remains usable.
			s.log.Warn("add column failed", "table", sc.Table, "column", fd.Name, "error", err)
			continue
		}
		s.log.Info("column added", "table", sc.Table, "column", fd.Name)
	}
}

// tableColumns reads the live column names for a table.
func (s *Store) tableColumns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("table_info %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid, notnull, pk int
			name, ctype      string
			dflt             any
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table_info: %w", err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}
