package store

import (
	"context"
	"fmt"
)

// SaveMany upserts a batch of entities on a single connection inside a
// single transaction, in caller order, with one commit at the end. Any
// failure rolls back the whole batch; no partial batch is ever durable.
//
// Identities generated for earlier items are written back into their
// structs as the batch runs, but the engine does not resequence items or
// inject cross-item dependencies — callers wire those up beforehand.
func SaveMany[T any](ctx context.Context, s *Store, items []*T) (err error) {
	defer func() { s.record("save_many", err) }()
	if len(items) == 0 {
		return nil
	}
	sc, err := schemaFor[T](s)
	if err != nil {
		return err
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i, item := range items {
		if err := saveOne(ctx, tx, sc, item); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}
