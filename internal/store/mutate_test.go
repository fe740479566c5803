package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpsertIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, EnsureTable[Widget](ctx, s))

	w := Widget{Name: "gear", Price: 3.5}
	require.NoError(t, Save(ctx, s, &w))

	fetched, err := GetByID[Widget](ctx, s, w.Id)
	require.NoError(t, err)
	require.NoError(t, Save(ctx, s, fetched))
	require.NoError(t, Save(ctx, s, fetched))

	all, err := GetAll[Widget](ctx, s)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "gear", all[0].Name)
	require.Equal(t, 3.5, all[0].Price)
}

func TestSaveUpdatesFullRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, EnsureTable[Widget](ctx, s))

	w := Widget{Name: "before", Price: 1, Ready: true}
	require.NoError(t, Save(ctx, s, &w))
	id := w.Id

	w.Name = "after"
	w.Ready = false
	require.NoError(t, Save(ctx, s, &w))
	require.Equal(t, id, w.Id, "update must not reassign identity")

	got, err := GetByID[Widget](ctx, s, id)
	require.NoError(t, err)
	require.Equal(t, "after", got.Name)
	require.False(t, got.Ready)

	n, err := Count[Widget](ctx, s)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, EnsureTable[Widget](ctx, s))

	w := Widget{Name: "doomed"}
	require.NoError(t, Save(ctx, s, &w))
	require.NoError(t, Delete[Widget](ctx, s, w.Id))

	got, err := GetByID[Widget](ctx, s, w.Id)
	require.NoError(t, err)
	require.Nil(t, got)

	// Deleting an id that never existed is not an error.
	require.NoError(t, Delete[Widget](ctx, s, 12345))
}

func TestDeleteNoIdentityIsNoOp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	type Setting struct {
		Key   string
		Value string
	}
	require.NoError(t, EnsureTable[Setting](ctx, s))
	require.NoError(t, Save(ctx, s, &Setting{Key: "k", Value: "v"}))

	require.NoError(t, Delete[Setting](ctx, s, 1))
	n, err := Count[Setting](ctx, s)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestGetByIDNoIdentityFails(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	type Setting struct {
		Key   string
		Value string
	}
	require.NoError(t, EnsureTable[Setting](ctx, s))

	_, err := GetByID[Setting](ctx, s, 1)
	require.ErrorIs(t, err, ErrNoIdentity)
}

func TestDeleteWhereGuard(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, EnsureTable[Widget](ctx, s))
	w := Widget{Name: "keep"}
	require.NoError(t, Save(ctx, s, &w))

	for _, clause := range []string{
		"",
		"Id = 1",
		"1 = 1",
		"OR WHERE Id = 1",
		"DROP TABLE Widget",
	} {
		_, err := DeleteWhere[Widget](ctx, s, clause)
		require.ErrorIs(t, err, ErrMalformedClause, "clause %q", clause)
	}
	n, err := Count[Widget](ctx, s)
	require.NoError(t, err)
	require.Equal(t, int64(1), n, "no rejected clause may remove rows")

	// Case and leading whitespace are tolerated.
	removed, err := DeleteWhere[Widget](ctx, s, "  where Name = ?", "keep")
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)
}

func TestExists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, EnsureTable[Widget](ctx, s))

	ok, err := Exists[Widget](ctx, s, "")
	require.NoError(t, err)
	require.False(t, ok)

	w := Widget{Name: "present"}
	require.NoError(t, Save(ctx, s, &w))

	ok, err = Exists[Widget](ctx, s, "")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = Exists[Widget](ctx, s, "WHERE Name = ?", "present")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = Exists[Widget](ctx, s, "WHERE Name = ?", "absent")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = Exists[Widget](ctx, s, "WHERE Name = 'x'; DROP TABLE Widget")
	require.ErrorIs(t, err, ErrUnsafeQuery)
}

func TestUnknownColumnRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, EnsureTable[Widget](ctx, s))

	_, err := GetByColumn[Widget](ctx, s, "Nope", 1)
	require.ErrorIs(t, err, ErrUnknownColumn)
	_, err = GetListByColumn[Widget](ctx, s, "nope", 1)
	require.ErrorIs(t, err, ErrUnknownColumn)
	_, err = GetPaged[Widget](ctx, s, 1, 10, "Sneaky; DROP TABLE")
	require.ErrorIs(t, err, ErrUnknownColumn)
}

func TestGetPaged(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, EnsureTable[Widget](ctx, s))

	for _, name := range []string{"c", "a", "b", "e", "d"} {
		w := Widget{Name: name}
		require.NoError(t, Save(ctx, s, &w))
	}

	page, err := GetPaged[Widget](ctx, s, 1, 2, "Name")
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "a", page[0].Name)
	require.Equal(t, "b", page[1].Name)

	page, err = GetPaged[Widget](ctx, s, 3, 2, "Name")
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "e", page[0].Name)

	page, err = GetPaged[Widget](ctx, s, 4, 2, "Name")
	require.NoError(t, err)
	require.Empty(t, page)
}

func TestGetListByColumn(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, EnsureTable[Widget](ctx, s))

	for i := 0; i < 3; i++ {
		w := Widget{Name: "dup", Ready: true}
		require.NoError(t, Save(ctx, s, &w))
	}
	w := Widget{Name: "solo"}
	require.NoError(t, Save(ctx, s, &w))

	list, err := GetListByColumn[Widget](ctx, s, "Name", "dup")
	require.NoError(t, err)
	require.Len(t, list, 3)

	list, err = GetListByColumn[Widget](ctx, s, "Ready", false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "solo", list[0].Name)
}
