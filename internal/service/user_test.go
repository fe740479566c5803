package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"entitystore/internal/config"
	"entitystore/internal/store"
)

func newTestService(t *testing.T) *UserService {
	t.Helper()
	cfg := config.DatabaseConfig{
		Directory:     t.TempDir(),
		File:          "users.db",
		JournalMode:   "WAL",
		Synchronous:   "NORMAL",
		BusyTimeoutMS: 5000,
	}
	s, err := store.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	svc, err := NewUserService(context.Background(), s, nil)
	require.NoError(t, err)
	return svc
}

func TestSaveAndLookup(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	u := &User{Username: "ada", Email: "ada@x.com", Role: RoleAdmin}
	require.NoError(t, svc.Save(ctx, u))
	require.Positive(t, u.Id)

	byName, err := svc.GetByUsername(ctx, "ada")
	require.NoError(t, err)
	require.NotNil(t, byName)
	require.Equal(t, u.Id, byName.Id)

	byMail, err := svc.GetByEmail(ctx, "ada@x.com")
	require.NoError(t, err)
	require.NotNil(t, byMail)

	missing, err := svc.GetByUsername(ctx, "nobody")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestIsInRole(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	u := &User{Username: "ed", Role: RoleEditor}
	require.NoError(t, svc.Save(ctx, u))

	ok, err := svc.IsInRole(ctx, u.Id, RoleEditor)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.IsInRole(ctx, u.Id, RoleAdmin)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = svc.IsInRole(ctx, 999, RoleAdmin)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, svc.SoftDelete(ctx, u.Id))
	ok, err = svc.IsInRole(ctx, u.Id, RoleEditor)
	require.NoError(t, err)
	require.False(t, ok, "soft-deleted users hold no roles")
}

func TestSoftDeleteAndPurge(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	alive := &User{Username: "alive"}
	gone := &User{Username: "gone"}
	require.NoError(t, svc.SaveAll(ctx, []*User{alive, gone}))

	require.NoError(t, svc.SoftDelete(ctx, gone.Id))

	deleted, err := svc.Deleted(ctx)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	require.Equal(t, "gone", deleted[0].Username)

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), n, "soft delete keeps the row")

	purged, err := svc.Purge(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), purged)

	n, err = svc.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestUsernameTaken(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	u := &User{Username: "held"}
	require.NoError(t, svc.Save(ctx, u))

	ok, err := svc.UsernameTaken(ctx, "held")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.UsernameTaken(ctx, "free")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, svc.SoftDelete(ctx, u.Id))
	ok, err = svc.UsernameTaken(ctx, "held")
	require.NoError(t, err)
	require.False(t, ok, "soft-deleted usernames are released")
}

func TestTouchLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	u := &User{Username: "visitor"}
	require.NoError(t, svc.Save(ctx, u))

	at := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, svc.TouchLogin(ctx, u.Id, at))

	got, err := svc.GetByID(ctx, u.Id)
	require.NoError(t, err)
	require.True(t, got.LastLogin.Equal(at))

	require.Error(t, svc.TouchLogin(ctx, 999, at))
}

func TestListPaged(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	batch := []*User{
		{Username: "carol"},
		{Username: "alice"},
		{Username: "bob"},
	}
	require.NoError(t, svc.SaveAll(ctx, batch))

	page, err := svc.List(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "alice", page[0].Username)
	require.Equal(t, "bob", page[1].Username)

	page, err = svc.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "carol", page[0].Username)
}
