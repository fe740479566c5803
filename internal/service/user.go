// Package service contains consumers of the persistence catalogue. The
// user service registers exactly one entity type and performs all of its
// storage access through the typed operations of internal/store; it
// never issues SQL of its own.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"entitystore/internal/store"
)

// User is the single entity type the user service persists. Every
// exported field becomes a column; Id is the auto-increment identity.
type User struct {
	Id          int64
	Username    string
	Email       string
	DisplayName string
	Role        string
	LastLogin   time.Time
	IsDeleted   bool
}

// Role values recognized by IsInRole.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// UserService manages users on top of the generic store.
type UserService struct {
	store *store.Store
	log   *slog.Logger
}

// NewUserService registers the User table (creating or migrating it as
// needed) and returns the service.
func NewUserService(ctx context.Context, s *store.Store, log *slog.Logger) (*UserService, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := store.EnsureTable[User](ctx, s); err != nil {
		return nil, fmt.Errorf("register user table: %w", err)
	}
	// Username lookups are the hot path. Not unique: soft-deleted rows
	// keep their username, and UsernameTaken only considers live users.
	if err := store.CreateIndex[User](ctx, s, "Username", false); err != nil {
		return nil, fmt.Errorf("index username: %w", err)
	}
	return &UserService{store: s, log: log}, nil
}

// GetByID returns the user with the given id, or nil when absent.
func (u *UserService) GetByID(ctx context.Context, id int64) (*User, error) {
	return store.GetByID[User](ctx, u.store, id)
}

// GetByUsername returns the user with the given username, or nil.
func (u *UserService) GetByUsername(ctx context.Context, username string) (*User, error) {
	return store.GetByColumn[User](ctx, u.store, "Username", username)
}

// GetByEmail returns the first user with the given email, or nil.
func (u *UserService) GetByEmail(ctx context.Context, email string) (*User, error) {
	return store.GetByColumn[User](ctx, u.store, "Email", email)
}

// Save upserts a user; a new user gets its generated id written back.
func (u *UserService) Save(ctx context.Context, user *User) error {
	if err := store.Save(ctx, u.store, user); err != nil {
		return err
	}
	u.log.Debug("user saved", "id", user.Id, "username", user.Username)
	return nil
}

// SaveAll persists a batch of users atomically.
func (u *UserService) SaveAll(ctx context.Context, users []*User) error {
	return store.SaveMany(ctx, u.store, users)
}

// List returns one page of users ordered by username.
func (u *UserService) List(ctx context.Context, page, size int) ([]User, error) {
	return store.GetPaged[User](ctx, u.store, page, size, "Username")
}

// Deleted returns all soft-deleted users.
func (u *UserService) Deleted(ctx context.Context) ([]User, error) {
	return store.GetListByColumn[User](ctx, u.store, "IsDeleted", true)
}

// IsInRole reports whether the user exists, is not soft-deleted, and
// carries the given role.
func (u *UserService) IsInRole(ctx context.Context, id int64, role string) (bool, error) {
	user, err := u.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return user != nil && !user.IsDeleted && user.Role == role, nil
}

// TouchLogin records a login timestamp on the user.
func (u *UserService) TouchLogin(ctx context.Context, id int64, at time.Time) error {
	user, err := u.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %d not found", id)
	}
	user.LastLogin = at
	return u.Save(ctx, user)
}

// SoftDelete marks a user deleted without removing the row.
func (u *UserService) SoftDelete(ctx context.Context, id int64) error {
	user, err := u.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return nil
	}
	user.IsDeleted = true
	if err := u.Save(ctx, user); err != nil {
		return err
	}
	u.log.Info("user soft-deleted", "id", id, "username", user.Username)
	return nil
}

// Purge permanently removes soft-deleted users.
func (u *UserService) Purge(ctx context.Context) (int64, error) {
	return store.DeleteWhere[User](ctx, u.store, "WHERE IsDeleted = ?", true)
}

// Count returns the total number of users, deleted included.
func (u *UserService) Count(ctx context.Context) (int64, error) {
	return store.Count[User](ctx, u.store)
}

// UsernameTaken reports whether any live user holds the username.
func (u *UserService) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return store.Exists[User](ctx, u.store, "WHERE Username = ? AND IsDeleted = 0", username)
}
