package store

import (
	"context"

	"taskboard/internal/identity"
)

// Stores are interface-driven to keep services testable and to allow swapping
// the in-memory implementation for postgres without rewiring business code.
// Stores return sentinel errors; services translate them into domain errors.

type UserStore interface {
	// Create inserts a user and assigns its ID. Returns sentinel.ErrConflict
	// when the email or username is already taken by a non-deleted user.
	Create(ctx context.Context, user *identity.User) error
	FindByID(ctx context.Context, id int64) (identity.User, error)
	FindByEmail(ctx context.Context, email string) (identity.User, error)
	FindByUsername(ctx context.Context, username string) (identity.User, error)
	Update(ctx context.Context, user identity.User) error
	// ListProfiles returns profile summaries for all non-deleted users,
	// ordered by username.
	ListProfiles(ctx context.Context) ([]identity.Profile, error)
	// FindProfiles resolves user IDs to profiles in one batch. Unknown IDs
	// are absent from the result; this is never an error.
	FindProfiles(ctx context.Context, ids []int64) (map[int64]identity.Profile, error)
}

type RoleStore interface {
	FindByName(ctx context.Context, name string) (identity.Role, error)
	// RoleOf returns the user's role name, or identity.RoleUser when no
	// assignment exists.
	RoleOf(ctx context.Context, userID int64) (string, error)
	// Assign sets the user's role, replacing any existing assignment.
	Assign(ctx context.Context, userID, roleID int64) error
}
