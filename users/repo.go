package users

import "context"

// Repo is the storage interface for portal accounts.
//
// Implementations return internal/errors.ErrNotFound for missing users
// and internal/errors.ErrAlreadyExists on username collisions.
type Repo interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, user *User) error
	// List returns a page of users ordered by creation time (newest
	// first) together with the total account count.
	List(ctx context.Context, offset, limit int) ([]*User, int, error)
}
