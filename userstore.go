package soundbite

import "context"

// UserStore owns user accounts, keyed by username.
type UserStore interface {
	// Create persists a new user. Returns ErrUsernameTaken if the username
	// is in use.
	Create(ctx context.Context, user *User) (*User, error)
	// Update persists an existing user. Returns ErrUserNotFound if missing.
	Update(ctx context.Context, user *User) error
	// GetByUsername retrieves a user by username.
	GetByUsername(ctx context.Context, username string) (*User, error)
	// CountFavoriters counts the users whose favorites contain the given
	// post slug. This is the source of truth for a post's favoritesCount.
	CountFavoriters(ctx context.Context, slug string) (int, error)
}
