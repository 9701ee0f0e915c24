package soundbite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Register creates a new user account with a bcrypt password hash.
func (sb *Soundbite) Register(ctx context.Context, username, email, password string) (*User, error) {
	v := &ValidationError{}
	if username == "" {
		v.Add("username", "can't be blank")
	}
	if email == "" {
		v.Add("email", "can't be blank")
	}
	if password == "" {
		v.Add("password", "can't be blank")
	}
	if len(v.Fields) > 0 {
		return nil, v
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	now := time.Now().UTC()
	user := &User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := sb.users.Create(ctx, user)
	if errors.Is(err, ErrUsernameTaken) {
		return nil, NewValidationError("username", "is already taken")
	}
	if err != nil {
		return nil, fmt.Errorf("error creating user %s: %w", username, err)
	}
	return created, nil
}

// Authenticate verifies a username/password pair. Unknown usernames and
// wrong passwords are indistinguishable to the caller.
func (sb *Soundbite) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := sb.users.GetByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("error loading user %s: %w", username, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetUser retrieves a user by username.
func (sb *Soundbite) GetUser(ctx context.Context, username string) (*User, error) {
	return sb.users.GetByUsername(ctx, username)
}

// FollowUser adds the target to the caller's following set and returns the
// target's profile as seen by the caller. Following twice is a no-op.
func (sb *Soundbite) FollowUser(ctx context.Context, caller *User, username string) (Profile, error) {
	target, err := sb.users.GetByUsername(ctx, username)
	if err != nil {
		return Profile{}, err
	}

	if caller.Follow(target.Username) {
		if err := sb.users.Update(ctx, caller); err != nil {
			return Profile{}, fmt.Errorf("error saving following for %s: %w", caller.Username, err)
		}
	}
	return target.ProfileFor(caller), nil
}

// UnfollowUser removes the target from the caller's following set.
// Unfollowing someone never followed is a no-op.
func (sb *Soundbite) UnfollowUser(ctx context.Context, caller *User, username string) (Profile, error) {
	target, err := sb.users.GetByUsername(ctx, username)
	if err != nil {
		return Profile{}, err
	}

	if caller.Unfollow(target.Username) {
		if err := sb.users.Update(ctx, caller); err != nil {
			return Profile{}, fmt.Errorf("error saving following for %s: %w", caller.Username, err)
		}
	}
	return target.ProfileFor(caller), nil
}

// ProfileView projects the named user for the given viewer.
func (sb *Soundbite) ProfileView(ctx context.Context, username string, viewer *User) (Profile, error) {
	user, err := sb.users.GetByUsername(ctx, username)
	if err != nil {
		return Profile{}, err
	}
	return user.ProfileFor(viewer), nil
}
