package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hypergopher/soundbite"
)

type userRow struct {
	Username     string `db:"username"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	Bio          string `db:"bio"`
	Image        string `db:"image"`
	Created      int64  `db:"created"`
	Updated      int64  `db:"updated"`
}

func (r userRow) toUser() *soundbite.User {
	return &soundbite.User{
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Bio:          r.Bio,
		Image:        r.Image,
		CreatedAt:    time.Unix(0, r.Created).UTC(),
		UpdatedAt:    time.Unix(0, r.Updated).UTC(),
	}
}

func rowFromUser(user *soundbite.User) userRow {
	return userRow{
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Bio:          user.Bio,
		Image:        user.Image,
		Created:      user.CreatedAt.UnixNano(),
		Updated:      user.UpdatedAt.UnixNano(),
	}
}

// Create stores a new user and returns it. It returns
// soundbite.ErrUsernameTaken if the username is already in use.
func (s *UserStore) Create(ctx context.Context, user *soundbite.User) (*soundbite.User, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.GetContext(ctx, &exists, "SELECT 1 FROM users WHERE username = ?", user.Username)
	if err == nil {
		return nil, soundbite.ErrUsernameTaken
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check username %s: %w", user.Username, err)
	}

	row := rowFromUser(user)
	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO users (username, email, password_hash, bio, image, created, updated)
		VALUES (:username, :email, :password_hash, :bio, :image, :created, :updated)`, row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user %s: %w", user.Username, err)
	}

	if err := replaceRelations(ctx, tx, user); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit user %s: %w", user.Username, err)
	}
	return user, nil
}

// Update replaces an existing user, including the favorites and follows
// relations. It returns soundbite.ErrUserNotFound if the user does not
// exist.
func (s *UserStore) Update(ctx context.Context, user *soundbite.User) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := rowFromUser(user)
	res, err := tx.NamedExecContext(ctx, `
		UPDATE users
		SET email = :email, password_hash = :password_hash, bio = :bio,
			image = :image, created = :created, updated = :updated
		WHERE username = :username`, row)
	if err != nil {
		return fmt.Errorf("failed to update user %s: %w", user.Username, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update of user %s: %w", user.Username, err)
	}
	if affected == 0 {
		return soundbite.ErrUserNotFound
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM user_favorites WHERE username = ?", user.Username); err != nil {
		return fmt.Errorf("failed to clear favorites for user %s: %w", user.Username, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM user_follows WHERE username = ?", user.Username); err != nil {
		return fmt.Errorf("failed to clear follows for user %s: %w", user.Username, err)
	}
	if err := replaceRelations(ctx, tx, user); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user %s: %w", user.Username, err)
	}
	return nil
}

// GetByUsername returns the user with the given username, or
// soundbite.ErrUserNotFound.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*soundbite.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM users WHERE username = ?", username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, soundbite.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", username, err)
	}

	user := row.toUser()

	favorites := []string{}
	err = s.db.SelectContext(ctx, &favorites,
		"SELECT post_slug FROM user_favorites WHERE username = ? ORDER BY position", username)
	if err != nil {
		return nil, fmt.Errorf("failed to load favorites for user %s: %w", username, err)
	}
	user.Favorites = favorites

	following := []string{}
	err = s.db.SelectContext(ctx, &following,
		"SELECT followee FROM user_follows WHERE username = ? ORDER BY position", username)
	if err != nil {
		return nil, fmt.Errorf("failed to load follows for user %s: %w", username, err)
	}
	user.Following = following

	return user, nil
}

// CountFavoriters returns how many users currently favor the post. The
// favorites relation is the source of truth for the count, not the
// counter cached on the post row.
func (s *UserStore) CountFavoriters(ctx context.Context, slug string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM user_favorites WHERE post_slug = ?", slug)
	if err != nil {
		return 0, fmt.Errorf("failed to count favoriters of post %s: %w", slug, err)
	}
	return count, nil
}

func replaceRelations(ctx context.Context, tx execer, user *soundbite.User) error {
	for i, slug := range user.Favorites {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO user_favorites (username, position, post_slug) VALUES (?, ?, ?)",
			user.Username, i, slug)
		if err != nil {
			return fmt.Errorf("failed to insert favorite %s for user %s: %w", slug, user.Username, err)
		}
	}
	for i, followee := range user.Following {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO user_follows (username, position, followee) VALUES (?, ?, ?)",
			user.Username, i, followee)
		if err != nil {
			return fmt.Errorf("failed to insert follow %s for user %s: %w", followee, user.Username, err)
		}
	}
	return nil
}
