// Package sqlitestore implements the soundbite stores on SQLite. It is the
// alternate backend for deployments that prefer a single relational file
// over the bbolt/bleve pair; filters are exact-match, so no FTS table is
// needed.
package sqlitestore

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/hypergopher/soundbite"
)

// Store owns the SQLite handle behind the soundbite stores. The per-entity
// stores returned by Posts, Users and Comments share it.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// PostStore implements soundbite.PostStore.
type PostStore struct{ *Store }

// UserStore implements soundbite.UserStore.
type UserStore struct{ *Store }

// CommentStore implements soundbite.CommentStore.
type CommentStore struct{ *Store }

func (s *Store) Posts() *PostStore       { return &PostStore{s} }
func (s *Store) Users() *UserStore       { return &UserStore{s} }
func (s *Store) Comments() *CommentStore { return &CommentStore{s} }

// Open connects to the SQLite database at dbPath. Call Init before use.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Init creates the tables and indexes if they do not exist. Timestamps are
// stored as unix nanoseconds so newest-first ordering is a plain integer
// sort.
func (s *Store) Init() error {
	const schema = `
		CREATE TABLE IF NOT EXISTS posts (
			slug TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			body TEXT NOT NULL DEFAULT '',
			author TEXT NOT NULL,
			favorites_count INTEGER NOT NULL DEFAULT 0,
			created INTEGER NOT NULL,
			updated INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS posts_author_idx ON posts(author);
		CREATE INDEX IF NOT EXISTS posts_created_idx ON posts(created);

		CREATE TABLE IF NOT EXISTS post_tags (
			post_slug TEXT NOT NULL,
			position INTEGER NOT NULL,
			tag TEXT NOT NULL,
			PRIMARY KEY(post_slug, tag),
			FOREIGN KEY(post_slug) REFERENCES posts(slug) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS post_tags_tag_idx ON post_tags(tag);

		CREATE TABLE IF NOT EXISTS comments (
			id TEXT PRIMARY KEY,
			post_slug TEXT NOT NULL,
			author TEXT NOT NULL,
			body TEXT NOT NULL,
			created INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS comments_post_idx ON comments(post_slug);

		CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			bio TEXT NOT NULL DEFAULT '',
			image TEXT NOT NULL DEFAULT '',
			created INTEGER NOT NULL,
			updated INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS user_favorites (
			username TEXT NOT NULL,
			position INTEGER NOT NULL,
			post_slug TEXT NOT NULL,
			PRIMARY KEY(username, post_slug),
			FOREIGN KEY(username) REFERENCES users(username) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS user_favorites_slug_idx ON user_favorites(post_slug);

		CREATE TABLE IF NOT EXISTS user_follows (
			username TEXT NOT NULL,
			position INTEGER NOT NULL,
			followee TEXT NOT NULL,
			PRIMARY KEY(username, followee),
			FOREIGN KEY(username) REFERENCES users(username) ON DELETE CASCADE
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ soundbite.PostStore = (*PostStore)(nil)
var _ soundbite.UserStore = (*UserStore)(nil)
var _ soundbite.CommentStore = (*CommentStore)(nil)
