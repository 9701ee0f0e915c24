package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/hypergopher/soundbite"
)

type postRow struct {
	Slug           string `db:"slug"`
	Title          string `db:"title"`
	Description    string `db:"description"`
	Body           string `db:"body"`
	Author         string `db:"author"`
	FavoritesCount int    `db:"favorites_count"`
	Created        int64  `db:"created"`
	Updated        int64  `db:"updated"`
}

func (r postRow) toPost() *soundbite.Post {
	return &soundbite.Post{
		Slug:           r.Slug,
		Title:          r.Title,
		Description:    r.Description,
		Body:           r.Body,
		Author:         r.Author,
		FavoritesCount: r.FavoritesCount,
		CreatedAt:      time.Unix(0, r.Created).UTC(),
		UpdatedAt:      time.Unix(0, r.Updated).UTC(),
	}
}

func rowFromPost(post *soundbite.Post) postRow {
	return postRow{
		Slug:           post.Slug,
		Title:          post.Title,
		Description:    post.Description,
		Body:           post.Body,
		Author:         post.Author,
		FavoritesCount: post.FavoritesCount,
		Created:        post.CreatedAt.UnixNano(),
		Updated:        post.UpdatedAt.UnixNano(),
	}
}

// Create stores a new post and returns it. It returns
// soundbite.ErrSlugTaken if a post with the same slug already exists.
func (s *PostStore) Create(ctx context.Context, post *soundbite.Post) (*soundbite.Post, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.GetContext(ctx, &exists, "SELECT 1 FROM posts WHERE slug = ?", post.Slug)
	if err == nil {
		return nil, soundbite.ErrSlugTaken
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check slug %s: %w", post.Slug, err)
	}

	row := rowFromPost(post)
	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO posts (slug, title, description, body, author, favorites_count, created, updated)
		VALUES (:slug, :title, :description, :body, :author, :favorites_count, :created, :updated)`, row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert post %s: %w", post.Slug, err)
	}

	if err := insertTags(ctx, tx, post.Slug, post.TagList); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit post %s: %w", post.Slug, err)
	}
	return post, nil
}

// Update replaces an existing post. It returns soundbite.ErrPostNotFound
// if no post with the slug exists.
func (s *PostStore) Update(ctx context.Context, post *soundbite.Post) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := rowFromPost(post)
	res, err := tx.NamedExecContext(ctx, `
		UPDATE posts
		SET title = :title, description = :description, body = :body,
			author = :author, favorites_count = :favorites_count,
			created = :created, updated = :updated
		WHERE slug = :slug`, row)
	if err != nil {
		return fmt.Errorf("failed to update post %s: %w", post.Slug, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update of post %s: %w", post.Slug, err)
	}
	if affected == 0 {
		return soundbite.ErrPostNotFound
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM post_tags WHERE post_slug = ?", post.Slug); err != nil {
		return fmt.Errorf("failed to clear tags for post %s: %w", post.Slug, err)
	}
	if err := insertTags(ctx, tx, post.Slug, post.TagList); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit post %s: %w", post.Slug, err)
	}
	return nil
}

// Delete removes a post and its tag rows. It returns
// soundbite.ErrPostNotFound if no post with the slug exists. Comments are
// the comment store's concern and are removed separately.
func (s *PostStore) Delete(ctx context.Context, slug string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM posts WHERE slug = ?", slug)
	if err != nil {
		return fmt.Errorf("failed to delete post %s: %w", slug, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete of post %s: %w", slug, err)
	}
	if affected == 0 {
		return soundbite.ErrPostNotFound
	}
	return nil
}

// GetBySlug returns the post with the given slug, or
// soundbite.ErrPostNotFound.
func (s *PostStore) GetBySlug(ctx context.Context, slug string) (*soundbite.Post, error) {
	var row postRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM posts WHERE slug = ?", slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, soundbite.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post %s: %w", slug, err)
	}
	return s.hydrate(ctx, row)
}

// List returns posts matching the options, newest first, plus the total
// match count before paging.
func (s *PostStore) List(ctx context.Context, opts soundbite.ListOptions) ([]*soundbite.Post, int, error) {
	opts.Normalize()

	// A present but empty slug constraint can match nothing.
	if opts.Slugs != nil && len(opts.Slugs) == 0 {
		return []*soundbite.Post{}, 0, nil
	}

	base := sq.Select().From("posts")
	if opts.Tag != "" {
		base = base.Where(sq.Expr("slug IN (SELECT post_slug FROM post_tags WHERE tag = ?)", opts.Tag))
	}
	if len(opts.Authors) > 0 {
		base = base.Where(sq.Eq{"author": opts.Authors})
	}
	if opts.Slugs != nil {
		base = base.Where(sq.Eq{"slug": opts.Slugs})
	}

	countSQL, countArgs, err := base.Columns("COUNT(*)").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}
	var total int
	if err := s.db.GetContext(ctx, &total, countSQL, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	listSQL, listArgs, err := base.
		Columns("slug", "title", "description", "body", "author", "favorites_count", "created", "updated").
		OrderBy("created DESC", "slug ASC").
		Limit(uint64(opts.Limit)).
		Offset(uint64(opts.Offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list query: %w", err)
	}

	var rows []postRow
	if err := s.db.SelectContext(ctx, &rows, listSQL, listArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to list posts: %w", err)
	}

	posts := make([]*soundbite.Post, 0, len(rows))
	for _, row := range rows {
		post, err := s.hydrate(ctx, row)
		if err != nil {
			return nil, 0, err
		}
		posts = append(posts, post)
	}
	return posts, total, nil
}

// Tags returns the distinct tags across all posts, sorted.
func (s *PostStore) Tags(ctx context.Context) ([]string, error) {
	tags := []string{}
	err := s.db.SelectContext(ctx, &tags, "SELECT DISTINCT tag FROM post_tags ORDER BY tag")
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// hydrate attaches the tag list and comment id back-references to a post
// row.
func (s *PostStore) hydrate(ctx context.Context, row postRow) (*soundbite.Post, error) {
	post := row.toPost()

	tags := []string{}
	err := s.db.SelectContext(ctx, &tags,
		"SELECT tag FROM post_tags WHERE post_slug = ? ORDER BY position", post.Slug)
	if err != nil {
		return nil, fmt.Errorf("failed to load tags for post %s: %w", post.Slug, err)
	}
	post.TagList = tags

	ids := []string{}
	err = s.db.SelectContext(ctx, &ids,
		"SELECT id FROM comments WHERE post_slug = ? ORDER BY created, id", post.Slug)
	if err != nil {
		return nil, fmt.Errorf("failed to load comment ids for post %s: %w", post.Slug, err)
	}
	post.CommentIDs = ids

	return post, nil
}

func insertTags(ctx context.Context, tx execer, slug string, tags []string) error {
	// OR IGNORE: a repeated tag keeps its first position instead of
	// tripping the primary key.
	for i, tag := range tags {
		_, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO post_tags (post_slug, position, tag) VALUES (?, ?, ?)", slug, i, tag)
		if err != nil {
			return fmt.Errorf("failed to insert tag %s for post %s: %w", tag, slug, err)
		}
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
