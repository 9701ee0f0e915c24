package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hypergopher/soundbite"
)

type commentRow struct {
	ID       string `db:"id"`
	PostSlug string `db:"post_slug"`
	Author   string `db:"author"`
	Body     string `db:"body"`
	Created  int64  `db:"created"`
}

func (r commentRow) toComment() *soundbite.Comment {
	return &soundbite.Comment{
		ID:        r.ID,
		Body:      r.Body,
		Author:    r.Author,
		Post:      r.PostSlug,
		CreatedAt: time.Unix(0, r.Created).UTC(),
	}
}

// Create stores a new comment and returns it.
func (s *CommentStore) Create(ctx context.Context, comment *soundbite.Comment) (*soundbite.Comment, error) {
	row := commentRow{
		ID:       comment.ID,
		PostSlug: comment.Post,
		Author:   comment.Author,
		Body:     comment.Body,
		Created:  comment.CreatedAt.UnixNano(),
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO comments (id, post_slug, author, body, created)
		VALUES (:id, :post_slug, :author, :body, :created)`, row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert comment %s: %w", comment.ID, err)
	}
	return comment, nil
}

// GetByID returns the comment with the given id, or
// soundbite.ErrCommentNotFound.
func (s *CommentStore) GetByID(ctx context.Context, id string) (*soundbite.Comment, error) {
	var row commentRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM comments WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, soundbite.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment %s: %w", id, err)
	}
	return row.toComment(), nil
}

// Delete removes a comment. It returns soundbite.ErrCommentNotFound if no
// comment with the id exists.
func (s *CommentStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM comments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete comment %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete of comment %s: %w", id, err)
	}
	if affected == 0 {
		return soundbite.ErrCommentNotFound
	}
	return nil
}

// DeleteByPost removes all comments attached to the post.
func (s *CommentStore) DeleteByPost(ctx context.Context, slug string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM comments WHERE post_slug = ?", slug); err != nil {
		return fmt.Errorf("failed to delete comments for post %s: %w", slug, err)
	}
	return nil
}
