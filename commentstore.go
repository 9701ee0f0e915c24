package soundbite

import "context"

// CommentStore owns comments, keyed by comment ID.
type CommentStore interface {
	// Create persists a new comment.
	Create(ctx context.Context, comment *Comment) (*Comment, error)
	// GetByID retrieves a comment by its ID.
	GetByID(ctx context.Context, id string) (*Comment, error)
	// Delete removes a comment by ID. Returns ErrCommentNotFound if missing.
	Delete(ctx context.Context, id string) error
	// DeleteByPost removes every comment owned by the given post slug.
	DeleteByPost(ctx context.Context, slug string) error
}
