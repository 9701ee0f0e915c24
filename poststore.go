package soundbite

import "context"

// PostStore owns the persistent representation of posts. Implementations
// key posts by slug and keep a newest-first queryable index over author,
// tags and creation time.
type PostStore interface {
	// Create persists a new post. Returns ErrSlugTaken if the slug is in use.
	Create(ctx context.Context, post *Post) (*Post, error)
	// Update persists an existing post. Returns ErrPostNotFound if missing.
	Update(ctx context.Context, post *Post) error
	// Delete removes a post by slug. Returns ErrPostNotFound if missing.
	Delete(ctx context.Context, slug string) error
	// GetBySlug retrieves a post by its slug.
	GetBySlug(ctx context.Context, slug string) (*Post, error)
	// List returns a page of posts matching the options, newest-first, plus
	// the total count matching the filter regardless of paging.
	List(ctx context.Context, opts ListOptions) ([]*Post, int, error)
	// Tags returns the distinct tags currently in use across all posts.
	Tags(ctx context.Context) ([]string, error)
}
