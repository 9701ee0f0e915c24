package soundbite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// slugAttempts bounds how often a colliding slug is re-rolled before the
// create fails with a validation error.
const slugAttempts = 3

// CreatePost validates the supplied fields, derives a unique slug from the
// title and persists the post with a zero favorites count. The author is
// the caller; it cannot be supplied in the fields.
func (sb *Soundbite) CreatePost(ctx context.Context, author *User, fields PostFields) (*Post, error) {
	if strings.TrimSpace(fields.Title) == "" {
		return nil, NewValidationError("title", "can't be blank")
	}

	now := time.Now().UTC()
	post := &Post{
		Title:       fields.Title,
		Description: fields.Description,
		Body:        fields.Body,
		TagList:     UniqueTags(fields.TagList),
		Author:      author.Username,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for i := 0; i < slugAttempts; i++ {
		post.Slug = NewSlug(fields.Title)
		created, err := sb.posts.Create(ctx, post)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, ErrSlugTaken) {
			return nil, fmt.Errorf("error creating post: %w", err)
		}
		sb.logger.Warn("slug collision, retrying",
			slog.String("slug", post.Slug),
			slog.String("title", post.Title))
	}

	return nil, NewValidationError("slug", "is already taken")
}

// UpdatePost applies a partial patch to the post. Only the caller who
// authored the post may update it, and only title, description, body and
// tagList can change.
func (sb *Soundbite) UpdatePost(ctx context.Context, post *Post, patch PostPatch, caller *User) (*Post, error) {
	if post.Author != caller.Username {
		return nil, ErrForbidden
	}

	post.Apply(patch)
	post.UpdatedAt = time.Now().UTC()

	if err := sb.posts.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("error updating post %s: %w", post.Slug, err)
	}
	return post, nil
}

// DeletePost removes the post and all of its comments. Only the author may
// delete. The two deletions are not atomic across stores; a crash in
// between leaves the comments gone but the post present, which a retry of
// the delete repairs.
func (sb *Soundbite) DeletePost(ctx context.Context, post *Post, caller *User) error {
	if post.Author != caller.Username {
		return ErrForbidden
	}

	if err := sb.comments.DeleteByPost(ctx, post.Slug); err != nil {
		return fmt.Errorf("error deleting comments for post %s: %w", post.Slug, err)
	}

	if err := sb.posts.Delete(ctx, post.Slug); err != nil {
		return fmt.Errorf("error deleting post %s: %w", post.Slug, err)
	}
	return nil
}

// FavoritePost adds the post to the caller's favorites and recomputes the
// post's favorites count. Favoriting an already-favorited post is a no-op.
func (sb *Soundbite) FavoritePost(ctx context.Context, post *Post, caller *User) (*Post, error) {
	if caller.AddFavorite(post.Slug) {
		if err := sb.users.Update(ctx, caller); err != nil {
			return nil, fmt.Errorf("error saving favorites for %s: %w", caller.Username, err)
		}
	}
	return sb.RecomputeFavoritesCount(ctx, post)
}

// UnfavoritePost removes the post from the caller's favorites and
// recomputes the post's favorites count. Unfavoriting a post that was never
// favorited is a no-op, not an error.
func (sb *Soundbite) UnfavoritePost(ctx context.Context, post *Post, caller *User) (*Post, error) {
	if caller.RemoveFavorite(post.Slug) {
		if err := sb.users.Update(ctx, caller); err != nil {
			return nil, fmt.Errorf("error saving favorites for %s: %w", caller.Username, err)
		}
	}
	return sb.RecomputeFavoritesCount(ctx, post)
}

// RecomputeFavoritesCount recounts the users whose favorites contain this
// post and persists the result. The cached count is never trusted; the user
// store is the source of truth.
func (sb *Soundbite) RecomputeFavoritesCount(ctx context.Context, post *Post) (*Post, error) {
	count, err := sb.users.CountFavoriters(ctx, post.Slug)
	if err != nil {
		return nil, fmt.Errorf("error counting favoriters of %s: %w", post.Slug, err)
	}

	post.FavoritesCount = count
	if err := sb.posts.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("error saving favorites count for %s: %w", post.Slug, err)
	}
	return post, nil
}
