package soundbite

import (
	"context"
	"errors"
	"fmt"
)

// ListQuery is the caller-facing form of a post listing: usernames instead
// of resolved identities, zero values meaning "no filter".
type ListQuery struct {
	Tag         string
	Author      string
	FavoritedBy string
	Limit       int
	Offset      int
}

// GetPost retrieves a post by slug.
func (sb *Soundbite) GetPost(ctx context.Context, slug string) (*Post, error) {
	return sb.posts.GetBySlug(ctx, slug)
}

// ListPosts resolves the query's usernames against the user store and
// returns a newest-first page of matching posts plus the total count for
// the filter. A tag, author or favoritedBy filter that matches nothing
// yields an empty page, not an error.
func (sb *Soundbite) ListPosts(ctx context.Context, q ListQuery) ([]*Post, int, error) {
	opts := ListOptions{Tag: q.Tag, Limit: q.Limit, Offset: q.Offset}
	opts.Normalize()

	if q.Author != "" {
		author, err := sb.users.GetByUsername(ctx, q.Author)
		if errors.Is(err, ErrUserNotFound) {
			return []*Post{}, 0, nil
		}
		if err != nil {
			return nil, 0, fmt.Errorf("error resolving author %s: %w", q.Author, err)
		}
		opts.Authors = []string{author.Username}
	}

	if q.FavoritedBy != "" {
		favoriter, err := sb.users.GetByUsername(ctx, q.FavoritedBy)
		if errors.Is(err, ErrUserNotFound) {
			return []*Post{}, 0, nil
		}
		if err != nil {
			return nil, 0, fmt.Errorf("error resolving favoriter %s: %w", q.FavoritedBy, err)
		}
		if len(favoriter.Favorites) == 0 {
			return []*Post{}, 0, nil
		}
		opts.Slugs = favoriter.Favorites
	}

	return sb.posts.List(ctx, opts)
}

// Feed returns a newest-first page of posts authored by users the caller
// follows. A caller following no one gets an empty page.
func (sb *Soundbite) Feed(ctx context.Context, caller *User, limit, offset int) ([]*Post, int, error) {
	if len(caller.Following) == 0 {
		return []*Post{}, 0, nil
	}

	opts := ListOptions{Authors: caller.Following, Limit: limit, Offset: offset}
	opts.Normalize()
	return sb.posts.List(ctx, opts)
}

// Tags returns the distinct tags in use across all posts.
func (sb *Soundbite) Tags(ctx context.Context) ([]string, error) {
	return sb.posts.Tags(ctx)
}

// PostView projects a post for the given viewer. The author profile is
// resolved from the user store; a dangling author reference degrades to a
// bare username rather than failing the whole response.
func (sb *Soundbite) PostView(ctx context.Context, post *Post, viewer *User) (PostView, error) {
	profile := Profile{Username: post.Author}
	author, err := sb.users.GetByUsername(ctx, post.Author)
	switch {
	case err == nil:
		profile = author.ProfileFor(viewer)
	case !errors.Is(err, ErrUserNotFound):
		return PostView{}, fmt.Errorf("error resolving author of %s: %w", post.Slug, err)
	}

	tagList := post.TagList
	if tagList == nil {
		tagList = []string{}
	}

	return PostView{
		Slug:           post.Slug,
		Title:          post.Title,
		Description:    post.Description,
		Body:           post.Body,
		CreatedAt:      post.CreatedAt,
		UpdatedAt:      post.UpdatedAt,
		TagList:        tagList,
		Favorited:      viewer != nil && viewer.IsFavorite(post.Slug),
		FavoritesCount: post.FavoritesCount,
		Author:         profile,
	}, nil
}

// PostViews projects a slice of posts for the given viewer.
func (sb *Soundbite) PostViews(ctx context.Context, posts []*Post, viewer *User) ([]PostView, error) {
	views := make([]PostView, 0, len(posts))
	for _, post := range posts {
		view, err := sb.PostView(ctx, post, viewer)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}
