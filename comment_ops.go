package soundbite

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// AddComment creates a comment owned by the post and the caller and appends
// it to the post's comment list. The two writes are not atomic; a crash in
// between leaves a comment persisted but undetached, which Comments skips
// over harmlessly.
func (sb *Soundbite) AddComment(ctx context.Context, post *Post, caller *User, body string) (*Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, NewValidationError("body", "can't be blank")
	}

	comment := &Comment{
		ID:        NewCommentID(),
		Body:      body,
		Author:    caller.Username,
		Post:      post.Slug,
		CreatedAt: time.Now().UTC(),
	}

	created, err := sb.comments.Create(ctx, comment)
	if err != nil {
		return nil, fmt.Errorf("error creating comment on %s: %w", post.Slug, err)
	}

	post.AddComment(created.ID)
	if err := sb.posts.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("error attaching comment to %s: %w", post.Slug, err)
	}
	return created, nil
}

// DeleteComment removes the comment from the post's list and deletes it.
// Only the comment's author may delete it.
func (sb *Soundbite) DeleteComment(ctx context.Context, post *Post, comment *Comment, caller *User) error {
	if comment.Author != caller.Username {
		return ErrForbidden
	}

	if post.RemoveComment(comment.ID) {
		if err := sb.posts.Update(ctx, post); err != nil {
			return fmt.Errorf("error detaching comment from %s: %w", post.Slug, err)
		}
	}

	if err := sb.comments.Delete(ctx, comment.ID); err != nil {
		return fmt.Errorf("error deleting comment %s: %w", comment.ID, err)
	}
	return nil
}

// GetComment retrieves a comment by ID and verifies it belongs to the post.
// A comment addressed through the wrong post is NotFound, not someone
// else's comment.
func (sb *Soundbite) GetComment(ctx context.Context, post *Post, id string) (*Comment, error) {
	comment, err := sb.comments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.Post != post.Slug {
		return nil, ErrCommentNotFound
	}
	return comment, nil
}

// Comments returns the post's comments newest-first, projected for the
// given viewer. Dangling comment references are skipped.
func (sb *Soundbite) Comments(ctx context.Context, post *Post, viewer *User) ([]CommentView, error) {
	comments := make([]*Comment, 0, len(post.CommentIDs))
	for _, id := range post.CommentIDs {
		comment, err := sb.comments.GetByID(ctx, id)
		if errors.Is(err, ErrCommentNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("error loading comment %s: %w", id, err)
		}
		comments = append(comments, comment)
	}

	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.After(comments[j].CreatedAt)
	})

	// Author profiles repeat across comments, so resolve each username once.
	profiles := make(map[string]Profile)
	views := make([]CommentView, 0, len(comments))
	for _, comment := range comments {
		profile, ok := profiles[comment.Author]
		if !ok {
			profile = Profile{Username: comment.Author}
			author, err := sb.users.GetByUsername(ctx, comment.Author)
			switch {
			case err == nil:
				profile = author.ProfileFor(viewer)
			case !errors.Is(err, ErrUserNotFound):
				return nil, fmt.Errorf("error resolving commenter %s: %w", comment.Author, err)
			}
			profiles[comment.Author] = profile
		}

		views = append(views, CommentView{
			ID:        comment.ID,
			Body:      comment.Body,
			CreatedAt: comment.CreatedAt,
			Author:    profile,
		})
	}
	return views, nil
}
