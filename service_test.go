package soundbite_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypergopher/soundbite"
	"github.com/hypergopher/soundbite/bboltstore"
)

func newTestService(t *testing.T) *soundbite.Soundbite {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := bboltstore.New(t.TempDir(), logger)
	require.NoError(t, store.Init())
	t.Cleanup(func() { _ = store.Close() })
	return soundbite.New(store.Posts(), store.Users(), store.Comments(), logger)
}

func mustRegister(t *testing.T, sb *soundbite.Soundbite, username string) *soundbite.User {
	t.Helper()
	user, err := sb.Register(context.Background(), username, username+"@example.com", "opensesame")
	require.NoError(t, err)
	return user
}

func mustPost(t *testing.T, sb *soundbite.Soundbite, author *soundbite.User, title string, tags ...string) *soundbite.Post {
	t.Helper()
	post, err := sb.CreatePost(context.Background(), author, soundbite.PostFields{
		Title:   title,
		Body:    "body of " + title,
		TagList: tags,
	})
	require.NoError(t, err)
	// Creation timestamps order the listings; keep them distinct.
	time.Sleep(2 * time.Millisecond)
	return post
}

func TestCreatePost(t *testing.T) {
	sb := newTestService(t)
	ctx := context.Background()
	jake := mustRegister(t, sb, "jake")

	t.Run("blank title rejected", func(t *testing.T) {
		_, err := sb.CreatePost(ctx, jake, soundbite.PostFields{Title: "   "})
		v, ok := soundbite.AsValidationError(err)
		require.True(t, ok)
		assert.Contains(t, v.Fields, "title")
	})

	t.Run("derives slug and zeroes the count", func(t *testing.T) {
		post, err := sb.CreatePost(ctx, jake, soundbite.PostFields{
			Title:   "First Take",
			TagList: []string{"demo"},
		})
		require.NoError(t, err)

		assert.Regexp(t, `^first-take-[0-9a-z]{6}$`, post.Slug)
		assert.Equal(t, "jake", post.Author)
		assert.Zero(t, post.FavoritesCount)
		assert.False(t, post.CreatedAt.IsZero())

		got, err := sb.GetPost(ctx, post.Slug)
		require.NoError(t, err)
		assert.Equal(t, post.Title, got.Title)
	})

	t.Run("same title twice yields distinct slugs", func(t *testing.T) {
		a := mustPost(t, sb, jake, "Same Title")
		b := mustPost(t, sb, jake, "Same Title")
		assert.NotEqual(t, a.Slug, b.Slug)
	})

	t.Run("repeated tags collapse", func(t *testing.T) {
		post, err := sb.CreatePost(ctx, jake, soundbite.PostFields{
			Title:   "Loop Pack",
			TagList: []string{"demo", "demo", "lofi"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"demo", "lofi"}, post.TagList)

		got, err := sb.GetPost(ctx, post.Slug)
		require.NoError(t, err)
		assert.Equal(t, []string{"demo", "lofi"}, got.TagList)
	})
}

func TestUpdatePost(t *testing.T) {
	sb := newTestService(t)
	ctx := context.Background()
	jake := mustRegister(t, sb, "jake")
	anna := mustRegister(t, sb, "anna")
	post := mustPost(t, sb, jake, "First Take", "demo")

	t.Run("only the author may update", func(t *testing.T) {
		_, err := sb.UpdatePost(ctx, post, soundbite.PostPatch{}, anna)
		assert.ErrorIs(t, err, soundbite.ErrForbidden)
	})

	t.Run("partial patch leaves the rest alone", func(t *testing.T) {
		desc := "now with a description"
		updated, err := sb.UpdatePost(ctx, post, soundbite.PostPatch{Description: &desc}, jake)
		require.NoError(t, err)

		assert.Equal(t, desc, updated.Description)
		assert.Equal(t, "First Take", updated.Title)
		assert.Equal(t, post.Slug, updated.Slug, "slug never changes")

		got, err := sb.GetPost(ctx, post.Slug)
		require.NoError(t, err)
		assert.Equal(t, desc, got.Description)
		assert.True(t, got.UpdatedAt.After(got.CreatedAt) || got.UpdatedAt.Equal(got.CreatedAt))
	})
}

func TestDeletePost(t *testing.T) {
	sb := newTestService(t)
	ctx := context.Background()
	jake := mustRegister(t, sb, "jake")
	anna := mustRegister(t, sb, "anna")

	keep := mustPost(t, sb, jake, "Keeper")
	doomed := mustPost(t, sb, jake, "Doomed")

	_, err := sb.AddComment(ctx, keep, anna, "nice one")
	require.NoError(t, err)
	doomedComment, err := sb.AddComment(ctx, doomed, anna, "gone soon")
	require.NoError(t, err)

	t.Run("only the author may delete", func(t *testing.T) {
		assert.ErrorIs(t, sb.DeletePost(ctx, doomed, anna), soundbite.ErrForbidden)
	})

	t.Run("delete removes the post and its comments", func(t *testing.T) {
		require.NoError(t, sb.DeletePost(ctx, doomed, jake))

		_, err := sb.GetPost(ctx, doomed.Slug)
		assert.ErrorIs(t, err, soundbite.ErrPostNotFound)

		_, err = sb.GetComment(ctx, keep, doomedComment.ID)
		assert.ErrorIs(t, err, soundbite.ErrCommentNotFound)

		views, err := sb.Comments(ctx, keep, nil)
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, "nice one", views[0].Body)
	})
}

func TestFavorites(t *testing.T) {
	sb := newTestService(t)
	ctx := context.Background()
	jake := mustRegister(t, sb, "jake")
	anna := mustRegister(t, sb, "anna")
	post := mustPost(t, sb, jake, "First Take")

	t.Run("favorite bumps the count once", func(t *testing.T) {
		got, err := sb.FavoritePost(ctx, post, anna)
		require.NoError(t, err)
		assert.Equal(t, 1, got.FavoritesCount)

		got, err = sb.FavoritePost(ctx, post, anna)
		require.NoError(t, err)
		assert.Equal(t, 1, got.FavoritesCount, "favoriting twice must not double-count")
	})

	t.Run("view is viewer-relative", func(t *testing.T) {
		view, err := sb.PostView(ctx, post, anna)
		require.NoError(t, err)
		assert.True(t, view.Favorited)

		view, err = sb.PostView(ctx, post, nil)
		require.NoError(t, err)
		assert.False(t, view.Favorited)
		assert.Equal(t, 1, view.FavoritesCount)
	})

	t.Run("second favoriter counts", func(t *testing.T) {
		got, err := sb.FavoritePost(ctx, post, jake)
		require.NoError(t, err)
		assert.Equal(t, 2, got.FavoritesCount)
	})

	t.Run("unfavorite is idempotent", func(t *testing.T) {
		got, err := sb.UnfavoritePost(ctx, post, anna)
		require.NoError(t, err)
		assert.Equal(t, 1, got.FavoritesCount)

		got, err = sb.UnfavoritePost(ctx, post, anna)
		require.NoError(t, err)
		assert.Equal(t, 1, got.FavoritesCount, "unfavoriting twice is a no-op")
	})
}

func TestListPosts(t *testing.T) {
	sb := newTestService(t)
	ctx := context.Background()
	jake := mustRegister(t, sb, "jake")
	anna := mustRegister(t, sb, "anna")

	first := mustPost(t, sb, jake, "First Take", "demo", "lofi")
	second := mustPost(t, sb, anna, "Second Take", "demo")
	third := mustPost(t, sb, anna, "Third Take", "ambient")

	_, err := sb.FavoritePost(ctx, third, jake)
	require.NoError(t, err)

	t.Run("newest first", func(t *testing.T) {
		posts, total, err := sb.ListPosts(ctx, soundbite.ListQuery{})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, posts, 3)
		assert.Equal(t, third.Slug, posts[0].Slug)
		assert.Equal(t, second.Slug, posts[1].Slug)
		assert.Equal(t, first.Slug, posts[2].Slug)
	})

	t.Run("by tag", func(t *testing.T) {
		posts, total, err := sb.ListPosts(ctx, soundbite.ListQuery{Tag: "demo"})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, posts, 2)
		assert.Equal(t, second.Slug, posts[0].Slug)
		assert.Equal(t, first.Slug, posts[1].Slug)
	})

	t.Run("by author", func(t *testing.T) {
		posts, total, err := sb.ListPosts(ctx, soundbite.ListQuery{Author: "anna"})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		for _, post := range posts {
			assert.Equal(t, "anna", post.Author)
		}
	})

	t.Run("unknown author yields empty page", func(t *testing.T) {
		posts, total, err := sb.ListPosts(ctx, soundbite.ListQuery{Author: "nobody"})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, posts)
	})

	t.Run("by favoriter", func(t *testing.T) {
		posts, total, err := sb.ListPosts(ctx, soundbite.ListQuery{FavoritedBy: "jake"})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, posts, 1)
		assert.Equal(t, third.Slug, posts[0].Slug)
	})

	t.Run("favoriter with no favorites yields empty page", func(t *testing.T) {
		posts, total, err := sb.ListPosts(ctx, soundbite.ListQuery{FavoritedBy: "anna"})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, posts)
	})

	t.Run("unknown favoriter yields empty page", func(t *testing.T) {
		posts, total, err := sb.ListPosts(ctx, soundbite.ListQuery{FavoritedBy: "nobody"})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, posts)
	})

	t.Run("paging keeps the full count", func(t *testing.T) {
		posts, total, err := sb.ListPosts(ctx, soundbite.ListQuery{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Len(t, posts, 2)

		posts, total, err = sb.ListPosts(ctx, soundbite.ListQuery{Limit: 2, Offset: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, posts, 1)
		assert.Equal(t, first.Slug, posts[0].Slug)
	})
}

func TestFeed(t *testing.T) {
	sb := newTestService(t)
	ctx := context.Background()
	jake := mustRegister(t, sb, "jake")
	anna := mustRegister(t, sb, "anna")
	bert := mustRegister(t, sb, "bert")

	mustPost(t, sb, jake, "Mine")
	annas := mustPost(t, sb, anna, "Hers")
	mustPost(t, sb, bert, "His")

	t.Run("following no one yields empty feed", func(t *testing.T) {
		posts, total, err := sb.Feed(ctx, jake, 0, 0)
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, posts)
	})

	t.Run("feed holds followed authors only", func(t *testing.T) {
		_, err := sb.FollowUser(ctx, jake, "anna")
		require.NoError(t, err)

		posts, total, err := sb.Feed(ctx, jake, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, posts, 1)
		assert.Equal(t, annas.Slug, posts[0].Slug)
	})
}

func TestComments(t *testing.T) {
	sb := newTestService(t)
	ctx := context.Background()
	jake := mustRegister(t, sb, "jake")
	anna := mustRegister(t, sb, "anna")
	post := mustPost(t, sb, jake, "First Take")
	other := mustPost(t, sb, jake, "Second Take")

	t.Run("blank body rejected", func(t *testing.T) {
		_, err := sb.AddComment(ctx, post, anna, "  ")
		v, ok := soundbite.AsValidationError(err)
		require.True(t, ok)
		assert.Contains(t, v.Fields, "body")
	})

	older, err := sb.AddComment(ctx, post, anna, "first!")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	newer, err := sb.AddComment(ctx, post, jake, "thanks")
	require.NoError(t, err)

	t.Run("newest first with author profiles", func(t *testing.T) {
		views, err := sb.Comments(ctx, post, anna)
		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, newer.ID, views[0].ID)
		assert.Equal(t, older.ID, views[1].ID)
		assert.Equal(t, "anna", views[1].Author.Username)
	})

	t.Run("comment addressed through the wrong post is not found", func(t *testing.T) {
		_, err := sb.GetComment(ctx, other, older.ID)
		assert.ErrorIs(t, err, soundbite.ErrCommentNotFound)
	})

	t.Run("only the comment author may delete", func(t *testing.T) {
		assert.ErrorIs(t, sb.DeleteComment(ctx, post, older, jake), soundbite.ErrForbidden)
	})

	t.Run("delete removes the comment", func(t *testing.T) {
		require.NoError(t, sb.DeleteComment(ctx, post, older, anna))

		_, err := sb.GetComment(ctx, post, older.ID)
		assert.ErrorIs(t, err, soundbite.ErrCommentNotFound)

		views, err := sb.Comments(ctx, post, nil)
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, newer.ID, views[0].ID)
	})
}

func TestRegisterAndAuthenticate(t *testing.T) {
	sb := newTestService(t)
	ctx := context.Background()

	t.Run("blank fields accumulate", func(t *testing.T) {
		_, err := sb.Register(ctx, "", "", "")
		v, ok := soundbite.AsValidationError(err)
		require.True(t, ok)
		assert.Contains(t, v.Fields, "username")
		assert.Contains(t, v.Fields, "email")
		assert.Contains(t, v.Fields, "password")
	})

	jake := mustRegister(t, sb, "jake")
	assert.NotEqual(t, "opensesame", jake.PasswordHash, "password must be hashed")

	t.Run("duplicate username rejected", func(t *testing.T) {
		_, err := sb.Register(ctx, "jake", "other@example.com", "opensesame")
		v, ok := soundbite.AsValidationError(err)
		require.True(t, ok)
		assert.Contains(t, v.Fields, "username")
	})

	t.Run("valid credentials", func(t *testing.T) {
		user, err := sb.Authenticate(ctx, "jake", "opensesame")
		require.NoError(t, err)
		assert.Equal(t, "jake", user.Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := sb.Authenticate(ctx, "jake", "letmein")
		assert.ErrorIs(t, err, soundbite.ErrInvalidCredentials)
	})

	t.Run("unknown user looks like a wrong password", func(t *testing.T) {
		_, err := sb.Authenticate(ctx, "nobody", "opensesame")
		assert.ErrorIs(t, err, soundbite.ErrInvalidCredentials)
	})
}

func TestFollowing(t *testing.T) {
	sb := newTestService(t)
	ctx := context.Background()
	jake := mustRegister(t, sb, "jake")
	mustRegister(t, sb, "anna")

	t.Run("follow is reflected in the profile", func(t *testing.T) {
		profile, err := sb.FollowUser(ctx, jake, "anna")
		require.NoError(t, err)
		assert.True(t, profile.Following)

		anon, err := sb.ProfileView(ctx, "anna", nil)
		require.NoError(t, err)
		assert.False(t, anon.Following)
	})

	t.Run("follow is idempotent", func(t *testing.T) {
		profile, err := sb.FollowUser(ctx, jake, "anna")
		require.NoError(t, err)
		assert.True(t, profile.Following)
		assert.Equal(t, []string{"anna"}, jake.Following)
	})

	t.Run("unfollow", func(t *testing.T) {
		profile, err := sb.UnfollowUser(ctx, jake, "anna")
		require.NoError(t, err)
		assert.False(t, profile.Following)
	})

	t.Run("unknown target", func(t *testing.T) {
		_, err := sb.FollowUser(ctx, jake, "nobody")
		assert.ErrorIs(t, err, soundbite.ErrUserNotFound)
	})
}

func TestTags(t *testing.T) {
	sb := newTestService(t)
	ctx := context.Background()
	jake := mustRegister(t, sb, "jake")

	first := mustPost(t, sb, jake, "First Take", "demo", "lofi")
	mustPost(t, sb, jake, "Second Take", "demo")

	tags, err := sb.Tags(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"demo", "lofi"}, tags)

	// Dropping the only post carrying a tag retires the tag.
	require.NoError(t, sb.DeletePost(ctx, first, jake))
	tags, err = sb.Tags(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"demo"}, tags)
}
