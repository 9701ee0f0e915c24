package soundbite_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypergopher/soundbite"
)

func strPtr(s string) *string { return &s }

func TestPostApply(t *testing.T) {
	base := func() *soundbite.Post {
		return &soundbite.Post{
			Slug:        "first-take-abc123",
			Title:       "First Take",
			Description: "a short one",
			Body:        "hello",
			TagList:     []string{"demo", "lofi"},
			Author:      "jake",
		}
	}

	t.Run("patches only supplied fields", func(t *testing.T) {
		post := base()
		post.Apply(soundbite.PostPatch{Title: strPtr("Second Take")})

		assert.Equal(t, "Second Take", post.Title)
		assert.Equal(t, "a short one", post.Description)
		assert.Equal(t, "hello", post.Body)
		assert.Equal(t, []string{"demo", "lofi"}, post.TagList)
	})

	t.Run("empty patch changes nothing", func(t *testing.T) {
		post := base()
		post.Apply(soundbite.PostPatch{})
		assert.Equal(t, base(), post)
	})

	t.Run("tag list replaced wholesale", func(t *testing.T) {
		post := base()
		tags := []string{"ambient"}
		post.Apply(soundbite.PostPatch{TagList: &tags})
		assert.Equal(t, []string{"ambient"}, post.TagList)
	})

	t.Run("repeated tags collapse to first occurrence", func(t *testing.T) {
		post := base()
		tags := []string{"ambient", "demo", "ambient"}
		post.Apply(soundbite.PostPatch{TagList: &tags})
		assert.Equal(t, []string{"ambient", "demo"}, post.TagList)
	})

	t.Run("empty string is a real value", func(t *testing.T) {
		post := base()
		post.Apply(soundbite.PostPatch{Description: strPtr("")})
		assert.Empty(t, post.Description)
	})
}

func TestPostCommentRefs(t *testing.T) {
	post := &soundbite.Post{Slug: "first-take-abc123"}

	assert.True(t, post.AddComment("c1"))
	assert.True(t, post.AddComment("c2"))
	assert.False(t, post.AddComment("c1"), "duplicate ref must not be added")
	assert.Equal(t, []string{"c1", "c2"}, post.CommentIDs)

	assert.True(t, post.RemoveComment("c1"))
	assert.False(t, post.RemoveComment("c1"), "removing twice is a no-op")
	assert.Equal(t, []string{"c2"}, post.CommentIDs)
}

func TestPostHasTag(t *testing.T) {
	post := &soundbite.Post{TagList: []string{"demo", "lofi"}}
	assert.True(t, post.HasTag("lofi"))
	assert.False(t, post.HasTag("jazz"))
}

func TestPostSerializeRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	post := &soundbite.Post{
		Slug:           "first-take-abc123",
		Title:          "First Take",
		TagList:        []string{"demo"},
		Author:         "jake",
		FavoritesCount: 2,
		CommentIDs:     []string{"c1"},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	data, err := post.Serialize()
	require.NoError(t, err)

	got, err := soundbite.DeserializePost(data)
	require.NoError(t, err)
	assert.Equal(t, post, got)
}
