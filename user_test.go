package soundbite_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypergopher/soundbite"
)

func TestUserFavorites(t *testing.T) {
	user := &soundbite.User{Username: "jake"}

	assert.True(t, user.AddFavorite("first-take-abc123"))
	assert.False(t, user.AddFavorite("first-take-abc123"), "favoriting twice must not double-count")
	assert.True(t, user.IsFavorite("first-take-abc123"))

	assert.True(t, user.RemoveFavorite("first-take-abc123"))
	assert.False(t, user.RemoveFavorite("first-take-abc123"), "unfavoriting twice is a no-op")
	assert.False(t, user.IsFavorite("first-take-abc123"))
}

func TestUserFollowing(t *testing.T) {
	user := &soundbite.User{Username: "jake"}

	assert.True(t, user.Follow("anna"))
	assert.False(t, user.Follow("anna"))
	assert.True(t, user.IsFollowing("anna"))

	assert.True(t, user.Unfollow("anna"))
	assert.False(t, user.Unfollow("anna"))
	assert.False(t, user.IsFollowing("anna"))
}

func TestUserSerializeKeepsPasswordHash(t *testing.T) {
	user := &soundbite.User{
		Username:     "jake",
		Email:        "jake@example.com",
		PasswordHash: "$2a$10$something",
		Favorites:    []string{"first-take-abc123"},
	}

	data, err := user.Serialize()
	require.NoError(t, err)
	assert.Contains(t, string(data), "$2a$10$something")

	got, err := soundbite.DeserializeUser(data)
	require.NoError(t, err)
	assert.Equal(t, user.PasswordHash, got.PasswordHash)
	assert.Equal(t, user.Username, got.Username)
	assert.Equal(t, user.Favorites, got.Favorites)
}

func TestProfileFor(t *testing.T) {
	target := &soundbite.User{Username: "anna", Bio: "makes noise"}

	t.Run("anonymous viewer", func(t *testing.T) {
		profile := target.ProfileFor(nil)
		assert.Equal(t, "anna", profile.Username)
		assert.False(t, profile.Following)
	})

	t.Run("following viewer", func(t *testing.T) {
		viewer := &soundbite.User{Username: "jake", Following: []string{"anna"}}
		assert.True(t, target.ProfileFor(viewer).Following)
	})

	t.Run("non-following viewer", func(t *testing.T) {
		viewer := &soundbite.User{Username: "jake"}
		assert.False(t, target.ProfileFor(viewer).Following)
	})
}
