package soundbite

import (
	"encoding/json"
	"slices"
	"time"
)

// User is an account known to this backend. Favorites holds post slugs and
// Following holds usernames; both are sets kept in insertion order.
type User struct {
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Bio          string    `json:"bio"`
	Image        string    `json:"image"`
	Favorites    []string  `json:"favorites"`
	Following    []string  `json:"following"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsFavorite returns true if the given post slug is in the user's favorites.
func (u *User) IsFavorite(slug string) bool {
	return slices.Contains(u.Favorites, slug)
}

// AddFavorite adds a post slug to the favorites set. Returns false if it
// was already present, so favoriting twice never double-counts.
func (u *User) AddFavorite(slug string) bool {
	if u.IsFavorite(slug) {
		return false
	}
	u.Favorites = append(u.Favorites, slug)
	return true
}

// RemoveFavorite removes a post slug from the favorites set. Returns false
// if it was not present.
func (u *User) RemoveFavorite(slug string) bool {
	i := slices.Index(u.Favorites, slug)
	if i < 0 {
		return false
	}
	u.Favorites = slices.Delete(u.Favorites, i, i+1)
	return true
}

// IsFollowing returns true if the user follows the given username.
func (u *User) IsFollowing(username string) bool {
	return slices.Contains(u.Following, username)
}

// Follow adds a username to the following set. Returns false if already
// followed.
func (u *User) Follow(username string) bool {
	if u.IsFollowing(username) {
		return false
	}
	u.Following = append(u.Following, username)
	return true
}

// Unfollow removes a username from the following set. Returns false if it
// was not followed.
func (u *User) Unfollow(username string) bool {
	i := slices.Index(u.Following, username)
	if i < 0 {
		return false
	}
	u.Following = slices.Delete(u.Following, i, i+1)
	return true
}

// Serialize serializes the user, including the password hash, for storage.
func (u *User) Serialize() ([]byte, error) {
	type stored User // shed the json:"-" on PasswordHash
	s := stored(*u)
	return json.Marshal(struct {
		stored
		PasswordHash string `json:"passwordHash"`
	}{s, u.PasswordHash})
}

// DeserializeUser deserializes a stored user.
func DeserializeUser(data []byte) (*User, error) {
	type stored User
	var s struct {
		stored
		PasswordHash string `json:"passwordHash"`
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	user := User(s.stored)
	user.PasswordHash = s.PasswordHash
	return &user, nil
}

// Profile is the viewer-relative public projection of a user.
type Profile struct {
	Username  string `json:"username"`
	Bio       string `json:"bio"`
	Image     string `json:"image"`
	Following bool   `json:"following"`
}

// ProfileFor projects the user for the given viewer. Viewer may be nil for
// anonymous requests, in which case Following is always false.
func (u *User) ProfileFor(viewer *User) Profile {
	return Profile{
		Username:  u.Username,
		Bio:       u.Bio,
		Image:     u.Image,
		Following: viewer != nil && viewer.IsFollowing(u.Username),
	}
}
