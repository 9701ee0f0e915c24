package soundbite

import (
	"encoding/json"
	"slices"
	"time"
)

// Post is an audio post: the primary content entity. The slug is derived
// from the title at creation time and never changes afterwards, and the
// author reference is immutable as well. FavoritesCount is a cached
// projection of the user favorites relation; it is recomputed from the user
// store after every favorite mutation and never trusted as a source of
// truth on write.
type Post struct {
	Slug           string    `json:"slug"`           // Slug is the unique, URL-safe, lowercase identifier
	Title          string    `json:"title"`          // Title is the post title the slug was derived from
	Description    string    `json:"description"`    // Description is a short summary
	Body           string    `json:"body"`           // Body is the post content
	TagList        []string  `json:"tagList"`        // TagList holds tags in the order they were supplied
	Author         string    `json:"author"`         // Author is the username of the owning user
	FavoritesCount int       `json:"favoritesCount"` // FavoritesCount is the cached number of favoriters
	CommentIDs     []string  `json:"commentIDs"`     // CommentIDs are back-references to comments owned by the comment store
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// PostFields are the caller-supplied fields of a new post. Everything else
// on Post is derived or maintained by the service.
type PostFields struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Body        string   `json:"body"`
	TagList     []string `json:"tagList"`
}

// PostPatch is a partial update of a post. Nil fields are left untouched,
// including TagList.
type PostPatch struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Body        *string   `json:"body"`
	TagList     *[]string `json:"tagList"`
}

// Apply copies the non-nil patch fields onto the post.
func (p *Post) Apply(patch PostPatch) {
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Body != nil {
		p.Body = *patch.Body
	}
	if patch.TagList != nil {
		p.TagList = UniqueTags(*patch.TagList)
	}
}

// UniqueTags drops repeated tags, keeping the first occurrence of each.
// Tag lists are sets; callers may still send the same tag twice.
func UniqueTags(tagList []string) []string {
	seen := make(map[string]struct{}, len(tagList))
	unique := make([]string, 0, len(tagList))
	for _, tag := range tagList {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		unique = append(unique, tag)
	}
	return unique
}

// HasTag returns true if the post's tag list contains the given tag.
func (p *Post) HasTag(tag string) bool {
	return slices.Contains(p.TagList, tag)
}

// HasComment returns true if the post references the given comment.
func (p *Post) HasComment(id string) bool {
	return slices.Contains(p.CommentIDs, id)
}

// AddComment appends a comment back-reference. Returns false if the
// reference was already present.
func (p *Post) AddComment(id string) bool {
	if p.HasComment(id) {
		return false
	}
	p.CommentIDs = append(p.CommentIDs, id)
	return true
}

// RemoveComment drops a comment back-reference. Returns false if the
// reference was not present.
func (p *Post) RemoveComment(id string) bool {
	i := slices.Index(p.CommentIDs, id)
	if i < 0 {
		return false
	}
	p.CommentIDs = slices.Delete(p.CommentIDs, i, i+1)
	return true
}

// Serialize serializes the post to a byte slice.
func (p *Post) Serialize() ([]byte, error) {
	return json.Marshal(p)
}

// DeserializePost deserializes the byte slice to a post.
func DeserializePost(data []byte) (*Post, error) {
	var post Post
	if err := json.Unmarshal(data, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// PostView is the public, viewer-relative projection of a post. Favorited
// is true only when the requesting viewer has the post in their favorites.
type PostView struct {
	Slug           string    `json:"slug"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	TagList        []string  `json:"tagList"`
	Favorited      bool      `json:"favorited"`
	FavoritesCount int       `json:"favoritesCount"`
	Author         Profile   `json:"author"`
}
