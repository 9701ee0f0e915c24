package soundbite

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Comment is owned by the comment store; posts only hold back-references to
// comment IDs. A comment knows its owning post and author so access-control
// checks need nothing else.
type Comment struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	Author    string    `json:"author"` // username of the comment author
	Post      string    `json:"post"`   // slug of the owning post
	CreatedAt time.Time `json:"createdAt"`
}

// Serialize serializes the comment to a byte slice.
func (c *Comment) Serialize() ([]byte, error) {
	return json.Marshal(c)
}

// DeserializeComment deserializes the byte slice to a comment.
func DeserializeComment(data []byte) (*Comment, error) {
	var comment Comment
	if err := json.Unmarshal(data, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// CommentView is the public, viewer-relative projection of a comment.
type CommentView struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	Author    Profile   `json:"author"`
}

// NewCommentID returns a random 96-bit hex identifier.
func NewCommentID() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		panic("soundbite: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}
