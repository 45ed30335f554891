package posts

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrPostNotFound is returned when a post does not exist
	ErrPostNotFound = errors.New("post not found")

	// ErrNotAuthor is returned when a caller tries to delete a post they
	// do not own
	ErrNotAuthor = errors.New("you are not the author of this post")
)

// AuthorType distinguishes user-authored posts from team-authored posts.
type AuthorType string

const (
	AuthorUser AuthorType = "user"
	AuthorTeam AuthorType = "team"
)

// MediaType classifies an attached media item.
type MediaType string

const (
	MediaNone  MediaType = "none"
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// Post is a feed post with resolved author display data.
type Post struct {
	ID                uuid.UUID  `json:"id"`
	AuthorType        AuthorType `json:"author_type"`
	AuthorID          uuid.UUID  `json:"author_id"`
	AuthorName        string     `json:"author_name"`
	AuthorAvatar      *string    `json:"author_avatar"`
	Content           string     `json:"content"`
	MediaType         MediaType  `json:"media_type"`
	MediaURL          *string    `json:"media_url,omitempty"`
	MediaThumbnailURL *string    `json:"media_thumbnail_url,omitempty"`
	LikesCount        int        `json:"likes_count"`
	CommentsCount     int        `json:"comments_count"`
	LikedByMe         bool       `json:"liked_by_me"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Comment is a post comment with resolved author display data.
type Comment struct {
	ID           uuid.UUID `json:"id"`
	PostID       uuid.UUID `json:"post_id"`
	UserID       uuid.UUID `json:"user_id"`
	AuthorName   string    `json:"author_name"`
	AuthorAvatar *string   `json:"author_avatar"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
}
