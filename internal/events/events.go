package events

import (
	"time"

	"github.com/google/uuid"
)

const TypePostPublished = "post.published"

type PostPublishedPayload struct {
	PostID      uuid.UUID `json:"post_id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Excerpt     string    `json:"excerpt,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

type PostPublished struct {
	Type      string               `json:"type"`
	Timestamp time.Time            `json:"timestamp"`
	Payload   PostPublishedPayload `json:"payload"`
}

func NewPostPublished(postID uuid.UUID, slug, title, excerpt string, publishedAt time.Time) PostPublished {
	return PostPublished{
		Type:      TypePostPublished,
		Timestamp: time.Now().UTC(),
		Payload: PostPublishedPayload{
			PostID:      postID,
			Slug:        slug,
			Title:       title,
			Excerpt:     excerpt,
			PublishedAt: publishedAt.UTC(),
		},
	}
}
