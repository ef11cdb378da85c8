package posts

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const DefaultAuthor = "Krishna Flute Academy"

type Post struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Content       string     `json:"content"`
	Excerpt       string     `json:"excerpt"`
	FeaturedImage *string    `json:"featured_image"`
	AuthorName    string     `json:"author_name"`
	AuthorEmail   string     `json:"author_email"`
	Published     bool       `json:"published"`
	PublishedAt   *time.Time `json:"published_at"`
	ViewCount     int64      `json:"view_count"`
	Tags          []string   `json:"tags"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Paragraphs splits content on newlines, the way the reader renders it.
func (p *Post) Paragraphs() []string {
	return strings.Split(p.Content, "\n")
}

// PublishedLabel formats the publish date for display.
func (p *Post) PublishedLabel() string {
	if p.PublishedAt == nil {
		return "Not published"
	}
	return p.PublishedAt.Format("January 2, 2006")
}

type Order string

const (
	ByPublishedAtDesc Order = "published_at_desc"
	ByCreatedAtDesc   Order = "created_at_desc"
)

type ListParams struct {
	PublishedOnly bool
	Order         Order
}
