package posts

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Reader serves published posts to the public site.
type Reader struct {
	repo   Repository
	logger *slog.Logger
}

func NewReader(repo Repository, logger *slog.Logger) *Reader {
	return &Reader{repo: repo, logger: logger}
}

// ListPublished returns published posts, newest first, optionally
// narrowed to one tag. Store failures are logged and produce an empty list.
func (r *Reader) ListPublished(ctx context.Context, tag string) []*Post {
	list, err := r.repo.List(ctx, ListParams{PublishedOnly: true, Order: ByPublishedAtDesc})
	if err != nil {
		r.logger.Error("fetch published posts failed", "error", err)
		return []*Post{}
	}
	return FilterByTag(list, tag)
}

func (r *Reader) Tags(ctx context.Context) []string {
	return TagIndex(r.ListPublished(ctx, ""))
}

// Open returns a published post and bumps its view count by one.
// The increment is a read-then-write and its failure is only logged.
func (r *Reader) Open(ctx context.Context, id uuid.UUID) (*Post, error) {
	post, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.Published {
		return nil, ErrNotFound
	}
	if err := r.repo.SetViewCount(ctx, post.ID, post.ViewCount+1); err != nil {
		r.logger.Error("increment view count failed", "post_id", post.ID, "error", err)
	}
	return post, nil
}
