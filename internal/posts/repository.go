package posts

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the table side of the content store.
type Repository interface {
	List(ctx context.Context, params ListParams) ([]*Post, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Post, error)
	Insert(ctx context.Context, p *Post) (*Post, error)
	Update(ctx context.Context, p *Post) (*Post, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetViewCount(ctx context.Context, id uuid.UUID, count int64) error
}
