package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var _ Repository = (*postgresRepository)(nil)

const uniqueViolation = "23505"

const postColumns = `id, title, slug, content, excerpt, featured_image, author_name, author_email,
	published, published_at, view_count, tags, created_at, updated_at`

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(sqlDB *sql.DB) Repository {
	return &postgresRepository{db: sqlDB}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*Post, error) {
	var (
		p             Post
		featuredImage sql.NullString
		publishedAt   sql.NullTime
		tags          pq.StringArray
	)
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &featuredImage,
		&p.AuthorName, &p.AuthorEmail, &p.Published, &publishedAt,
		&p.ViewCount, &tags, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if featuredImage.Valid {
		p.FeaturedImage = &featuredImage.String
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		p.PublishedAt = &t
	}
	p.Tags = []string(tags)
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return &p, nil
}

func listQuery(params ListParams) string {
	query := `SELECT ` + postColumns + ` FROM blog_posts`
	if params.PublishedOnly {
		query += ` WHERE published = true`
	}
	switch params.Order {
	case ByPublishedAtDesc:
		query += ` ORDER BY published_at DESC NULLS LAST`
	default:
		query += ` ORDER BY created_at DESC`
	}
	return query
}

func (r *postgresRepository) List(ctx context.Context, params ListParams) ([]*Post, error) {
	rows, err := r.db.QueryContext(ctx, listQuery(params))
	if err != nil {
		return nil, fmt.Errorf("select blog_posts: %w", err)
	}
	defer rows.Close()

	list := []*Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan blog_posts: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM blog_posts WHERE id = $1`, id)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get blog_post: %w", err)
	}
	return p, nil
}

func (r *postgresRepository) Insert(ctx context.Context, p *Post) (*Post, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO blog_posts (title, slug, content, excerpt, featured_image, author_name,
			author_email, published, published_at, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+postColumns,
		p.Title, p.Slug, p.Content, p.Excerpt, nullString(p.FeaturedImage), p.AuthorName,
		p.AuthorEmail, p.Published, p.PublishedAt, pq.Array(nonNil(p.Tags)),
	)
	created, err := scanPost(row)
	if err != nil {
		return nil, mapWriteError("insert blog_post", err)
	}
	return created, nil
}

func (r *postgresRepository) Update(ctx context.Context, p *Post) (*Post, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE blog_posts SET title = $2, slug = $3, content = $4, excerpt = $5,
			featured_image = $6, author_name = $7, author_email = $8, published = $9,
			published_at = $10, tags = $11, updated_at = now()
		WHERE id = $1
		RETURNING `+postColumns,
		p.ID, p.Title, p.Slug, p.Content, p.Excerpt, nullString(p.FeaturedImage), p.AuthorName,
		p.AuthorEmail, p.Published, p.PublishedAt, pq.Array(nonNil(p.Tags)),
	)
	updated, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, mapWriteError("update blog_post", err)
	}
	return updated, nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM blog_posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete blog_post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete blog_post: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetViewCount writes an absolute count. The caller computes it from a
// prior read, so concurrent opens can under-count.
func (r *postgresRepository) SetViewCount(ctx context.Context, id uuid.UUID, count int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE blog_posts SET view_count = $2 WHERE id = $1`, id, count)
	if err != nil {
		return fmt.Errorf("update view_count: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func mapWriteError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrSlugExists
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
