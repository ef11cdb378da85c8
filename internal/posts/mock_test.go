package posts

import (
	"context"
	"io"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jeremyjsx/academy/internal/events"
)

type mockRepo struct {
	list         func(ctx context.Context, params ListParams) ([]*Post, error)
	getByID      func(ctx context.Context, id uuid.UUID) (*Post, error)
	insert       func(ctx context.Context, p *Post) (*Post, error)
	update       func(ctx context.Context, p *Post) (*Post, error)
	delete       func(ctx context.Context, id uuid.UUID) error
	setViewCount func(ctx context.Context, id uuid.UUID, count int64) error
	calls        int
}

func (m *mockRepo) List(ctx context.Context, params ListParams) ([]*Post, error) {
	m.calls++
	if m.list != nil {
		return m.list(ctx, params)
	}
	return nil, nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	m.calls++
	if m.getByID != nil {
		return m.getByID(ctx, id)
	}
	return nil, ErrNotFound
}

func (m *mockRepo) Insert(ctx context.Context, p *Post) (*Post, error) {
	m.calls++
	if m.insert != nil {
		return m.insert(ctx, p)
	}
	return p, nil
}

func (m *mockRepo) Update(ctx context.Context, p *Post) (*Post, error) {
	m.calls++
	if m.update != nil {
		return m.update(ctx, p)
	}
	return p, nil
}

func (m *mockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.calls++
	if m.delete != nil {
		return m.delete(ctx, id)
	}
	return nil
}

func (m *mockRepo) SetViewCount(ctx context.Context, id uuid.UUID, count int64) error {
	m.calls++
	if m.setViewCount != nil {
		return m.setViewCount(ctx, id, count)
	}
	return nil
}

type mockStorage struct {
	upload func(ctx context.Context, key string, body io.Reader, contentType string) error
	exists func(ctx context.Context, key string) (bool, error)
	calls  int
}

func (m *mockStorage) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	m.calls++
	if m.upload != nil {
		return m.upload(ctx, key, body, contentType)
	}
	return nil
}

func (m *mockStorage) Exists(ctx context.Context, key string) (bool, error) {
	if m.exists != nil {
		return m.exists(ctx, key)
	}
	return false, nil
}

func (m *mockStorage) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

type mockPublisher struct {
	published []events.PostPublished
	err       error
}

func (m *mockPublisher) PublishPostPublished(_ context.Context, e events.PostPublished) error {
	m.published = append(m.published, e)
	return m.err
}

// memRepo is a Repository over a map, for lifecycle tests.
type memRepo struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]*Post
	order []uuid.UUID
}

func newMemRepo(seed ...*Post) *memRepo {
	r := &memRepo{rows: make(map[uuid.UUID]*Post)}
	for _, p := range seed {
		cp := *p
		r.rows[p.ID] = &cp
		r.order = append(r.order, p.ID)
	}
	return r
}

func (r *memRepo) List(_ context.Context, params ListParams) ([]*Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*Post{}
	for i := len(r.order) - 1; i >= 0; i-- {
		p := r.rows[r.order[i]]
		if p == nil || (params.PublishedOnly && !p.Published) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	if params.Order == ByPublishedAtDesc {
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i].PublishedAt, out[j].PublishedAt
			if a == nil || b == nil {
				return b == nil && a != nil
			}
			return a.After(*b)
		})
	}
	return out, nil
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (*Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memRepo) Insert(_ context.Context, p *Post) (*Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	cp.ID = uuid.New()
	r.rows[cp.ID] = &cp
	r.order = append(r.order, cp.ID)
	out := cp
	return &out, nil
}

func (r *memRepo) Update(_ context.Context, p *Post) (*Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.rows[p.ID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	cp.ViewCount = old.ViewCount
	r.rows[p.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *memRepo) SetViewCount(_ context.Context, id uuid.UUID, count int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return ErrNotFound
	}
	p.ViewCount = count
	return nil
}
