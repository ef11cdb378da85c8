package posts

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jeremyjsx/academy/internal/events"
	"github.com/jeremyjsx/academy/internal/gate"
	"github.com/jeremyjsx/academy/internal/storage"
)

// EditorService runs the store calls planned by an Editor.
type EditorService struct {
	repo      Repository
	storage   storage.Storage
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewEditorService(repo Repository, st storage.Storage, pub events.Publisher, logger *slog.Logger) *EditorService {
	if pub == nil {
		pub = events.NoopPublisher{}
	}
	return &EditorService{
		repo:      repo,
		storage:   st,
		publisher: pub,
		logger:    logger,
		now:       time.Now,
		inflight:  make(map[string]struct{}),
	}
}

// Now is the clock used for publish stamps and image keys.
func (s *EditorService) Now() time.Time {
	return s.now()
}

type SaveResult struct {
	Post  *Post
	Posts []*Post
}

// List returns every post, drafts included, newest first.
func (s *EditorService) List(ctx context.Context, c gate.Capability) ([]*Post, error) {
	if !c.Valid() {
		return nil, ErrLocked
	}
	return s.repo.List(ctx, ListParams{Order: ByCreatedAtDesc})
}

func (s *EditorService) Get(ctx context.Context, c gate.Capability, id uuid.UUID) (*Post, error) {
	if !c.Valid() {
		return nil, ErrLocked
	}
	return s.repo.GetByID(ctx, id)
}

// Save executes ed's save. On success the returned editor is idle and
// the result carries the stored post and the refreshed admin list. On
// failure the editor is back in drafting with the error message.
func (s *EditorService) Save(ctx context.Context, c gate.Capability, ed Editor) (Editor, *SaveResult, error) {
	if !c.Valid() {
		return ed, nil, ErrLocked
	}
	now := s.now()
	ed, plan, err := ed.BeginSave(now)
	if err != nil {
		return ed, nil, err
	}

	key := lockKey(plan)
	if !s.acquire(key) {
		return ed.Fail(ErrSaveInProgress), nil, ErrSaveInProgress
	}
	defer s.release(key)

	saved, err := s.execute(ctx, plan, now)
	if err != nil {
		s.logger.Error("save post failed", "post_id", plan.Post.ID, "slug", plan.Post.Slug, "error", err)
		return ed.Fail(err), nil, err
	}

	if plan.Publishing {
		s.announce(ctx, saved)
	}

	return ed.Complete(), &SaveResult{Post: saved, Posts: s.refresh(ctx)}, nil
}

func (s *EditorService) execute(ctx context.Context, plan *SavePlan, now time.Time) (*Post, error) {
	post := plan.Post
	if plan.Image != nil {
		url, err := s.uploadImage(ctx, plan.Image, now)
		if err != nil {
			return nil, err
		}
		post.FeaturedImage = &url
	}
	if plan.Op == OpInsert {
		return s.repo.Insert(ctx, post)
	}
	return s.repo.Update(ctx, post)
}

// uploadImage stores f under a fresh key. A later row write failure
// leaves the object orphaned.
func (s *EditorService) uploadImage(ctx context.Context, f *ImageFile, now time.Time) (string, error) {
	key := ImageKey(now, f.Filename)
	contentType := f.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(key))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.storage.Upload(ctx, key, f.Body, contentType); err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return s.storage.PublicURL(key), nil
}

func (s *EditorService) announce(ctx context.Context, p *Post) {
	publishedAt := s.now()
	if p.PublishedAt != nil {
		publishedAt = *p.PublishedAt
	}
	e := events.NewPostPublished(p.ID, p.Slug, p.Title, p.Excerpt, publishedAt)
	if err := s.publisher.PublishPostPublished(ctx, e); err != nil {
		s.logger.Error("publish post.published failed", "post_id", p.ID, "error", err)
	}
}

// refresh reloads the admin list. A failed refresh is logged; the write
// it follows has already succeeded.
func (s *EditorService) refresh(ctx context.Context) []*Post {
	list, err := s.repo.List(ctx, ListParams{Order: ByCreatedAtDesc})
	if err != nil {
		s.logger.Error("refresh admin posts failed", "error", err)
		return nil
	}
	return list
}

// Delete hard-deletes a post once the caller has confirmed it.
func (s *EditorService) Delete(ctx context.Context, c gate.Capability, id uuid.UUID, confirmed bool) ([]*Post, error) {
	if !c.Valid() {
		return nil, ErrLocked
	}
	if !confirmed {
		return nil, ErrConfirmationRequired
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("delete post failed", "post_id", id, "error", err)
		return nil, err
	}
	return s.refresh(ctx), nil
}

func (s *EditorService) acquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[key]; busy {
		return false
	}
	s.inflight[key] = struct{}{}
	return true
}

func (s *EditorService) release(key string) {
	s.mu.Lock()
	delete(s.inflight, key)
	s.mu.Unlock()
}

func lockKey(plan *SavePlan) string {
	if plan.Op == OpInsert {
		return "new:" + plan.Post.Slug
	}
	return plan.Post.ID.String()
}

// ImageKey names an uploaded image: unix millis, the slugified base
// name, and the extension exactly as given.
func ImageKey(now time.Time, filename string) string {
	filename = filepath.Base(filename)
	ext := filepath.Ext(filename)
	base := Slugify(strings.TrimSuffix(filename, ext))
	if base == "" {
		base = "image"
	}
	if ext != "" && Slugify(ext) == "" {
		ext = ""
	}
	return fmt.Sprintf("%d-%s%s", now.UnixMilli(), base, ext)
}
