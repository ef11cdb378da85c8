package posts

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

type State int

const (
	StateIdle State = iota
	StateDrafting
	StateSaving
)

func (s State) String() string {
	switch s {
	case StateDrafting:
		return "drafting"
	case StateSaving:
		return "saving"
	default:
		return "idle"
	}
}

// ImageFile is a local image chosen for upload on the next save.
type ImageFile struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Draft holds the editable fields of a post. A zero ID means the post
// has not been stored yet.
type Draft struct {
	ID            uuid.UUID
	Title         string
	Slug          string
	Content       string
	Excerpt       string
	FeaturedImage *string
	AuthorName    string
	AuthorEmail   string
	Published     bool
	PublishedAt   *time.Time
	Tags          []string
}

func (d Draft) IsNew() bool {
	return d.ID == uuid.Nil
}

// Editor is the admin form. Every transition returns a new Editor; the
// receiver is never modified.
type Editor struct {
	state        State
	draft        Draft
	customSlug   bool
	wasPublished bool
	pending      *ImageFile
	removeImage  bool
	message      string
}

func (e Editor) State() State    { return e.state }
func (e Editor) Draft() Draft    { return e.draft }
func (e Editor) Message() string { return e.message }

// PendingImage is the image that will be uploaded on save, if any.
func (e Editor) PendingImage() *ImageFile { return e.pending }

// NewDraft opens the form on an empty post.
func (e Editor) NewDraft(author string) Editor {
	if author == "" {
		author = DefaultAuthor
	}
	return Editor{
		state: StateDrafting,
		draft: Draft{AuthorName: author, Tags: []string{}},
	}
}

// EditPost opens the form on a stored post, fields copied verbatim.
func (e Editor) EditPost(p *Post) Editor {
	d := Draft{
		ID:            p.ID,
		Title:         p.Title,
		Slug:          p.Slug,
		Content:       p.Content,
		Excerpt:       p.Excerpt,
		FeaturedImage: p.FeaturedImage,
		AuthorName:    p.AuthorName,
		AuthorEmail:   p.AuthorEmail,
		Published:     p.Published,
		PublishedAt:   p.PublishedAt,
		Tags:          slices.Clone(p.Tags),
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	return Editor{
		state:        StateDrafting,
		draft:        d,
		customSlug:   p.Slug != "",
		wasPublished: p.Published,
	}
}

func (e Editor) drafting() bool { return e.state == StateDrafting }

// SetTitle updates the title and, while the post is new and has no
// custom slug, re-derives the slug from it.
func (e Editor) SetTitle(title string) Editor {
	if !e.drafting() {
		return e
	}
	e.draft.Title = title
	if e.draft.IsNew() && !e.customSlug {
		e.draft.Slug = Slugify(title)
	}
	return e
}

// SetSlug stores an explicit slug. Clearing it hands slug generation
// back to the title.
func (e Editor) SetSlug(slug string) Editor {
	if !e.drafting() {
		return e
	}
	e.draft.Slug = slug
	e.customSlug = slug != ""
	return e
}

func (e Editor) SetContent(content string) Editor {
	if !e.drafting() {
		return e
	}
	e.draft.Content = content
	return e
}

func (e Editor) SetExcerpt(excerpt string) Editor {
	if !e.drafting() {
		return e
	}
	e.draft.Excerpt = excerpt
	return e
}

func (e Editor) SetAuthor(name, email string) Editor {
	if !e.drafting() {
		return e
	}
	e.draft.AuthorName = name
	e.draft.AuthorEmail = email
	return e
}

func (e Editor) AddTag(tag string) Editor {
	if !e.drafting() {
		return e
	}
	e.draft.Tags, _ = AddTag(e.draft.Tags, tag)
	return e
}

func (e Editor) RemoveTag(tag string) Editor {
	if !e.drafting() {
		return e
	}
	e.draft.Tags = RemoveTag(e.draft.Tags, tag)
	return e
}

// AttachImage queues f for upload. It replaces any earlier pending file
// and cancels a pending removal.
func (e Editor) AttachImage(f *ImageFile) Editor {
	if !e.drafting() || f == nil {
		return e
	}
	e.pending = f
	e.removeImage = false
	return e
}

// RemoveImage clears the featured image on save and drops any pending upload.
func (e Editor) RemoveImage() Editor {
	if !e.drafting() {
		return e
	}
	e.pending = nil
	e.removeImage = true
	e.draft.FeaturedImage = nil
	return e
}

// SetPublished sets the publish flag. The first transition to true
// stamps published_at; later transitions never clear or reset it.
func (e Editor) SetPublished(published bool, now time.Time) Editor {
	if !e.drafting() {
		return e
	}
	e.draft.Published = published
	if published && e.draft.PublishedAt == nil {
		t := now.UTC()
		e.draft.PublishedAt = &t
	}
	return e
}

func (e Editor) TogglePublish(now time.Time) Editor {
	return e.SetPublished(!e.draft.Published, now)
}

// Cancel closes the form and discards unsaved changes.
func (e Editor) Cancel() Editor {
	return Editor{}
}

type SaveOp int

const (
	OpInsert SaveOp = iota
	OpUpdate
)

// SavePlan lists the store calls a save needs, in execution order:
// the optional image upload, then the row insert or update.
type SavePlan struct {
	Op    SaveOp
	Post  *Post
	Image *ImageFile
	// Publishing is true when this save moves the post from draft to published.
	Publishing bool
}

const validationMessage = "Title and content are required!"

// BeginSave validates the draft and moves to saving. A validation
// failure keeps the form open with a message and plans no store calls.
func (e Editor) BeginSave(now time.Time) (Editor, *SavePlan, error) {
	switch e.state {
	case StateSaving:
		return e, nil, ErrSaveInProgress
	case StateIdle:
		return e, nil, ErrNotDrafting
	}
	if strings.TrimSpace(e.draft.Title) == "" || strings.TrimSpace(e.draft.Content) == "" {
		e.message = validationMessage
		return e, nil, ErrValidation
	}

	if e.draft.Slug == "" {
		e.draft.Slug = Slugify(e.draft.Title)
	}
	if e.draft.Published && e.draft.PublishedAt == nil {
		t := now.UTC()
		e.draft.PublishedAt = &t
	}

	d := e.draft
	post := &Post{
		ID:            d.ID,
		Title:         d.Title,
		Slug:          d.Slug,
		Content:       d.Content,
		Excerpt:       d.Excerpt,
		FeaturedImage: d.FeaturedImage,
		AuthorName:    d.AuthorName,
		AuthorEmail:   d.AuthorEmail,
		Published:     d.Published,
		PublishedAt:   d.PublishedAt,
		Tags:          slices.Clone(d.Tags),
	}
	if e.removeImage {
		post.FeaturedImage = nil
	}

	plan := &SavePlan{
		Op:         OpUpdate,
		Post:       post,
		Image:      e.pending,
		Publishing: d.Published && !e.wasPublished,
	}
	if d.IsNew() {
		plan.Op = OpInsert
	}

	e.state = StateSaving
	e.message = ""
	return e, plan, nil
}

// Complete closes the form after a successful save.
func (e Editor) Complete() Editor {
	if e.state != StateSaving {
		return e
	}
	return Editor{}
}

// Fail returns to drafting with the store's error message so the save
// can be retried.
func (e Editor) Fail(err error) Editor {
	if e.state != StateSaving {
		return e
	}
	e.state = StateDrafting
	if err != nil {
		e.message = err.Error()
	}
	return e
}
