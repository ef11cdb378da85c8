package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jeremyjsx/academy/internal/gate"
	"github.com/jeremyjsx/academy/internal/middleware"
	"github.com/jeremyjsx/academy/internal/posts"
)

const maxUploadBytes = 10 << 20

type AdminHandler struct {
	svc           *posts.EditorService
	gate          *gate.Gate
	limiter       *middleware.RateLimiter
	defaultAuthor string
	logger        *slog.Logger
}

func NewAdminHandler(svc *posts.EditorService, g *gate.Gate, limiter *middleware.RateLimiter, defaultAuthor string, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, gate: g, limiter: limiter, defaultAuthor: defaultAuthor, logger: logger}
}

// DraftRequest carries form fields. Absent fields keep the draft's value.
type DraftRequest struct {
	Title       *string   `json:"title"`
	Slug        *string   `json:"slug"`
	Content     *string   `json:"content"`
	Excerpt     *string   `json:"excerpt"`
	AuthorName  *string   `json:"author_name"`
	AuthorEmail *string   `json:"author_email"`
	Published   *bool     `json:"published"`
	Tags        *[]string `json:"tags"`
	RemoveImage bool      `json:"remove_image"`
}

func (req DraftRequest) apply(ed posts.Editor, svc *posts.EditorService) posts.Editor {
	if req.Title != nil {
		ed = ed.SetTitle(*req.Title)
	}
	if req.Slug != nil {
		ed = ed.SetSlug(*req.Slug)
	}
	if req.Content != nil {
		ed = ed.SetContent(*req.Content)
	}
	if req.Excerpt != nil {
		ed = ed.SetExcerpt(*req.Excerpt)
	}
	if req.AuthorName != nil || req.AuthorEmail != nil {
		d := ed.Draft()
		name, email := d.AuthorName, d.AuthorEmail
		if req.AuthorName != nil {
			name = *req.AuthorName
		}
		if req.AuthorEmail != nil {
			email = *req.AuthorEmail
		}
		ed = ed.SetAuthor(name, email)
	}
	if req.Tags != nil {
		for _, t := range ed.Draft().Tags {
			ed = ed.RemoveTag(t)
		}
		for _, t := range *req.Tags {
			ed = ed.AddTag(t)
		}
	}
	if req.RemoveImage {
		ed = ed.RemoveImage()
	}
	if req.Published != nil {
		ed = ed.SetPublished(*req.Published, svc.Now())
	}
	return ed
}

type saveResponse struct {
	Post  *posts.Post   `json:"post"`
	Posts []*posts.Post `json:"posts"`
}

// Unlock lets the admin UI check a secret before showing the editor.
func (h *AdminHandler) Unlock() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Secret string `json:"secret"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
			return
		}
		c, err := middleware.Unlock(h.gate, h.limiter, r, req.Secret)
		if errors.Is(err, middleware.ErrRateLimited) {
			middleware.WriteRateLimited(w, r)
			return
		}
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid admin secret", nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"unlocked": true, "granted_at": c.GrantedAt()})
	}
}

func (h *AdminHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := h.svc.List(r.Context(), middleware.CapabilityFrom(r.Context()))
		if err != nil {
			h.writeServiceError(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"posts": list})
	}
}

func (h *AdminHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		post, err := h.svc.Get(r.Context(), middleware.CapabilityFrom(r.Context()), id)
		if err != nil {
			h.writeServiceError(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusOK, post)
	}
}

func (h *AdminHandler) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, image, cleanup, ok := decodeDraft(w, r)
		if !ok {
			return
		}
		defer cleanup()

		ed := req.apply(posts.Editor{}.NewDraft(h.defaultAuthor), h.svc)
		h.save(w, r, ed.AttachImage(image), http.StatusCreated)
	}
}

func (h *AdminHandler) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		req, image, cleanup, ok := decodeDraft(w, r)
		if !ok {
			return
		}
		defer cleanup()

		existing, err := h.svc.Get(r.Context(), middleware.CapabilityFrom(r.Context()), id)
		if err != nil {
			h.writeServiceError(w, r, err, "")
			return
		}
		ed := req.apply(posts.Editor{}.EditPost(existing), h.svc)
		h.save(w, r, ed.AttachImage(image), http.StatusOK)
	}
}

// TogglePublish flips the published flag of a stored post and saves it.
func (h *AdminHandler) TogglePublish() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		existing, err := h.svc.Get(r.Context(), middleware.CapabilityFrom(r.Context()), id)
		if err != nil {
			h.writeServiceError(w, r, err, "")
			return
		}
		h.save(w, r, posts.Editor{}.EditPost(existing).TogglePublish(h.svc.Now()), http.StatusOK)
	}
}

func (h *AdminHandler) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
		list, err := h.svc.Delete(r.Context(), middleware.CapabilityFrom(r.Context()), id, confirmed)
		if err != nil {
			h.writeServiceError(w, r, err, "")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"posts": list})
	}
}

func (h *AdminHandler) save(w http.ResponseWriter, r *http.Request, ed posts.Editor, status int) {
	ed, res, err := h.svc.Save(r.Context(), middleware.CapabilityFrom(r.Context()), ed)
	if err != nil {
		h.writeServiceError(w, r, err, ed.Message())
		return
	}
	writeJSON(w, status, saveResponse{Post: res.Post, Posts: res.Posts})
}

func (h *AdminHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, message string) {
	switch {
	case errors.Is(err, posts.ErrValidation):
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", message, map[string]string{
			"title":   "required",
			"content": "required",
		})
	case errors.Is(err, posts.ErrLocked):
		writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid admin secret", nil)
	case errors.Is(err, posts.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "post not found", nil)
	case errors.Is(err, posts.ErrSlugExists):
		writeError(w, r, http.StatusConflict, "CONFLICT", "slug already exists", nil)
	case errors.Is(err, posts.ErrSaveInProgress):
		writeError(w, r, http.StatusConflict, "SAVE_IN_PROGRESS", "a save for this post is already running", nil)
	case errors.Is(err, posts.ErrConfirmationRequired):
		writeError(w, r, http.StatusBadRequest, "CONFIRMATION_REQUIRED", "pass confirm=true to delete", nil)
	default:
		h.logger.Error("admin operation failed", "path", r.URL.Path, "error", err)
		if message == "" {
			message = err.Error()
		}
		writeError(w, r, http.StatusBadGateway, "STORE_ERROR", message, nil)
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid post id", nil)
		return uuid.Nil, false
	}
	return id, true
}

// decodeDraft reads a JSON body, or a multipart form with the draft
// JSON in the "post" field and an optional "image" file.
func decodeDraft(w http.ResponseWriter, r *http.Request) (DraftRequest, *posts.ImageFile, func(), bool) {
	var req DraftRequest
	noop := func() {}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
			return req, nil, noop, false
		}
		return req, nil, noop, true
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid multipart form", nil)
		return req, nil, noop, false
	}
	cleanup := func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}
	if raw := r.FormValue("post"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req); err != nil {
			cleanup()
			writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid post field", nil)
			return req, nil, noop, false
		}
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil, cleanup, true
	}
	if err != nil {
		cleanup()
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid image upload", nil)
		return req, nil, noop, false
	}
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		_ = file.Close()
		cleanup()
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "only image files can be uploaded", map[string]string{"image": "must be an image"})
		return req, nil, noop, false
	}
	image := &posts.ImageFile{
		Filename:    header.Filename,
		ContentType: contentType,
		Body:        file,
	}
	return req, image, func() { _ = file.Close(); cleanup() }, true
}
