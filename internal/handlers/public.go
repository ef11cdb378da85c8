package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jeremyjsx/academy/internal/posts"
)

type PublicHandler struct {
	reader *posts.Reader
	logger *slog.Logger
}

func NewPublicHandler(reader *posts.Reader, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{reader: reader, logger: logger}
}

type listResponse struct {
	Posts []*posts.Post `json:"posts"`
	Tags  []string      `json:"tags"`
	Tag   string        `json:"tag,omitempty"`
}

type postDetail struct {
	*posts.Post
	Paragraphs     []string `json:"paragraphs"`
	PublishedLabel string   `json:"published_label"`
}

// List returns published posts. The tag index is built from the
// unfiltered list so the filter controls stay stable.
func (h *PublicHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all := h.reader.ListPublished(r.Context(), "")
		tag := r.URL.Query().Get("tag")
		writeJSON(w, http.StatusOK, listResponse{
			Posts: posts.FilterByTag(all, tag),
			Tags:  posts.TagIndex(all),
			Tag:   tag,
		})
	}
}

func (h *PublicHandler) Tags() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string][]string{"tags": h.reader.Tags(r.Context())})
	}
}

func (h *PublicHandler) Open() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid post id", nil)
			return
		}

		post, err := h.reader.Open(r.Context(), id)
		if err != nil {
			if errors.Is(err, posts.ErrNotFound) {
				writeError(w, r, http.StatusNotFound, "NOT_FOUND", "post not found", nil)
				return
			}
			h.logger.Error("open post failed", "post_id", id, "error", err)
			writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", nil)
			return
		}

		writeJSON(w, http.StatusOK, postDetail{
			Post:           post,
			Paragraphs:     post.Paragraphs(),
			PublishedLabel: post.PublishedLabel(),
		})
	}
}
