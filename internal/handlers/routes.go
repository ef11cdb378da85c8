package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/jeremyjsx/academy/internal/gate"
	"github.com/jeremyjsx/academy/internal/middleware"
	"github.com/jeremyjsx/academy/internal/posts"
)

type RouterDeps struct {
	Reader             *posts.Reader
	Editor             *posts.EditorService
	Gate               *gate.Gate
	Health             *HealthDeps
	Logger             *slog.Logger
	DefaultAuthor      string
	CorsAllowedOrigins []string
	// UnlockLimiter throttles failed secrets on every admin route; nil
	// allows 5 failures per minute per RemoteAddr.
	UnlockLimiter *middleware.RateLimiter
}

func NewRouter(deps RouterDeps) http.Handler {
	limiter := deps.UnlockLimiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(5, time.Minute)
	}
	public := NewPublicHandler(deps.Reader, deps.Logger)
	admin := NewAdminHandler(deps.Editor, deps.Gate, limiter, deps.DefaultAuthor, deps.Logger)
	adminOnly := middleware.AdminGate(deps.Gate, limiter)

	mux := http.NewServeMux()
	if deps.Health != nil {
		mux.HandleFunc("GET /health", Health(deps.Health))
	}

	mux.HandleFunc("GET /posts", public.List())
	mux.HandleFunc("GET /posts/tags", public.Tags())
	mux.HandleFunc("GET /posts/{id}", public.Open())

	mux.HandleFunc("POST /admin/unlock", admin.Unlock())
	mux.Handle("GET /admin/posts", adminOnly(admin.List()))
	mux.Handle("POST /admin/posts", adminOnly(admin.Create()))
	mux.Handle("GET /admin/posts/{id}", adminOnly(admin.Get()))
	mux.Handle("PUT /admin/posts/{id}", adminOnly(admin.Update()))
	mux.Handle("PATCH /admin/posts/{id}/publish", adminOnly(admin.TogglePublish()))
	mux.Handle("DELETE /admin/posts/{id}", adminOnly(admin.Delete()))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: deps.CorsAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.AdminSecretHeader, middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}).Handler

	var h http.Handler = mux
	h = corsHandler(h)
	h = middleware.Recover(deps.Logger)(h)
	h = middleware.Logging(deps.Logger)(h)
	h = middleware.RequestID(h)
	return h
}
