package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/tikibase/internal/service"
	"github.com/starford/tikibase/internal/storage"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *service.Service, store storage.Provider, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)
	rh := NewResourceHandler(store)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Report.
	r.Get("/summary", h.Summary)
	r.Get("/issues", h.Issues)
	r.Get("/stats", h.Stats)
	r.Post("/rescan", h.Rescan)
	r.Post("/fix", h.Fix)

	// Documents.
	r.Get("/documents/*", h.GetDocument)
	r.Get("/backlinks/*", h.Backlinks)
	r.Get("/search", h.Search)

	// Raw files such as images.
	r.Get("/files/*", rh.ServeFile)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
