package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/tikibase/internal/apperr"
	"github.com/starford/tikibase/internal/service"
)

// Handler holds API route handlers.
type Handler struct {
	svc *service.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// pathParam extracts the document path from the wildcard part of the URL.
// Supports encoded slashes (e.g. topics%2Fnote.md).
func pathParam(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func internalError(w http.ResponseWriter, msg string, err error, attrs ...any) {
	attrs = append(attrs, slog.String("error", err.Error()))
	slog.Error(msg, attrs...)
	writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
}

// Summary handles GET /api/summary.
//
//	@Summary		Summary of the latest scan
//	@Tags			report
//	@Produce		json
//	@Success		200	{object}	Summary
//	@Security		BearerAuth
//	@Router			/summary [get]
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.Summary(r.Context())
	if err != nil {
		internalError(w, "api: summary failed", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// Issues handles GET /api/issues.
//
//	@Summary		Issues of the latest scan
//	@Tags			report
//	@Produce		json
//	@Param			file	query		string	false	"Only issues of this file"
//	@Success		200		{object}	IssuesResponse
//	@Security		BearerAuth
//	@Router			/issues [get]
func (h *Handler) Issues(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.svc.Issues(r.Context(), r.URL.Query().Get("file"))
	if err != nil {
		internalError(w, "api: issues failed", err)
		return
	}
	writeJSON(w, http.StatusOK, IssuesResponse{Issues: msgs, Total: len(msgs)})
}

// Stats handles GET /api/stats.
//
//	@Summary		Statistics of the latest scan
//	@Tags			report
//	@Produce		json
//	@Success		200	{object}	stats.Stats
//	@Security		BearerAuth
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Stats(r.Context())
	if err != nil {
		internalError(w, "api: stats failed", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// Rescan handles POST /api/rescan.
//
//	@Summary		Rescan the tikibase now
//	@Tags			report
//	@Produce		json
//	@Success		200	{object}	Summary
//	@Security		BearerAuth
//	@Router			/rescan [post]
func (h *Handler) Rescan(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.Refresh(r.Context())
	if err != nil {
		internalError(w, "api: rescan failed", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// Fix handles POST /api/fix.
//
//	@Summary		Apply all available fixes
//	@Tags			report
//	@Produce		json
//	@Success		200	{object}	FixResponse
//	@Security		BearerAuth
//	@Router			/fix [post]
func (h *Handler) Fix(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Fix(r.Context())
	if err != nil {
		internalError(w, "api: fix failed", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GetDocument handles GET /api/documents/*.
//
//	@Summary		Get a single document by path
//	@Tags			documents
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Success		200		{object}	DocumentDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	path := pathParam(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	doc, err := h.svc.Document(r.Context(), path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			internalError(w, "api: get document failed", err, slog.String("path", path))
		}
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Backlinks handles GET /api/backlinks/*.
//
//	@Summary		Documents linking to a path
//	@Tags			documents
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Success		200		{object}	BacklinksResponse
//	@Security		BearerAuth
//	@Router			/backlinks/{path} [get]
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	path := pathParam(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	bl, err := h.svc.Backlinks(r.Context(), path)
	if err != nil {
		internalError(w, "api: backlinks failed", err, slog.String("path", path))
		return
	}
	writeJSON(w, http.StatusOK, BacklinksResponse{Path: path, Backlinks: bl})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across documents
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		internalError(w, "api: search failed", err, slog.String("query", q))
		return
	}
	out := make([]SearchResult, len(results))
	for i, res := range results {
		out[i] = SearchResult(res)
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: out})
}
