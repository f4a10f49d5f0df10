package api

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/starford/tikibase/internal/storage"
)

// ResourceHandler serves raw files of the tikibase, such as linked images.
type ResourceHandler struct {
	store storage.Provider
}

// NewResourceHandler creates a handler reading through store.
func NewResourceHandler(store storage.Provider) *ResourceHandler {
	return &ResourceHandler{store: store}
}

// ServeFile handles GET /files/*.
func (h *ResourceHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	rel := pathParam(r)
	if rel == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if hiddenPath(rel) {
		http.NotFound(w, r)
		return
	}
	abs, err := h.store.Abs(rel)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid path"))
		return
	}
	info, err := os.Stat(abs)
	if errors.Is(err, os.ErrNotExist) || (err == nil && info.IsDir()) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}

// hiddenPath reports whether any element of rel starts with a dot.
func hiddenPath(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") && part != ".." {
			return true
		}
	}
	return false
}
