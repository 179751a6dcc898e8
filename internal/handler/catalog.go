package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/tactics-catalog/internal/domain"
)

// GetHome returns the landing page sections
func (h *Handler) GetHome(w http.ResponseWriter, r *http.Request) {
	home, err := h.catalog.Home(r.Context())
	if err != nil {
		h.writeServiceError(w, "home", err)
		return
	}
	h.writeSuccess(w, home)
}

// Search runs a one-shot search over playlists and tactics
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if len(query) > maxQueryLength {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	h.writeSuccess(w, h.catalog.Search(r.Context(), query))
}

// GetPlaylist returns a playlist with its matching tactics
func (h *Handler) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	playlistID := chi.URLParam(r, "playlistID")
	if playlistID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	page, err := h.catalog.PlaylistPage(r.Context(), deviceID(r), playlistID)
	if err != nil {
		h.writeServiceError(w, "playlist page", err)
		return
	}
	h.writeSuccess(w, page)
}

// GetStyle returns the playlists and tactics carrying a tag
func (h *Handler) GetStyle(w http.ResponseWriter, r *http.Request) {
	tag := strings.TrimSpace(chi.URLParam(r, "tag"))
	if tag == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	results, err := h.catalog.Style(r.Context(), tag)
	if err != nil {
		h.writeServiceError(w, "style", err)
		return
	}
	h.writeSuccess(w, results)
}

// GetPage returns a static informational page
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	page, err := h.catalog.Page(chi.URLParam(r, "name"))
	if err != nil {
		h.writeServiceError(w, "page", err)
		return
	}
	h.writeSuccess(w, page)
}
