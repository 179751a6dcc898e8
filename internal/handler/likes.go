package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tactics-catalog/internal/domain"
)

// ListLiked returns the device's liked playlists
func (h *Handler) ListLiked(w http.ResponseWriter, r *http.Request) {
	items, err := h.likes.List(r.Context(), deviceID(r))
	if err != nil {
		h.writeServiceError(w, "list liked", err)
		return
	}
	h.writeSuccess(w, items)
}

// GetLiked reports whether the device likes a playlist
func (h *Handler) GetLiked(w http.ResponseWriter, r *http.Request) {
	playlistID := chi.URLParam(r, "playlistID")
	if playlistID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	state, err := h.likes.IsLiked(r.Context(), deviceID(r), playlistID)
	if err != nil {
		h.writeServiceError(w, "is liked", err)
		return
	}
	h.writeSuccess(w, state)
}

// ToggleLike flips the device's like on a playlist
func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	playlistID := chi.URLParam(r, "playlistID")
	if playlistID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	state, err := h.likes.Toggle(r.Context(), deviceID(r), playlistID)
	if err != nil {
		h.writeServiceError(w, "toggle like", err)
		return
	}
	h.writeSuccess(w, state)
}
