package handler

import (
	"net/http"

	"github.com/armystay/hotels/internal/apperr"
	"github.com/armystay/hotels/internal/middleware"
	"github.com/armystay/hotels/internal/normalize"
)

type bookmarkRequest struct {
	HotelID string `json:"hotel_id" validate:"required,max=200"`
}

func (h *Handler) userID(r *http.Request) (string, error) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok || p.UserID == "" {
		return "", apperr.Unauthorized("sign in required")
	}
	return p.UserID, nil
}

// ListBookmarks handles GET /api/bookmarks.
func (h *Handler) ListBookmarks(w http.ResponseWriter, r *http.Request) {
	user, err := h.userID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	list, err := h.bookmarks.List(r.Context(), user)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"bookmarks": list})
}

// AddBookmark handles POST /api/bookmarks.
func (h *Handler) AddBookmark(w http.ResponseWriter, r *http.Request) {
	user, err := h.userID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req bookmarkRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	b, err := h.bookmarks.Add(r.Context(), user, req.HotelID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, b)
}

// RemoveBookmark handles DELETE /api/bookmarks.
func (h *Handler) RemoveBookmark(w http.ResponseWriter, r *http.Request) {
	user, err := h.userID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req bookmarkRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.bookmarks.Remove(r.Context(), user, req.HotelID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BookmarkedHotels handles GET /api/bookmarks/hotels. Bookmarks of hotels
// no longer in the catalog are skipped.
func (h *Handler) BookmarkedHotels(w http.ResponseWriter, r *http.Request) {
	user, err := h.userID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	list, err := h.bookmarks.List(r.Context(), user)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	items := make([]normalize.Item, 0, len(list))
	for _, b := range list {
		item, err := h.catalog.Get(r.Context(), b.HotelID)
		if apperr.KindOf(err) == apperr.KindNotFound {
			continue
		}
		if err != nil {
			h.fail(w, r, err)
			return
		}
		items = append(items, item)
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"items": items})
}
