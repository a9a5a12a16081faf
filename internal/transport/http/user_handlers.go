package http

import (
	"encoding/json"
	"net/http"

	"farmlink/internal/dto"
)

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.users.Profile(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		h.failDomain(w, r, "profile", err)
		return
	}
	respondOK(w, map[string]any{"user": profile})
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFail(w, http.StatusBadRequest, "bad request")
		return
	}
	profile, err := h.users.UpdateProfile(r.Context(), userIDFrom(r.Context()), req)
	if err != nil {
		h.failDomain(w, r, "update profile", err)
		return
	}
	if h.cache != nil {
		h.cache.Invalidate("/api/users/public")
	}
	respondOK(w, map[string]any{"user": profile})
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.Search(r.Context(), r.URL.Query().Get("username"))
	if err != nil {
		h.failDomain(w, r, "user search", err)
		return
	}
	respondOK(w, map[string]any{"users": users})
}

func (h *Handler) handlePublicList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.PublicList(r.Context())
	if err != nil {
		h.failDomain(w, r, "public list", err)
		return
	}
	respondOK(w, map[string]any{"users": users})
}

func (h *Handler) handlePublicSearch(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.PublicSearch(r.Context(), r.URL.Query().Get("username"))
	if err != nil {
		h.failDomain(w, r, "public search", err)
		return
	}
	respondOK(w, map[string]any{"users": users})
}
