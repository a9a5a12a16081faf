package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"farmlink/internal/dto"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (h *Handler) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFail(w, http.StatusBadRequest, "bad request")
		return
	}
	raw := strings.TrimSpace(req.OtherUserID)
	if raw == "" {
		respondFail(w, http.StatusOK, "otherUserId required")
		return
	}
	otherID, err := uuid.Parse(raw)
	if err != nil {
		respondFail(w, http.StatusOK, "invalid otherUserId")
		return
	}
	conv, err := h.chat.GetOrCreate(r.Context(), userIDFrom(r.Context()), otherID)
	if err != nil {
		h.failDomain(w, r, "get or create conversation", err)
		return
	}
	respondOK(w, map[string]any{"conversation": conv})
}

func (h *Handler) handleListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.chat.ListConversations(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		h.failDomain(w, r, "list conversations", err)
		return
	}
	respondOK(w, map[string]any{"conversations": convs})
}

func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req dto.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFail(w, http.StatusBadRequest, "bad request")
		return
	}
	if strings.TrimSpace(req.ConversationID) == "" || strings.TrimSpace(req.Content) == "" {
		respondFail(w, http.StatusOK, "conversationId and content required")
		return
	}
	convID, err := uuid.Parse(strings.TrimSpace(req.ConversationID))
	if err != nil {
		respondFail(w, http.StatusOK, "invalid conversationId")
		return
	}
	msg, err := h.chat.Send(r.Context(), userIDFrom(r.Context()), convID, req.Content)
	if err != nil {
		h.failDomain(w, r, "send message", err)
		return
	}
	respondOK(w, map[string]any{"message": msg})
}

func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	convID, err := uuid.Parse(chi.URLParam(r, "conversationID"))
	if err != nil {
		respondFail(w, http.StatusOK, "invalid conversationId")
		return
	}
	msgs, err := h.chat.ListMessages(r.Context(), userIDFrom(r.Context()), convID)
	if err != nil {
		h.failDomain(w, r, "list messages", err)
		return
	}
	respondOK(w, map[string]any{"messages": msgs})
}
