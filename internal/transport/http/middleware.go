package http

import (
	"context"
	"net/http"

	"farmlink/internal/domain"

	"github.com/google/uuid"
)

const sessionCookieName = "token"

type ctxKey string

const (
	ctxKeyUserID    ctxKey = "user_id"
	ctxKeySessionID ctxKey = "session_id"
)

// requireAuth resolves the session cookie to an account id and stores it in
// the request context. Requests without a live session never reach the
// services behind it.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			respondFail(w, http.StatusUnauthorized, "not authorized, login again")
			return
		}
		userID, sessionID, err := h.tokens.Authenticate(r.Context(), cookie.Value)
		if err != nil {
			respondFail(w, http.StatusUnauthorized, "not authorized, login again")
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyUserID, userID)
		ctx = context.WithValue(ctx, ctxKeySessionID, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userIDFrom(ctx context.Context) domain.UserID {
	if v, ok := ctx.Value(ctxKeyUserID).(domain.UserID); ok {
		return v
	}
	return uuid.Nil
}

func sessionIDFrom(ctx context.Context) domain.SessionID {
	if v, ok := ctx.Value(ctxKeySessionID).(domain.SessionID); ok {
		return v
	}
	return uuid.Nil
}
