package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"farmlink/internal/dto"
)

func (h *Handler) setSessionCookie(w http.ResponseWriter, token *dto.SessionToken) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token.Token,
		Path:     "/",
		Expires:  token.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: sameSiteFor(h.cfg.SecureCookies),
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: sameSiteFor(h.cfg.SecureCookies),
	})
}

// Cross-site cookies need SameSite=None, which browsers only accept on secure
// connections; plain HTTP dev setups get Lax.
func sameSiteFor(secure bool) http.SameSite {
	if secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFail(w, http.StatusBadRequest, "bad request")
		return
	}
	res, token, err := h.auth.Register(r.Context(), req, r.RemoteAddr, r.UserAgent())
	if err != nil {
		h.failDomain(w, r, "register", err)
		return
	}
	h.setSessionCookie(w, token)
	respondOK(w, map[string]any{
		"message": "user registered successfully",
		"userId":  res.UserID,
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFail(w, http.StatusBadRequest, "bad request")
		return
	}
	token, err := h.auth.Login(r.Context(), req, r.RemoteAddr, r.UserAgent())
	if err != nil {
		h.failDomain(w, r, "login", err)
		return
	}
	h.setSessionCookie(w, token)
	respondOK(w, nil)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	// Revoke the backing session when the cookie still resolves to one;
	// clearing the cookie succeeds either way.
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if _, sessionID, err := h.tokens.Authenticate(r.Context(), cookie.Value); err == nil {
			if err := h.auth.Logout(r.Context(), sessionID); err != nil {
				slog.Warn("session revoke failed", "error", err)
			}
		}
	}
	h.clearSessionCookie(w)
	respondOK(w, map[string]any{"message": "user logged out"})
}

func (h *Handler) handleSendVerifyCode(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.SendVerifyCode(r.Context(), userIDFrom(r.Context())); err != nil {
		h.failDomain(w, r, "send verify code", err)
		return
	}
	respondOK(w, map[string]any{"message": "verification code sent to your email"})
}

func (h *Handler) handleVerifyAccount(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFail(w, http.StatusBadRequest, "bad request")
		return
	}
	if err := h.auth.VerifyAccount(r.Context(), userIDFrom(r.Context()), req.Code); err != nil {
		h.failDomain(w, r, "verify account", err)
		return
	}
	respondOK(w, map[string]any{"message": "account verified successfully"})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	profile, err := h.auth.Me(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		h.failDomain(w, r, "me", err)
		return
	}
	respondOK(w, map[string]any{"user": profile})
}

// failDomain reports a service error in-band: HTTP 200, success=false, and
// the error text as the message, mirroring the envelope clients parse.
func (h *Handler) failDomain(w http.ResponseWriter, r *http.Request, op string, err error) {
	slog.Info("request failed", "op", op, "path", r.URL.Path, "error", err)
	respondFail(w, http.StatusOK, err.Error())
}
