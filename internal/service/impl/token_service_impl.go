package impl

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"farmlink/internal/domain"
	"farmlink/internal/dto"
	"farmlink/internal/netutil"
	"farmlink/internal/observability/middleware"
	"farmlink/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenConfig struct {
	Issuer     string
	Audience   string
	SessionTTL time.Duration
	SigningKey []byte // HS256 secret
}

// SessionClaims bind the cookie JWT to a sessions row; revoking the row
// invalidates the token before its expiry.
type SessionClaims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

type TokenServiceImpl struct {
	cfg      TokenConfig
	sessions sessionStore
	now      func() time.Time
}

type sessionStore interface {
	Create(ctx context.Context, s *domain.Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	Revoke(ctx context.Context, id uuid.UUID, at time.Time) error
}

func NewTokenServiceHS256(cfg TokenConfig, st *store.Store) *TokenServiceImpl {
	return &TokenServiceImpl{cfg: cfg, sessions: st.Sessions(), now: time.Now}
}

var errInvalidToken = errors.New("invalid token")

// Issue creates a session row and signs a cookie token bound to it.
func (t *TokenServiceImpl) Issue(ctx context.Context, user *domain.User, ip, ua string) (*dto.SessionToken, error) {
	ip = normalizeIP(ip)
	ua = netutil.TruncateUserAgent(ua)
	now := t.now().UTC()

	sess := &domain.Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		ExpiresAt: now.Add(t.cfg.SessionTTL),
		CreatedAt: now,
		IP:        ip,
		UserAgent: ua,
	}
	if err := t.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}

	claims := SessionClaims{
		SID: sess.ID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.cfg.Issuer,
			Subject:   user.ID.String(),
			Audience:  jwt.ClaimStrings{t.cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.cfg.SigningKey)
	if err != nil {
		return nil, err
	}

	slog.Info("issued session",
		"session_id", sess.ID,
		"user_id", user.ID,
		"request_id", middleware.RequestIDFromContext(ctx),
		"trace_id", middleware.TraceIDFromContext(ctx),
	)

	return &dto.SessionToken{Token: signed, ExpiresAt: sess.ExpiresAt}, nil
}

// Authenticate validates the cookie JWT and checks the backing session row is
// neither revoked nor expired.
func (t *TokenServiceImpl) Authenticate(ctx context.Context, token string) (domain.UserID, domain.SessionID, error) {
	claims := &SessionClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parsed, err := parser.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return t.cfg.SigningKey, nil
	})
	if err != nil || !parsed.Valid {
		return uuid.Nil, uuid.Nil, errInvalidToken
	}
	if claims.Issuer != t.cfg.Issuer {
		return uuid.Nil, uuid.Nil, errInvalidToken
	}
	if !containsAudience(claims.Audience, t.cfg.Audience) {
		return uuid.Nil, uuid.Nil, errInvalidToken
	}

	sid, err := uuid.Parse(claims.SID)
	if err != nil {
		return uuid.Nil, uuid.Nil, errInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, uuid.Nil, errInvalidToken
	}

	sess, err := t.sessions.GetByID(ctx, sid)
	if err != nil {
		return uuid.Nil, uuid.Nil, errInvalidToken
	}
	if !sess.Live(t.now().UTC()) || sess.UserID != userID {
		return uuid.Nil, uuid.Nil, errInvalidToken
	}
	return userID, sid, nil
}

func (t *TokenServiceImpl) RevokeSession(ctx context.Context, sessionID domain.SessionID) error {
	return t.sessions.Revoke(ctx, sessionID, t.now().UTC())
}

func containsAudience(aud jwt.ClaimStrings, expected string) bool {
	for _, a := range aud {
		if a == expected {
			return true
		}
	}
	return false
}

func normalizeIP(ip string) string {
	if normalized, ok := netutil.NormalizeIP(ip); ok {
		return normalized
	}
	return strings.TrimSpace(ip)
}
