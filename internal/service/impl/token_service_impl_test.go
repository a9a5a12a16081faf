package impl

import (
	"context"
	"sync"
	"testing"
	"time"

	"farmlink/internal/domain"
	"farmlink/internal/store"

	"github.com/google/uuid"
)

type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*domain.Session
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{sessions: make(map[uuid.UUID]*domain.Session)}
}

func (m *memorySessionStore) Create(ctx context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *s
	m.sessions[s.ID] = &copy
	return nil
}

func (m *memorySessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	copy := *s
	return &copy, nil
}

func (m *memorySessionStore) Revoke(ctx context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return store.ErrRecordNotFound
	}
	s.RevokedAt = &at
	return nil
}

func newTokenService(sessions *memorySessionStore) *TokenServiceImpl {
	return &TokenServiceImpl{
		cfg: TokenConfig{
			Issuer:     "farmlink",
			Audience:   "farmlink-web",
			SessionTTL: time.Hour,
			SigningKey: []byte("test-signing-key-0123456789abcdef"),
		},
		sessions: sessions,
		now:      time.Now,
	}
}

func TestIssueAuthenticateRoundTrip(t *testing.T) {
	sessions := newMemorySessionStore()
	svc := newTokenService(sessions)
	user := &domain.User{ID: uuid.New(), Username: "ada"}

	token, err := svc.Issue(context.Background(), user, "203.0.113.7:4242", "test-agent")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(sessions.sessions) != 1 {
		t.Fatalf("expected one session row, got %d", len(sessions.sessions))
	}

	uid, sid, err := svc.Authenticate(context.Background(), token.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if uid != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, uid)
	}
	if _, ok := sessions.sessions[sid]; !ok {
		t.Fatalf("authenticated session id %s not in store", sid)
	}
}

func TestAuthenticateRejectsRevokedSession(t *testing.T) {
	sessions := newMemorySessionStore()
	svc := newTokenService(sessions)
	user := &domain.User{ID: uuid.New(), Username: "ada"}

	token, err := svc.Issue(context.Background(), user, "", "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	_, sid, err := svc.Authenticate(context.Background(), token.Token)
	if err != nil {
		t.Fatalf("authenticate before revoke: %v", err)
	}

	if err := svc.RevokeSession(context.Background(), sid); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, _, err := svc.Authenticate(context.Background(), token.Token); err == nil {
		t.Fatal("expected revoked session to be rejected")
	}
}

func TestAuthenticateRejectsExpiredSession(t *testing.T) {
	sessions := newMemorySessionStore()
	svc := newTokenService(sessions)
	user := &domain.User{ID: uuid.New(), Username: "ada"}

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	token, err := svc.Issue(context.Background(), user, "", "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	clock = clock.Add(2 * time.Hour)
	if _, _, err := svc.Authenticate(context.Background(), token.Token); err == nil {
		t.Fatal("expected expired session to be rejected")
	}
}

func TestAuthenticateRejectsForgedTokens(t *testing.T) {
	sessions := newMemorySessionStore()
	svc := newTokenService(sessions)
	user := &domain.User{ID: uuid.New(), Username: "ada"}

	token, err := svc.Issue(context.Background(), user, "", "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other := newTokenService(sessions)
	other.cfg.SigningKey = []byte("another-signing-key-for-testing!")
	if _, _, err := other.Authenticate(context.Background(), token.Token); err == nil {
		t.Fatal("expected token signed with a different key to be rejected")
	}

	wrongIssuer := newTokenService(sessions)
	wrongIssuer.cfg.Issuer = "someone-else"
	if _, _, err := wrongIssuer.Authenticate(context.Background(), token.Token); err == nil {
		t.Fatal("expected token with a foreign issuer to be rejected")
	}

	if _, _, err := svc.Authenticate(context.Background(), "not-a-jwt"); err == nil {
		t.Fatal("expected malformed token to be rejected")
	}
}
