package service

import (
	"context"

	"farmlink/internal/domain"
	"farmlink/internal/dto"
)

type TokenService interface {
	// Issue persists a session row and signs the cookie token bound to it.
	Issue(ctx context.Context, user *domain.User, ip, ua string) (*dto.SessionToken, error)
	// Authenticate validates a cookie token and resolves it to a live session.
	Authenticate(ctx context.Context, token string) (domain.UserID, domain.SessionID, error)
	RevokeSession(ctx context.Context, sessionID domain.SessionID) error
}
