package service

import (
	"context"

	"farmlink/internal/domain"
	"farmlink/internal/dto"
)

type AuthService interface {
	Register(ctx context.Context, r dto.RegisterRequest, ip, ua string) (*dto.RegisterResponse, *dto.SessionToken, error)
	Login(ctx context.Context, r dto.LoginRequest, ip, ua string) (*dto.SessionToken, error)
	Logout(ctx context.Context, sessionID domain.SessionID) error
	SendVerifyCode(ctx context.Context, userID domain.UserID) error
	VerifyAccount(ctx context.Context, userID domain.UserID, code string) error
	Me(ctx context.Context, userID domain.UserID) (*dto.UserProfile, error)
}
