package service

import (
	"context"

	"farmlink/internal/domain"
	"farmlink/internal/dto"
)

type UserService interface {
	Profile(ctx context.Context, userID domain.UserID) (*dto.UserProfile, error)
	UpdateProfile(ctx context.Context, userID domain.UserID, r dto.UpdateProfileRequest) (*dto.UserProfile, error)
	Search(ctx context.Context, usernamePrefix string) ([]dto.PublicUser, error)
	PublicList(ctx context.Context) ([]dto.PublicUser, error)
	PublicSearch(ctx context.Context, usernamePrefix string) ([]dto.PublicUser, error)
}
