package impl

import (
	"context"
	"errors"
	"strings"

	"farmlink/internal/domain"
	"farmlink/internal/dto"
	"farmlink/internal/store"

	"github.com/google/uuid"
)

const (
	searchLimit     = 20
	publicListLimit = 50
)

type UserServiceImpl struct {
	Users directoryStore
}

type directoryStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateName(ctx context.Context, userID uuid.UUID, name string) error
	SearchByUsernamePrefix(ctx context.Context, prefix string, limit int) ([]domain.User, error)
	ListRecent(ctx context.Context, limit int) ([]domain.User, error)
}

func NewUserServiceImpl(st *store.Store) *UserServiceImpl {
	return &UserServiceImpl{Users: st.Users()}
}

func (u *UserServiceImpl) Profile(ctx context.Context, userID domain.UserID) (*dto.UserProfile, error) {
	user, err := u.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return profileDTO(user), nil
}

func (u *UserServiceImpl) UpdateProfile(ctx context.Context, userID domain.UserID, r dto.UpdateProfileRequest) (*dto.UserProfile, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return nil, ErrInvalidRequest
	}
	if err := u.Users.UpdateName(ctx, userID, name); err != nil {
		return nil, err
	}
	return u.Profile(ctx, userID)
}

func (u *UserServiceImpl) Search(ctx context.Context, usernamePrefix string) ([]dto.PublicUser, error) {
	users, err := u.Users.SearchByUsernamePrefix(ctx, strings.TrimSpace(usernamePrefix), searchLimit)
	if err != nil {
		return nil, err
	}
	return publicUserDTOs(users), nil
}

func (u *UserServiceImpl) PublicList(ctx context.Context) ([]dto.PublicUser, error) {
	users, err := u.Users.ListRecent(ctx, publicListLimit)
	if err != nil {
		return nil, err
	}
	return publicUserDTOs(users), nil
}

func (u *UserServiceImpl) PublicSearch(ctx context.Context, usernamePrefix string) ([]dto.PublicUser, error) {
	prefix := strings.TrimSpace(usernamePrefix)
	if prefix == "" {
		users, err := u.Users.ListRecent(ctx, searchLimit)
		if err != nil {
			return nil, err
		}
		return publicUserDTOs(users), nil
	}
	users, err := u.Users.SearchByUsernamePrefix(ctx, prefix, searchLimit)
	if err != nil {
		return nil, err
	}
	return publicUserDTOs(users), nil
}

func publicUserDTOs(users []domain.User) []dto.PublicUser {
	out := make([]dto.PublicUser, 0, len(users))
	for i := range users {
		u := &users[i]
		out = append(out, dto.PublicUser{
			ID:          u.ID.String(),
			Name:        u.Name,
			Username:    u.Username,
			Email:       u.Email,
			CreatedAt:   u.CreatedAt,
			LastLoginAt: u.LastLoginAt,
		})
	}
	return out
}
