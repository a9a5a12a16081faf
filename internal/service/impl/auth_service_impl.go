package impl

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"farmlink/internal/domain"
	"farmlink/internal/dto"
	"farmlink/internal/observability/metrics"
	"farmlink/internal/service"
	"farmlink/internal/store"

	"github.com/google/uuid"
)

type AuthServiceImpl struct {
	Store           dataStore
	PasswordService service.PasswordService
	TService        service.TokenService
	Email           service.EmailService

	codeTTL time.Duration
	now     func() time.Time
	genCode func() string
}

func NewAuthServiceImpl(st *store.Store, passwordService service.PasswordService, tokenService service.TokenService, email service.EmailService, codeTTL time.Duration) *AuthServiceImpl {
	return &AuthServiceImpl{
		Store:           gormStoreAdapter{store: st},
		PasswordService: passwordService,
		TService:        tokenService,
		Email:           email,
		codeTTL:         codeTTL,
		now:             time.Now,
		genCode:         generateCode,
	}
}

type dataStore interface {
	WithTx(ctx context.Context, fn func(tx storeTx) error) error
	Users() userStore
	Credentials() credentialStore
	Verifications() verificationStore
}

type storeTx interface {
	Users() userStore
	Credentials() credentialStore
	Verifications() verificationStore
}

type userStore interface {
	Create(ctx context.Context, usr *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	SetEmailVerified(ctx context.Context, userID uuid.UUID) error
	SetLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error
}

type credentialStore interface {
	UpsertPassword(ctx context.Context, c *domain.PasswordCredential) error
	GetPasswordByUserID(ctx context.Context, userID uuid.UUID) (*domain.PasswordCredential, error)
}

type verificationStore interface {
	Create(ctx context.Context, v *domain.EmailVerification) error
	GetActive(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.EmailVerification, error)
	Consume(ctx context.Context, userID uuid.UUID) error
}

type gormStoreAdapter struct {
	store *store.Store
}

func (g gormStoreAdapter) WithTx(ctx context.Context, fn func(tx storeTx) error) error {
	if g.store == nil {
		return errors.New("nil store")
	}
	return g.store.WithTx(ctx, func(tx *store.Store) error {
		return fn(gormTxAdapter{tx: tx})
	})
}

func (g gormStoreAdapter) Users() userStore                 { return g.store.Users() }
func (g gormStoreAdapter) Credentials() credentialStore     { return g.store.Credentials() }
func (g gormStoreAdapter) Verifications() verificationStore { return g.store.Verifications() }

type gormTxAdapter struct {
	tx *store.Store
}

func (g gormTxAdapter) Users() userStore                 { return g.tx.Users() }
func (g gormTxAdapter) Credentials() credentialStore     { return g.tx.Credentials() }
func (g gormTxAdapter) Verifications() verificationStore { return g.tx.Verifications() }

func (a *AuthServiceImpl) Register(ctx context.Context, r dto.RegisterRequest, ip, ua string) (*dto.RegisterResponse, *dto.SessionToken, error) {
	result := "success"
	defer func() {
		metrics.AuthRegistrationsTotal.WithLabelValues(result).Inc()
	}()

	username := strings.ToLower(strings.TrimSpace(r.Username))
	email := strings.ToLower(strings.TrimSpace(r.Email))
	name := strings.TrimSpace(r.Name)
	if name == "" {
		name = username
	}

	if username == "" || email == "" || r.Password == "" {
		result = "failure"
		return nil, nil, ErrEmptyCredential
	}
	if len(r.Password) < 8 {
		result = "failure"
		return nil, nil, ErrPasswordLength
	}

	var user *domain.User
	err := a.Store.WithTx(ctx, func(tx storeTx) error {
		if _, err := tx.Users().GetByEmail(ctx, email); err == nil {
			return domain.ErrEmailTaken
		} else if !errors.Is(err, store.ErrRecordNotFound) {
			return err
		}
		if _, err := tx.Users().GetByUsername(ctx, username); err == nil {
			return domain.ErrUsernameTaken
		} else if !errors.Is(err, store.ErrRecordNotFound) {
			return err
		}

		now := a.now().UTC()
		user = &domain.User{
			ID:        uuid.New(),
			Name:      name,
			Username:  username,
			Email:     email,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}

		hash, salt, paramsJSON, algo, ver, err := a.PasswordService.Hash(r.Password)
		if err != nil {
			return err
		}
		cred := &domain.PasswordCredential{
			ID:          uuid.New(),
			UserID:      user.ID,
			Algo:        algo,
			Hash:        hash,
			Salt:        salt,
			ParamsJSON:  paramsJSON,
			PasswordVer: ver,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return tx.Credentials().UpsertPassword(ctx, cred)
	})
	if err != nil {
		result = "failure"
		return nil, nil, err
	}

	token, err := a.TService.Issue(ctx, user, ip, ua)
	if err != nil {
		result = "failure"
		return nil, nil, err
	}

	// Welcome mail is best effort; a broken SMTP relay must not block signup.
	if a.Email != nil {
		if err := a.Email.SendWelcome(ctx, user.Email, user.Name); err != nil {
			slog.Warn("welcome email failed", "user_id", user.ID, "error", err)
		}
	}

	return &dto.RegisterResponse{
		UserID:                    user.ID.String(),
		RequiresEmailVerification: true,
	}, token, nil
}

func (a *AuthServiceImpl) Login(ctx context.Context, r dto.LoginRequest, ip, ua string) (*dto.SessionToken, error) {
	result := "success"
	defer func() {
		metrics.AuthLoginsTotal.WithLabelValues(result).Inc()
	}()

	login := strings.ToLower(strings.TrimSpace(r.EmailOrUsername))
	if login == "" || r.Password == "" {
		result = "failure"
		return nil, ErrEmptyCredential
	}

	var token *dto.SessionToken
	err := a.Store.WithTx(ctx, func(tx storeTx) error {
		var user *domain.User
		var err error
		if looksLikeEmail(login) {
			user, err = tx.Users().GetByEmail(ctx, login)
		} else {
			user, err = tx.Users().GetByUsername(ctx, login)
		}
		if err != nil {
			return domain.ErrInvalidCredentials // don't leak which field failed
		}

		cred, err := tx.Credentials().GetPasswordByUserID(ctx, user.ID)
		if err != nil {
			return domain.ErrInvalidCredentials
		}

		rehashNeeded, ok := a.PasswordService.Verify(r.Password, cred)
		if !ok {
			return domain.ErrInvalidCredentials
		}

		if rehashNeeded {
			newHash, newSalt, newParamsJSON, algo, ver, err := a.PasswordService.Hash(r.Password)
			if err != nil {
				return err
			}
			cred.Algo = algo
			cred.Hash = newHash
			cred.Salt = newSalt
			cred.ParamsJSON = newParamsJSON
			cred.PasswordVer = ver
			cred.UpdatedAt = a.now().UTC()
			if err := tx.Credentials().UpsertPassword(ctx, cred); err != nil {
				return err
			}
		}

		if err := tx.Users().SetLastLogin(ctx, user.ID, a.now().UTC()); err != nil {
			return err
		}

		token, err = a.TService.Issue(ctx, user, ip, ua)
		return err
	})
	if err != nil {
		result = "failure"
		return nil, err
	}
	return token, nil
}

func (a *AuthServiceImpl) Logout(ctx context.Context, sessionID domain.SessionID) error {
	return a.TService.RevokeSession(ctx, sessionID)
}

func (a *AuthServiceImpl) SendVerifyCode(ctx context.Context, userID domain.UserID) error {
	user, err := a.Store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}
	if user.EmailVerified {
		return domain.ErrAlreadyVerified
	}

	now := a.now().UTC()
	code := a.genCode()
	v := &domain.EmailVerification{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: now.Add(a.codeTTL),
		CreatedAt: now,
	}
	if err := a.Store.Verifications().Create(ctx, v); err != nil {
		return err
	}

	if a.Email != nil {
		if err := a.Email.SendVerificationCode(ctx, user.Email, user.Name, code); err != nil {
			slog.Warn("verification email failed", "user_id", user.ID, "error", err)
		}
	}
	return nil
}

func (a *AuthServiceImpl) VerifyAccount(ctx context.Context, userID domain.UserID, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrInvalidRequest
	}
	return a.Store.WithTx(ctx, func(tx storeTx) error {
		user, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return domain.ErrUserNotFound
			}
			return err
		}
		if user.EmailVerified {
			return domain.ErrAlreadyVerified
		}

		active, err := tx.Verifications().GetActive(ctx, user.ID, a.now().UTC())
		if err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return domain.ErrCodeInvalid
			}
			return err
		}
		if active.Code != code {
			return domain.ErrCodeInvalid
		}

		if err := tx.Verifications().Consume(ctx, user.ID); err != nil {
			return err
		}
		return tx.Users().SetEmailVerified(ctx, user.ID)
	})
}

func (a *AuthServiceImpl) Me(ctx context.Context, userID domain.UserID) (*dto.UserProfile, error) {
	user, err := a.Store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return profileDTO(user), nil
}

func profileDTO(u *domain.User) *dto.UserProfile {
	return &dto.UserProfile{
		ID:            u.ID.String(),
		Name:          u.Name,
		Username:      u.Username,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
	}
}

func looksLikeEmail(s string) bool { return strings.ContainsRune(s, '@') }

// generateCode returns a 6-digit one-time verification code.
func generateCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		panic(fmt.Sprintf("generate verification code: %v", err))
	}
	return fmt.Sprintf("%06d", n.Int64()+100000)
}
