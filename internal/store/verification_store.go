package store

import (
	"context"
	"time"

	"farmlink/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VerificationStore struct{ db *gorm.DB }

func (s *Store) Verifications() *VerificationStore { return &VerificationStore{s.DB} }

func (vs *VerificationStore) Create(ctx context.Context, v *domain.EmailVerification) error {
	return vs.db.WithContext(ctx).Create(v).Error
}

// GetActive returns the newest unconsumed, unexpired code row for the user.
func (vs *VerificationStore) GetActive(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.EmailVerification, error) {
	var v domain.EmailVerification
	err := vs.db.WithContext(ctx).
		Where("user_id = ? AND consumed = false AND expires_at > ?", userID, now).
		Order("created_at desc").
		First(&v).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &v, nil
}

// Consume marks every outstanding code for the user as used.
func (vs *VerificationStore) Consume(ctx context.Context, userID uuid.UUID) error {
	return vs.db.WithContext(ctx).
		Model(&domain.EmailVerification{}).
		Where("user_id = ? AND consumed = false", userID).
		Update("consumed", true).Error
}
