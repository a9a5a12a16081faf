package store

import (
	"context"
	"errors"
	"time"

	"farmlink/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConversationStore struct{ db *gorm.DB }

func (s *Store) Conversations() *ConversationStore { return &ConversationStore{s.DB} }

func (cs *ConversationStore) Create(ctx context.Context, c *domain.Conversation) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.UserA, c.UserB = domain.SortPair(c.UserA, c.UserB)
	c.PairKey = domain.PairKey(c.UserA, c.UserB)
	return cs.db.WithContext(ctx).Create(c).Error
}

func (cs *ConversationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	var c domain.Conversation
	if err := cs.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &c, nil
}

// GetByPair looks up the single conversation for an unordered participant
// pair via the normalized pair key.
func (cs *ConversationStore) GetByPair(ctx context.Context, a, b uuid.UUID) (*domain.Conversation, error) {
	var c domain.Conversation
	if err := cs.db.WithContext(ctx).First(&c, "pair_key = ?", domain.PairKey(a, b)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListForUser returns the user's conversations ordered by most recent
// activity, falling back to creation time when no message has been sent yet.
func (cs *ConversationStore) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error) {
	var out []domain.Conversation
	err := cs.db.WithContext(ctx).
		Where("user_a = ? OR user_b = ?", userID, userID).
		Order("COALESCE(last_message_at, created_at) desc").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetPreview refreshes the denormalized last-message fields.
func (cs *ConversationStore) SetPreview(ctx context.Context, id uuid.UUID, preview string, at time.Time) error {
	return cs.db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_message":    preview,
			"last_message_at": at,
			"updated_at":      at,
		}).Error
}

// IsDuplicatePair reports whether err is the unique-index violation raised
// when two concurrent creates race on the same participant pair.
func IsDuplicatePair(err error) bool {
	return err != nil && errors.Is(err, gorm.ErrDuplicatedKey)
}
