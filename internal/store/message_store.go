package store

import (
	"context"

	"farmlink/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageStore struct{ db *gorm.DB }

func (s *Store) Messages() *MessageStore { return &MessageStore{s.DB} }

func (ms *MessageStore) Create(ctx context.Context, msg *domain.Message) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	return ms.db.WithContext(ctx).Create(msg).Error
}

// ListByConversation returns the conversation's messages oldest first. An
// unknown conversation id yields an empty slice, not an error.
func (ms *MessageStore) ListByConversation(ctx context.Context, convID uuid.UUID) ([]domain.Message, error) {
	var out []domain.Message
	err := ms.db.WithContext(ctx).
		Where("conversation_id = ?", convID).
		Order("created_at asc").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
