package impl

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"farmlink/internal/domain"
	"farmlink/internal/dto"
	"farmlink/internal/observability/metrics"
	"farmlink/internal/observability/middleware"
	"farmlink/internal/store"

	"github.com/google/uuid"
)

type ChatServiceImpl struct {
	Store chatDataStore
	now   func() time.Time
}

func NewChatServiceImpl(st *store.Store) *ChatServiceImpl {
	return &ChatServiceImpl{Store: chatGormAdapter{store: st}, now: time.Now}
}

type chatDataStore interface {
	WithTx(ctx context.Context, fn func(tx chatTx) error) error
	Users() chatUserStore
	Conversations() conversationStore
	Messages() messageStore
}

type chatTx interface {
	Conversations() conversationStore
	Messages() messageStore
}

type chatUserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type conversationStore interface {
	Create(ctx context.Context, c *domain.Conversation) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
	GetByPair(ctx context.Context, a, b uuid.UUID) (*domain.Conversation, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error)
	SetPreview(ctx context.Context, id uuid.UUID, preview string, at time.Time) error
}

type messageStore interface {
	Create(ctx context.Context, msg *domain.Message) error
	ListByConversation(ctx context.Context, convID uuid.UUID) ([]domain.Message, error)
}

type chatGormAdapter struct {
	store *store.Store
}

func (g chatGormAdapter) WithTx(ctx context.Context, fn func(tx chatTx) error) error {
	if g.store == nil {
		return errors.New("nil store")
	}
	return g.store.WithTx(ctx, func(tx *store.Store) error {
		return fn(chatGormTxAdapter{tx: tx})
	})
}

func (g chatGormAdapter) Users() chatUserStore { return g.store.Users() }

func (g chatGormAdapter) Conversations() conversationStore { return g.store.Conversations() }

func (g chatGormAdapter) Messages() messageStore { return g.store.Messages() }

type chatGormTxAdapter struct {
	tx *store.Store
}

func (g chatGormTxAdapter) Conversations() conversationStore { return g.tx.Conversations() }

func (g chatGormTxAdapter) Messages() messageStore { return g.tx.Messages() }

// GetOrCreate looks up the conversation for the unordered pair
// (callerID, otherID) and lazily creates it on first contact. A concurrent
// create for the same pair loses on the unique pair-key index and re-reads
// the winner's row, so the pair can never end up with two conversations.
func (c *ChatServiceImpl) GetOrCreate(ctx context.Context, callerID, otherID domain.UserID) (*dto.Conversation, error) {
	if otherID == uuid.Nil {
		return nil, ErrInvalidRequest
	}
	if otherID == callerID {
		return nil, domain.ErrSelfConversation
	}
	if _, err := c.Store.Users().GetByID(ctx, otherID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	conv, err := c.Store.Conversations().GetByPair(ctx, callerID, otherID)
	if err == nil {
		metrics.ConversationsTotal.WithLabelValues("existing").Inc()
		return conversationDTO(conv), nil
	}
	if !errors.Is(err, store.ErrRecordNotFound) {
		return nil, err
	}

	now := c.now().UTC()
	conv = &domain.Conversation{
		UserA:     callerID,
		UserB:     otherID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.Store.Conversations().Create(ctx, conv); err != nil {
		if store.IsDuplicatePair(err) {
			// Lost the create race; the winner's row is the conversation.
			conv, err = c.Store.Conversations().GetByPair(ctx, callerID, otherID)
			if err != nil {
				return nil, err
			}
			metrics.ConversationsTotal.WithLabelValues("existing").Inc()
			return conversationDTO(conv), nil
		}
		return nil, err
	}

	metrics.ConversationsTotal.WithLabelValues("created").Inc()
	slog.Info("conversation created",
		"conversation_id", conv.ID,
		"request_id", middleware.RequestIDFromContext(ctx),
	)
	return conversationDTO(conv), nil
}

func (c *ChatServiceImpl) ListConversations(ctx context.Context, callerID domain.UserID) ([]dto.Conversation, error) {
	convs, err := c.Store.Conversations().ListForUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.Conversation, 0, len(convs))
	for i := range convs {
		out = append(out, *conversationDTO(&convs[i]))
	}
	return out, nil
}

// Send appends a message and refreshes the conversation's cached preview in a
// single transaction. The caller must be one of the two participants.
func (c *ChatServiceImpl) Send(ctx context.Context, callerID domain.UserID, convID domain.ConversationID, content string) (*dto.Message, error) {
	if convID == uuid.Nil {
		return nil, ErrInvalidRequest
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	var msg *domain.Message
	err := c.Store.WithTx(ctx, func(tx chatTx) error {
		conv, err := tx.Conversations().GetByID(ctx, convID)
		if err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return domain.ErrConversationNotFound
			}
			return err
		}
		if !conv.HasParticipant(callerID) {
			return domain.ErrNotParticipant
		}

		now := c.now().UTC()
		msg = &domain.Message{
			ConversationID: conv.ID,
			SenderID:       callerID,
			Content:        content,
			CreatedAt:      now,
		}
		if err := tx.Messages().Create(ctx, msg); err != nil {
			return err
		}
		return tx.Conversations().SetPreview(ctx, conv.ID, content, now)
	})
	if err != nil {
		return nil, err
	}

	metrics.MessagesStoredTotal.WithLabelValues("success").Inc()
	return messageDTO(msg), nil
}

// ListMessages returns the conversation's messages oldest first. An unknown
// conversation id yields an empty list rather than an error; a known
// conversation is only readable by its participants.
func (c *ChatServiceImpl) ListMessages(ctx context.Context, callerID domain.UserID, convID domain.ConversationID) ([]dto.Message, error) {
	if convID == uuid.Nil {
		return nil, ErrInvalidRequest
	}
	conv, err := c.Store.Conversations().GetByID(ctx, convID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return []dto.Message{}, nil
		}
		return nil, err
	}
	if !conv.HasParticipant(callerID) {
		return nil, domain.ErrNotParticipant
	}

	msgs, err := c.Store.Messages().ListByConversation(ctx, convID)
	if err != nil {
		return nil, err
	}
	metrics.MessageHistoryFetchedTotal.WithLabelValues("conversation").Inc()
	out := make([]dto.Message, 0, len(msgs))
	for i := range msgs {
		out = append(out, *messageDTO(&msgs[i]))
	}
	return out, nil
}

func conversationDTO(c *domain.Conversation) *dto.Conversation {
	return &dto.Conversation{
		ID:            c.ID.String(),
		Participants:  []string{c.UserA.String(), c.UserB.String()},
		LastMessage:   c.LastMessage,
		LastMessageAt: c.LastMessageAt,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func messageDTO(m *domain.Message) *dto.Message {
	return &dto.Message{
		ID:             m.ID.String(),
		ConversationID: m.ConversationID.String(),
		SenderID:       m.SenderID.String(),
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}
