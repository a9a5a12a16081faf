package service

import (
	"context"

	"farmlink/internal/domain"
	"farmlink/internal/dto"
)

type ChatService interface {
	// GetOrCreate returns the single conversation for the unordered pair
	// (callerID, otherID), creating it on first contact.
	GetOrCreate(ctx context.Context, callerID, otherID domain.UserID) (*dto.Conversation, error)
	ListConversations(ctx context.Context, callerID domain.UserID) ([]dto.Conversation, error)
	Send(ctx context.Context, callerID domain.UserID, convID domain.ConversationID, content string) (*dto.Message, error)
	ListMessages(ctx context.Context, callerID domain.UserID, convID domain.ConversationID) ([]dto.Message, error)
}
