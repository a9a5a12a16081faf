package domain

import (
	"strings"
	"time"
)

// Conversation pairs exactly two users. Participants are stored in sorted
// order and PairKey carries a unique index, so at most one conversation can
// exist per unordered pair regardless of which side initiates it.
type Conversation struct {
	ID            ConversationID `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	UserA         UserID         `gorm:"type:uuid;not null;index" db:"user_a" json:"userA"`
	UserB         UserID         `gorm:"type:uuid;not null;index" db:"user_b" json:"userB"`
	PairKey       string         `gorm:"type:text;uniqueIndex:ux_conversations_pair" db:"pair_key" json:"-"`
	LastMessage   string         `gorm:"type:text;not null;default:''" db:"last_message" json:"lastMessage"`
	LastMessageAt *time.Time     `db:"last_message_at" json:"lastMessageAt,omitempty"`
	CreatedAt     time.Time      `gorm:"not null" db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time      `gorm:"not null" db:"updated_at" json:"updatedAt"`
}

func (Conversation) TableName() string { return "conversations" }

// HasParticipant reports whether id is one of the conversation's two members.
func (c *Conversation) HasParticipant(id UserID) bool {
	return c.UserA == id || c.UserB == id
}

// LastActivity is the recency ordering key: the cached last-message timestamp,
// falling back to creation time for conversations with no messages yet.
func (c *Conversation) LastActivity() time.Time {
	if c.LastMessageAt != nil {
		return *c.LastMessageAt
	}
	return c.CreatedAt
}

// SortPair normalizes an unordered participant pair so (A,B) and (B,A) map to
// the same storage row.
func SortPair(a, b UserID) (UserID, UserID) {
	if strings.Compare(a.String(), b.String()) > 0 {
		return b, a
	}
	return a, b
}

// PairKey derives the unique lookup key for a participant pair.
func PairKey(a, b UserID) string {
	lo, hi := SortPair(a, b)
	return lo.String() + ":" + hi.String()
}
