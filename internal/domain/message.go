package domain

import "time"

// Message is append-only; rows are never updated or deleted once written.
type Message struct {
	ID             MessageID      `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	ConversationID ConversationID `gorm:"type:uuid;not null;index:idx_messages_conv_created,priority:1" db:"conversation_id" json:"conversationId"`
	SenderID       UserID         `gorm:"type:uuid;not null" db:"sender_id" json:"senderId"`
	Content        string         `gorm:"type:text;not null" db:"content" json:"content"`
	CreatedAt      time.Time      `gorm:"not null;index:idx_messages_conv_created,priority:2" db:"created_at" json:"createdAt"`
}

func (Message) TableName() string { return "messages" }
