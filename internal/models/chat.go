package models

import "time"

type Conversation struct {
	ID            int64     `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	LastMessageAt time.Time `json:"last_message_at"`
}

// Primary key is (ConversationID, UserID); UnreadCount is per participant.
type ConversationParticipant struct {
	ConversationID int64     `json:"conversation_id"`
	UserID         int64     `json:"user_id"`
	UnreadCount    int       `json:"unread_count"`
	CreatedAt      time.Time `json:"created_at"`
}

type ChatMessage struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	Content        string    `json:"content"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}

type ConversationSummary struct {
	Conversation
	ParticipantIDs []int64      `json:"participants"`
	LastMessage    *ChatMessage `json:"last_message,omitempty"`
	UnreadCount    int          `json:"unread_count"`
}
