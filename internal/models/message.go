package models

import "time"

// ChatType distinguishes direct conversations from event group chats.
type ChatType string

const (
	ChatOneToOne ChatType = "one_to_one"
	ChatGroup    ChatType = "group"
)

// Message is a persisted chat message. It is immutable once created except
// for the read-receipt set, which only grows.
type Message struct {
	ID          int       `db:"id" json:"id"`
	SenderID    int       `db:"sender_id" json:"sender_id"`
	ChatType    ChatType  `db:"chat_type" json:"chat_type"`
	RecipientID int       `db:"recipient_id" json:"recipient_id,omitempty"`
	EventID     int       `db:"event_id" json:"event_id,omitempty"`
	Content     string    `db:"content" json:"content"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`

	ReadBy []ReadReceipt `db:"-" json:"read_by,omitempty"`
}

// ReadReceipt marks a message as seen by one user. At most one per user
// per message.
type ReadReceipt struct {
	MessageID int       `db:"message_id" json:"message_id"`
	UserID    int       `db:"user_id" json:"user_id"`
	ReadAt    time.Time `db:"read_at" json:"read_at"`
}

// ChatPreview is a derived conversation summary for one viewing user.
// ChatID is the counterpart user for one-to-one chats and the event for
// group chats.
type ChatPreview struct {
	ChatID      int      `json:"chat_id"`
	Type        ChatType `json:"type"`
	DisplayName string   `json:"display_name,omitempty"`
	LastMessage Message  `json:"last_message"`
	UnreadCount int      `json:"unread_count"`
}
