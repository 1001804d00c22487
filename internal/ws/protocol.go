package ws

import (
	"encoding/json"
	"fmt"

	"gathering-service/internal/models"
)

// EventKind enumerates the live-channel message types. Dispatch is keyed by
// these constants; unknown kinds are rejected at parse time.
type EventKind string

const (
	// client -> server
	KindJoin        EventKind = "join"
	KindJoinEvent   EventKind = "joinEvent"
	KindSendMessage EventKind = "sendMessage"
	KindMarkAsRead  EventKind = "markAsRead"

	// server -> client
	KindNewMessage    EventKind = "newMessage"
	KindMessageSent   EventKind = "messageSent"
	KindMessagesRead  EventKind = "messagesRead"
	KindParticipation EventKind = "participation"
	KindError         EventKind = "error"
)

// Envelope is the bidirectional wire frame.
type Envelope struct {
	Type    EventKind       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ClientEvent is a parsed client command. The concrete type identifies the
// command; no caller ever branches on a raw string tag.
type ClientEvent interface {
	kind() EventKind
}

// JoinCommand confirms which user identity the session speaks for.
type JoinCommand struct {
	UserID int `json:"userId"`
}

// JoinEventCommand subscribes the session to an event group room.
type JoinEventCommand struct {
	EventID int `json:"eventId"`
}

// SendMessageCommand submits a chat message for persistence and delivery.
type SendMessageCommand struct {
	Sender    int             `json:"sender"`
	Content   string          `json:"content"`
	ChatType  models.ChatType `json:"chatType"`
	Recipient int             `json:"recipient,omitempty"`
	EventID   int             `json:"eventId,omitempty"`
}

// MarkAsReadCommand records read receipts for a batch of messages.
type MarkAsReadCommand struct {
	MessageIDs []int `json:"messageIds"`
	UserID     int   `json:"userId"`
}

func (JoinCommand) kind() EventKind        { return KindJoin }
func (JoinEventCommand) kind() EventKind   { return KindJoinEvent }
func (SendMessageCommand) kind() EventKind { return KindSendMessage }
func (MarkAsReadCommand) kind() EventKind  { return KindMarkAsRead }

// ParseClientEvent decodes a raw frame into a typed command.
func ParseClientEvent(data []byte) (ClientEvent, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed envelope: %w", err)
	}

	switch env.Type {
	case KindJoin:
		var cmd JoinCommand
		if err := json.Unmarshal(env.Payload, &cmd); err != nil {
			return nil, fmt.Errorf("malformed join payload: %w", err)
		}
		return cmd, nil
	case KindJoinEvent:
		var cmd JoinEventCommand
		if err := json.Unmarshal(env.Payload, &cmd); err != nil {
			return nil, fmt.Errorf("malformed joinEvent payload: %w", err)
		}
		return cmd, nil
	case KindSendMessage:
		var cmd SendMessageCommand
		if err := json.Unmarshal(env.Payload, &cmd); err != nil {
			return nil, fmt.Errorf("malformed sendMessage payload: %w", err)
		}
		return cmd, nil
	case KindMarkAsRead:
		var cmd MarkAsReadCommand
		if err := json.Unmarshal(env.Payload, &cmd); err != nil {
			return nil, fmt.Errorf("malformed markAsRead payload: %w", err)
		}
		return cmd, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}
}

func marshalServerEvent(kind EventKind, payload any) []byte {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	frame, err := json.Marshal(Envelope{Type: kind, Payload: raw})
	if err != nil {
		return nil
	}
	return frame
}

// NewMessageEvent notifies a recipient of a freshly persisted message.
func NewMessageEvent(msg models.Message) []byte {
	return marshalServerEvent(KindNewMessage, msg)
}

// MessageSentEvent acknowledges persistence and delivery to the sender.
func MessageSentEvent(msg models.Message) []byte {
	return marshalServerEvent(KindMessageSent, msg)
}

// MessagesReadEvent confirms which messages got read receipts.
func MessagesReadEvent(messageIDs []int) []byte {
	return marshalServerEvent(KindMessagesRead, map[string][]int{"messageIds": messageIDs})
}

// ParticipationEvent notifies a user of the creator's decision on their
// join request. It travels the same delivery path as chat messages.
func ParticipationEvent(eventID int, status models.ParticipationStatus) []byte {
	return marshalServerEvent(KindParticipation, map[string]any{
		"eventId": eventID,
		"status":  status,
	})
}

// ErrorEvent reports a per-command failure back to the session.
func ErrorEvent(message string) []byte {
	return marshalServerEvent(KindError, map[string]string{"message": message})
}
