package repositories

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"gathering-service/internal/models"
)

var ErrInvalidMessage = errors.New("message target does not match chat type")

// MessageRepository persists chat messages and read receipts and builds the
// per-user chat overview.
type MessageRepository interface {
	CreateMessage(ctx context.Context, msg models.Message) (models.Message, error)
	ListOneToOneMessages(ctx context.Context, userID int, otherID int) ([]models.Message, error)
	ListGroupMessages(ctx context.Context, eventID int) ([]models.Message, error)
	MarkRead(ctx context.Context, messageIDs []int, userID int) error
	ListChats(ctx context.Context, userID int) ([]models.ChatPreview, error)
}

// MessageRepo is a sqlx implementation of MessageRepository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage validates the target pairing and persists the message.
// Persistence happens before any delivery attempt; the stored row is the
// source of truth for recipients that are not live.
func (r *MessageRepo) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	switch msg.ChatType {
	case models.ChatOneToOne:
		if msg.RecipientID == 0 || msg.EventID != 0 {
			return models.Message{}, ErrInvalidMessage
		}
	case models.ChatGroup:
		if msg.EventID == 0 || msg.RecipientID != 0 {
			return models.Message{}, ErrInvalidMessage
		}
	default:
		return models.Message{}, ErrInvalidMessage
	}
	if msg.SenderID == 0 || msg.Content == "" {
		return models.Message{}, ErrInvalidMessage
	}

	var stored models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (sender_id, chat_type, recipient_id, event_id, content)
         VALUES ($1, $2, $3, $4, $5)
         RETURNING id, sender_id, chat_type, recipient_id, event_id, content, created_at`,
		msg.SenderID, msg.ChatType, msg.RecipientID, msg.EventID, msg.Content).StructScan(&stored)
	if err != nil {
		return models.Message{}, err
	}
	return stored, nil
}

// ListOneToOneMessages returns the most recent 50 messages between the two
// users, oldest first.
func (r *MessageRepo) ListOneToOneMessages(ctx context.Context, userID int, otherID int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT * FROM (
            SELECT id, sender_id, chat_type, recipient_id, event_id, content, created_at
            FROM messages
            WHERE chat_type='one_to_one'
              AND ((sender_id=$1 AND recipient_id=$2) OR (sender_id=$2 AND recipient_id=$1))
            ORDER BY created_at DESC, id DESC LIMIT 50
         ) recent ORDER BY created_at ASC, id ASC`,
		userID, otherID)
	if err != nil {
		return nil, err
	}
	return r.attachReadReceipts(ctx, msgs)
}

// ListGroupMessages returns the most recent 50 messages of the event group
// chat, oldest first.
func (r *MessageRepo) ListGroupMessages(ctx context.Context, eventID int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT * FROM (
            SELECT id, sender_id, chat_type, recipient_id, event_id, content, created_at
            FROM messages
            WHERE chat_type='group' AND event_id=$1
            ORDER BY created_at DESC, id DESC LIMIT 50
         ) recent ORDER BY created_at ASC, id ASC`,
		eventID)
	if err != nil {
		return nil, err
	}
	return r.attachReadReceipts(ctx, msgs)
}

func (r *MessageRepo) attachReadReceipts(ctx context.Context, msgs []models.Message) ([]models.Message, error) {
	if len(msgs) == 0 {
		return []models.Message{}, nil
	}

	ids := make([]int, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}

	var receipts []models.ReadReceipt
	if err := r.db.SelectContext(ctx, &receipts,
		`SELECT message_id, user_id, read_at FROM message_reads WHERE message_id = ANY($1) ORDER BY read_at ASC`,
		pq.Array(ids)); err != nil {
		return nil, err
	}

	byMessage := map[int][]models.ReadReceipt{}
	for _, rec := range receipts {
		byMessage[rec.MessageID] = append(byMessage[rec.MessageID], rec)
	}
	for i := range msgs {
		msgs[i].ReadBy = byMessage[msgs[i].ID]
	}
	return msgs, nil
}

// MarkRead records a read receipt for each message. Re-reading is a no-op:
// the receipt set is unique per user and existing rows are left untouched.
// Unknown message ids are skipped silently.
func (r *MessageRepo) MarkRead(ctx context.Context, messageIDs []int, userID int) error {
	if len(messageIDs) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO message_reads (message_id, user_id)
         SELECT m.id, $2 FROM messages m WHERE m.id = ANY($1)
         ON CONFLICT (message_id, user_id) DO NOTHING`,
		pq.Array(messageIDs), userID)
	return err
}

// ListChats scans every message visible to the user and folds the log into
// per-conversation previews, newest conversation first.
func (r *MessageRepo) ListChats(ctx context.Context, userID int) ([]models.ChatPreview, error) {
	var rows []chatScanRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT m.id, m.sender_id, m.chat_type, m.recipient_id, m.event_id, m.content, m.created_at,
                EXISTS(SELECT 1 FROM message_reads r WHERE r.message_id = m.id AND r.user_id = $1) AS read_by_viewer
         FROM messages m
         WHERE (m.chat_type='one_to_one' AND (m.sender_id=$1 OR m.recipient_id=$1))
            OR (m.chat_type='group' AND m.event_id IN (
                   SELECT event_id FROM participants WHERE user_id=$1 AND status='approved'
                   UNION SELECT id FROM events WHERE creator_id=$1))
         ORDER BY m.created_at ASC, m.id ASC`,
		userID)
	if err != nil {
		return nil, err
	}
	return buildChatPreviews(rows, userID), nil
}
