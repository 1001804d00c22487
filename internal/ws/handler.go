package ws

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"gathering-service/internal/models"
	"gathering-service/internal/observability"
	"gathering-service/internal/rabbitmq"
	"gathering-service/internal/repositories"
)

// TokenValidator resolves a bearer token to a user id.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (int, error)
}

// Handler owns the live channel: it upgrades connections, registers
// sessions with the hub and routes client commands. Messages are persisted
// before any delivery attempt, so a failed push never loses data.
type Handler struct {
	hub       *Hub
	messages  repositories.MessageRepository
	events    repositories.EventRepository
	auth      TokenValidator
	publisher rabbitmq.Publisher
}

// NewHandler constructs a Handler.
func NewHandler(hub *Hub, messages repositories.MessageRepository, events repositories.EventRepository, auth TokenValidator, publisher rabbitmq.Publisher) *Handler {
	return &Handler{hub: hub, messages: messages, events: events, auth: auth, publisher: publisher}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the request and binds the session to the caller's
// identity. A new session for a user silently replaces the previous one.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("gathering-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := c.GetHeader("Authorization")
	if token == "" {
		token = c.Query("token")
		if token != "" {
			token = "Bearer " + token
		}
	}

	userID, err := h.validateToken(ctx, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	session := NewSession(userID, conn)
	if previous := h.hub.Register(session); previous != nil {
		previous.Close(websocket.ClosePolicyViolation, "session replaced")
	}
	session.Start()

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	h.publishLifecycle(ctx, session, "ws_connect", "")

	go h.readLoop(context.WithoutCancel(ctx), session, conn)
}

func (h *Handler) readLoop(ctx context.Context, session *Session, conn *websocket.Conn) {
	var closeReason string
	defer func() {
		h.hub.Unregister(session)
		session.Close(websocket.CloseNormalClosure, "")
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		h.publishLifecycle(ctx, session, "ws_disconnect", closeReason)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
				h.publishLifecycle(ctx, session, "ws_error", closeReason)
			}
			return
		}
		h.dispatch(ctx, session, data)
	}
}

func (h *Handler) dispatch(ctx context.Context, session *Session, data []byte) {
	event, err := ParseClientEvent(data)
	if err != nil {
		_ = session.Send(ErrorEvent(err.Error()))
		return
	}

	switch cmd := event.(type) {
	case JoinCommand:
		// The session is already bound to the authenticated identity at
		// upgrade time; join only confirms it.
		if cmd.UserID != session.UserID {
			_ = session.Send(ErrorEvent("join user does not match session identity"))
		}
	case JoinEventCommand:
		h.handleJoinEvent(ctx, session, cmd)
	case SendMessageCommand:
		h.handleSendMessage(ctx, session, cmd)
	case MarkAsReadCommand:
		h.handleMarkAsRead(ctx, session, cmd)
	}
}

func (h *Handler) handleJoinEvent(ctx context.Context, session *Session, cmd JoinEventCommand) {
	allowed, err := h.events.CanAccessGroupChat(ctx, cmd.EventID, session.UserID)
	if err != nil {
		log.Printf("ws joinEvent membership check failed: %v", err)
		_ = session.Send(ErrorEvent("failed to verify event membership"))
		return
	}
	if !allowed {
		_ = session.Send(ErrorEvent("not a participant of this event"))
		return
	}
	h.hub.Subscribe(session, cmd.EventID)
}

func (h *Handler) handleSendMessage(ctx context.Context, session *Session, cmd SendMessageCommand) {
	if cmd.Sender != session.UserID {
		_ = session.Send(ErrorEvent("sender does not match session identity"))
		return
	}

	stored, err := h.messages.CreateMessage(ctx, models.Message{
		SenderID:    cmd.Sender,
		ChatType:    cmd.ChatType,
		RecipientID: cmd.Recipient,
		EventID:     cmd.EventID,
		Content:     cmd.Content,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrInvalidMessage) {
			_ = session.Send(ErrorEvent("message target does not match chat type"))
		} else {
			log.Printf("ws sendMessage store failed: %v", err)
			_ = session.Send(ErrorEvent("failed to store message"))
		}
		return
	}

	// Delivery is best-effort and at-most-once; the persisted row already
	// guarantees the recipient sees the message on their next fetch.
	switch stored.ChatType {
	case models.ChatOneToOne:
		if h.hub.SendToUser(stored.RecipientID, NewMessageEvent(stored)) {
			observability.IncMessageDelivery(string(stored.ChatType), "delivered")
		} else {
			observability.IncMessageDelivery(string(stored.ChatType), "offline")
		}
	case models.ChatGroup:
		delivered := h.hub.BroadcastRoom(stored.EventID, NewMessageEvent(stored))
		for i := 0; i < delivered; i++ {
			observability.IncMessageDelivery(string(stored.ChatType), "delivered")
		}
	}

	_ = session.Send(MessageSentEvent(stored))
}

func (h *Handler) handleMarkAsRead(ctx context.Context, session *Session, cmd MarkAsReadCommand) {
	if cmd.UserID != session.UserID {
		_ = session.Send(ErrorEvent("reader does not match session identity"))
		return
	}
	if err := h.messages.MarkRead(ctx, cmd.MessageIDs, cmd.UserID); err != nil {
		log.Printf("ws markAsRead failed: %v", err)
		_ = session.Send(ErrorEvent("failed to mark messages read"))
		return
	}
	_ = session.Send(MessagesReadEvent(cmd.MessageIDs))
}

func (h *Handler) publishLifecycle(ctx context.Context, session *Session, event, reason string) {
	if h.publisher == nil {
		return
	}
	err := h.publisher.Publish(ctx, "ws_events.sessions", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload: map[string]any{
			"session_id":  session.ID,
			"user_id":     session.UserID,
			"event":       event,
			"duration_ms": durationMillis(session),
			"reason":      reason,
		},
	}, nil)
	if err != nil {
		log.Printf("ws lifecycle publish failed: %v", err)
	}
}

func (h *Handler) validateToken(ctx context.Context, header string) (int, error) {
	parts := strings.Split(header, " ")
	if len(parts) == 2 {
		return h.auth.ValidateToken(ctx, parts[1])
	}
	return 0, fmt.Errorf("invalid token")
}
