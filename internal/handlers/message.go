package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	grpcclient "gathering-service/internal/grpc"
	"gathering-service/internal/models"
	"gathering-service/internal/repositories"
)

// MessageHandler serves the read side of the chat log: message history,
// read receipts and the aggregated chat overview.
type MessageHandler struct {
	messages repositories.MessageRepository
	events   repositories.EventRepository
	profiles grpcclient.ProfileDirectory
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(messages repositories.MessageRepository, events repositories.EventRepository, profiles grpcclient.ProfileDirectory) *MessageHandler {
	return &MessageHandler{messages: messages, events: events, profiles: profiles}
}

// GetOneToOneMessages returns the recent direct-message history between the
// caller and the other user, oldest first.
func (h *MessageHandler) GetOneToOneMessages(c *gin.Context) {
	otherID, err := strconv.Atoi(c.Param("recipient_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipient id"})
		return
	}
	userID := c.GetInt("userID")

	msgs, err := h.messages.ListOneToOneMessages(c.Request.Context(), userID, otherID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	h.respondWithMessages(c, msgs)
}

// GetGroupMessages returns the recent group-chat history of an event the
// caller belongs to, oldest first.
func (h *MessageHandler) GetGroupMessages(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	allowed, err := h.events.CanAccessGroupChat(c.Request.Context(), eventID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
		return
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant of this event"})
		return
	}

	msgs, err := h.messages.ListGroupMessages(c.Request.Context(), eventID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	h.respondWithMessages(c, msgs)
}

// MarkMessagesRead records read receipts for the caller. Re-reading the
// same message is a no-op.
func (h *MessageHandler) MarkMessagesRead(c *gin.Context) {
	var req struct {
		MessageIDs []int `json:"message_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := c.GetInt("userID")

	if err := h.messages.MarkRead(c.Request.Context(), req.MessageIDs, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark messages read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListChats returns the caller's conversation previews: one entry per
// counterpart or event group, newest activity first.
func (h *MessageHandler) ListChats(c *gin.Context) {
	userID := c.GetInt("userID")

	previews, err := h.messages.ListChats(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chats"})
		return
	}

	counterpartIDs := make([]int, 0)
	eventIDs := make([]int, 0)
	for _, p := range previews {
		switch p.Type {
		case models.ChatOneToOne:
			counterpartIDs = append(counterpartIDs, p.ChatID)
		case models.ChatGroup:
			eventIDs = append(eventIDs, p.ChatID)
		}
	}

	usernames := map[int]string{}
	if len(counterpartIDs) > 0 {
		users, err := h.profiles.BulkUsers(c.Request.Context(), counterpartIDs)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load user info"})
			return
		}
		for _, u := range users {
			usernames[int(u.GetId())] = u.GetUsername()
		}
	}

	titles := map[int]string{}
	if len(eventIDs) > 0 {
		titles, err = h.events.EventTitles(c.Request.Context(), eventIDs)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load event titles"})
			return
		}
	}

	for i := range previews {
		switch previews[i].Type {
		case models.ChatOneToOne:
			previews[i].DisplayName = usernames[previews[i].ChatID]
		case models.ChatGroup:
			previews[i].DisplayName = titles[previews[i].ChatID]
		}
	}

	c.JSON(http.StatusOK, gin.H{"chats": previews})
}

func (h *MessageHandler) respondWithMessages(c *gin.Context, msgs []models.Message) {
	senderIDs := make([]int, 0, len(msgs))
	seen := map[int]struct{}{}
	for _, m := range msgs {
		if _, ok := seen[m.SenderID]; !ok {
			seen[m.SenderID] = struct{}{}
			senderIDs = append(senderIDs, m.SenderID)
		}
	}

	usernames := map[int]string{}
	if len(senderIDs) > 0 {
		users, err := h.profiles.BulkUsers(c.Request.Context(), senderIDs)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load senders"})
			return
		}
		for _, u := range users {
			usernames[int(u.GetId())] = u.GetUsername()
		}
	}

	type messageResponse struct {
		models.Message
		SenderUsername string `json:"sender_username,omitempty"`
	}

	resp := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, messageResponse{Message: m, SenderUsername: usernames[m.SenderID]})
	}

	c.JSON(http.StatusOK, gin.H{"messages": resp})
}
