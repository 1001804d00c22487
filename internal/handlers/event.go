package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	grpcclient "gathering-service/internal/grpc"
	"gathering-service/internal/models"
	"gathering-service/internal/observability"
	"gathering-service/internal/rabbitmq"
	"gathering-service/internal/repositories"
	"gathering-service/internal/ws"
)

// LivePusher delivers server events to a user's live session.
type LivePusher interface {
	SendToUser(userID int, payload []byte) bool
}

// EventHandler manages event and participation endpoints.
type EventHandler struct {
	events        repositories.EventRepository
	participation repositories.ParticipationRepository
	profiles      grpcclient.ProfileDirectory
	pusher        LivePusher
	publisher     rabbitmq.Publisher
}

// NewEventHandler builds an EventHandler.
func NewEventHandler(events repositories.EventRepository, participation repositories.ParticipationRepository, profiles grpcclient.ProfileDirectory, pusher LivePusher, publisher rabbitmq.Publisher) *EventHandler {
	return &EventHandler{
		events:        events,
		participation: participation,
		profiles:      profiles,
		pusher:        pusher,
		publisher:     publisher,
	}
}

// CreateEvent publishes a new capacity-bounded event owned by the caller.
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req struct {
		Title      string            `json:"title" binding:"required"`
		Capacity   int               `json:"capacity" binding:"required"`
		AccessMode models.AccessMode `json:"access_mode"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Capacity <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "capacity must be positive"})
		return
	}
	if req.AccessMode == "" {
		req.AccessMode = models.AccessOpen
	}
	if !models.ValidAccessMode(req.AccessMode) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown access mode"})
		return
	}

	userID := c.GetInt("userID")
	ev, err := h.events.CreateEvent(c.Request.Context(), userID, req.Title, req.Capacity, req.AccessMode)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create event"})
		return
	}

	c.JSON(http.StatusCreated, ev)
}

// GetEvent returns an event with its participant list.
func (h *EventHandler) GetEvent(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}

	ev, err := h.events.GetEvent(c.Request.Context(), eventID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrEventNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "event not found"})
		return
	}

	c.JSON(http.StatusOK, ev)
}

// JoinEvent requests participation for the caller.
func (h *EventHandler) JoinEvent(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	ev, err := h.participation.Join(c.Request.Context(), eventID, userID)
	if err != nil {
		observability.IncParticipationDecision("join", "refused")
		switch {
		case errors.Is(err, repositories.ErrEventNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		case errors.Is(err, repositories.ErrSelfJoin):
			c.JSON(http.StatusBadRequest, gin.H{"error": "creator cannot join own event"})
		case errors.Is(err, repositories.ErrAlreadyJoined):
			c.JSON(http.StatusBadRequest, gin.H{"error": "already joined"})
		case errors.Is(err, repositories.ErrEventFull):
			c.JSON(http.StatusBadRequest, gin.H{"error": "event is full"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not join event"})
		}
		return
	}

	observability.IncParticipationDecision("join", "accepted")
	h.publishParticipation(c, "participation_joined", eventID, userID)
	c.JSON(http.StatusOK, ev)
}

// LeaveEvent removes the caller's participation. Leaving twice is a no-op.
func (h *EventHandler) LeaveEvent(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	ev, err := h.participation.Leave(c.Request.Context(), eventID, userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrEventNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not leave event"})
		return
	}

	observability.IncParticipationDecision("leave", "accepted")
	h.publishParticipation(c, "participation_left", eventID, userID)
	c.JSON(http.StatusOK, ev)
}

// AcceptRequest approves a pending (or previously rejected) participant.
func (h *EventHandler) AcceptRequest(c *gin.Context) {
	h.reviewRequest(c, models.StatusApproved)
}

// RejectRequest rejects a participant's join request.
func (h *EventHandler) RejectRequest(c *gin.Context) {
	h.reviewRequest(c, models.StatusRejected)
}

func (h *EventHandler) reviewRequest(c *gin.Context, status models.ParticipationStatus) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}

	var req struct {
		UserID int `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actorID := c.GetInt("userID")
	ev, err := h.participation.SetStatus(c.Request.Context(), eventID, actorID, req.UserID, status)
	if err != nil {
		observability.IncParticipationDecision("review", "refused")
		switch {
		case errors.Is(err, repositories.ErrEventNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		case errors.Is(err, repositories.ErrParticipantNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "participant not found"})
		case errors.Is(err, repositories.ErrNotCreator):
			c.JSON(http.StatusForbidden, gin.H{"error": "only the creator can review requests"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update request"})
		}
		return
	}

	observability.IncParticipationDecision("review", string(status))
	// Decisions travel the same live path as chat messages; offline users
	// see the new status on their next fetch.
	if h.pusher != nil {
		h.pusher.SendToUser(req.UserID, ws.ParticipationEvent(eventID, status))
	}
	h.publishParticipation(c, "participation_"+string(status), eventID, req.UserID)
	c.JSON(http.StatusOK, ev)
}

// ListManagedEvents returns the caller's events with participant profiles
// annotated from the profile service.
func (h *EventHandler) ListManagedEvents(c *gin.Context) {
	userID := c.GetInt("userID")

	events, err := h.events.ListManagedEvents(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load events"})
		return
	}

	idSet := map[int]struct{}{}
	ids := make([]int, 0)
	for _, ev := range events {
		for _, p := range ev.Participants {
			if _, ok := idSet[p.UserID]; !ok {
				idSet[p.UserID] = struct{}{}
				ids = append(ids, p.UserID)
			}
		}
	}

	usernames := map[int]string{}
	if len(ids) > 0 {
		users, err := h.profiles.BulkUsers(c.Request.Context(), ids)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load participant profiles"})
			return
		}
		for _, u := range users {
			usernames[int(u.GetId())] = u.GetUsername()
		}
	}

	for i := range events {
		for j := range events[i].Participants {
			events[i].Participants[j].Username = usernames[events[i].Participants[j].UserID]
		}
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *EventHandler) publishParticipation(c *gin.Context, name string, eventID, userID int) {
	if h.publisher == nil {
		return
	}
	err := h.publisher.Publish(c.Request.Context(), "participation.events", observability.EventEnvelope{
		EventType: "participation_events",
		EventName: name,
		Payload: map[string]any{
			"event_id": eventID,
			"user_id":  userID,
		},
	}, observability.BuildHeaders(requestIDFromContext(c), ""))
	if err != nil {
		log.Printf("participation event publish failed: %v", err)
	}
}
