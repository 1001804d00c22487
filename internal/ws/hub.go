package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Hub is the connection registry: it tracks the single live session of each
// user and the event rooms each session has subscribed to. It performs no
// authorization; callers validate membership before subscribing a session.
type Hub struct {
	mu sync.RWMutex
	// sessions maps a user id to their single current session.
	sessions map[int]*Session
	// rooms maps an event id to the sessions subscribed to its group chat.
	rooms map[int]map[*Session]struct{}
	// sessionRooms is the reverse index used to clean up on unregister.
	sessionRooms map[*Session]map[int]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		sessions:     make(map[int]*Session),
		rooms:        make(map[int]map[*Session]struct{}),
		sessionRooms: make(map[*Session]map[int]struct{}),
	}
}

// Register stores the session as the user's current one. A previous session
// for the same user is displaced and returned so the caller can close it;
// last-connected wins.
func (h *Hub) Register(s *Session) *Session {
	h.mu.Lock()
	previous := h.sessions[s.UserID]
	if previous != nil {
		h.removeLocked(previous)
	}
	h.sessions[s.UserID] = s
	h.sessionRooms[s] = make(map[int]struct{})
	h.mu.Unlock()
	return previous
}

// Unregister removes the session and all its room subscriptions. It only
// touches the registry if the session is still the user's current one, so
// a displaced session unregistering late cannot evict its replacement.
// Safe to call multiple times.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	if h.sessions[s.UserID] == s {
		h.removeLocked(s)
	}
	h.mu.Unlock()
}

// Subscribe adds the session to an event room. Unknown sessions are
// ignored: a session that already disconnected cannot re-enter a room.
func (h *Hub) Subscribe(s *Session, eventID int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sessions[s.UserID] != s {
		return
	}

	room := h.rooms[eventID]
	if room == nil {
		room = make(map[*Session]struct{})
		h.rooms[eventID] = room
	}
	room[s] = struct{}{}
	h.sessionRooms[s][eventID] = struct{}{}
}

// SendToUser delivers the payload to the user's current session, if any.
// Delivery is best-effort and at-most-once.
func (h *Hub) SendToUser(userID int, payload []byte) bool {
	h.mu.RLock()
	s := h.sessions[userID]
	h.mu.RUnlock()
	if s == nil {
		return false
	}
	if err := s.Send(payload); err != nil {
		h.Unregister(s)
		return false
	}
	return true
}

// BroadcastRoom delivers the payload to every session subscribed to the
// event room and reports how many sends succeeded.
func (h *Hub) BroadcastRoom(eventID int, payload []byte) int {
	h.mu.RLock()
	members := make([]*Session, 0, len(h.rooms[eventID]))
	for s := range h.rooms[eventID] {
		members = append(members, s)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, s := range members {
		if err := s.Send(payload); err != nil {
			h.Unregister(s)
			continue
		}
		delivered++
	}
	return delivered
}

// SessionCount reports the number of live sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Shutdown closes every live session and empties the registry.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.sessions = make(map[int]*Session)
	h.rooms = make(map[int]map[*Session]struct{})
	h.sessionRooms = make(map[*Session]map[int]struct{})
	h.mu.Unlock()

	for _, s := range sessions {
		s.Close(websocket.CloseGoingAway, "server shutting down")
	}
}

func (h *Hub) removeLocked(s *Session) {
	delete(h.sessions, s.UserID)
	for eventID := range h.sessionRooms[s] {
		if room, ok := h.rooms[eventID]; ok {
			delete(room, s)
			if len(room) == 0 {
				delete(h.rooms, eventID)
			}
		}
	}
	delete(h.sessionRooms, s)
}
