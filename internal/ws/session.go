package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pingPeriod     = 30 * time.Second
	sendBufferSize = 128
)

// Session binds one live websocket to one user identity. All outbound
// traffic goes through a buffered channel drained by a single write pump,
// so Send is safe from any goroutine.
type Session struct {
	ID          string
	UserID      int
	ConnectedAt time.Time

	conn  *websocket.Conn
	send  chan []byte
	done  chan struct{}
	close sync.Once
}

// NewSession constructs a session for the given user.
func NewSession(userID int, conn *websocket.Conn) *Session {
	return &Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		ConnectedAt: time.Now(),
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		done:        make(chan struct{}),
	}
}

// Start launches the write pump. Call exactly once per session.
func (s *Session) Start() {
	go s.writePump()
}

// Send enqueues a payload for delivery. A full buffer closes the session:
// a client that cannot keep up loses the live channel, not the messages,
// which stay recoverable from the persisted log.
func (s *Session) Send(payload []byte) error {
	select {
	case <-s.done:
		return errors.New("session closed")
	case s.send <- payload:
		return nil
	default:
		s.Close(websocket.CloseGoingAway, "send buffer full")
		return errors.New("session send buffer full")
	}
}

// Close terminates the session and stops the write pump. Safe to call more
// than once.
func (s *Session) Close(code int, reason string) {
	s.close.Do(func() {
		close(s.done)
		if s.conn == nil {
			return
		}
		_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
		_ = s.conn.Close()
	})
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case payload := <-s.send:
			if err := s.write(websocket.TextMessage, payload); err != nil {
				s.Close(websocket.CloseAbnormalClosure, "write failed")
				return
			}
		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				s.Close(websocket.CloseAbnormalClosure, "ping failed")
				return
			}
		}
	}
}

func (s *Session) write(messageType int, payload []byte) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(messageType, payload)
}
