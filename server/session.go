package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/DiegoVanegas03/computo-nube-servidor/model"
)

const (
	sessionSendBuffer = 64
	writeDeadline     = 5 * time.Second
)

// Session is one authenticated connection. The read goroutine owns ID and
// Username (set once during auth, before any command referencing them is
// queued); the current-room field is the one cross-goroutine field and is
// mutex-guarded.
type Session struct {
	ID       string
	Username string

	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once

	mu   sync.Mutex
	room string
}

func NewSession(conn *websocket.Conn) *Session {
	return &Session{
		conn: conn,
		send: make(chan []byte, sessionSendBuffer),
		done: make(chan struct{}),
	}
}

func (s *Session) CurrentRoom() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

func (s *Session) SetRoom(roomID string) {
	s.mu.Lock()
	s.room = roomID
	s.mu.Unlock()
}

// ClearRoom resets the current room only if it still points at roomID; a
// join applied in the same tick may already have moved the session on.
func (s *Session) ClearRoom(roomID string) {
	s.mu.Lock()
	if s.room == roomID {
		s.room = ""
	}
	s.mu.Unlock()
}

func (s *Session) authenticated() bool { return s.ID != "" }

// Enqueue queues an outbound frame without ever blocking the caller. A full
// queue drops the frame: a slow socket must not stall the simulation tick.
func (s *Session) Enqueue(payload []byte) {
	select {
	case <-s.done:
	case s.send <- payload:
	default:
		log.Warnf("session %s: send queue full, dropping frame", s.ID)
	}
}

// Send marshals one envelope for this session alone.
func (s *Session) Send(msgType string, data any, now time.Time) {
	payload, err := json.Marshal(model.ServerMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: now.UnixMilli(),
	})
	if err != nil {
		log.Errorf("session %s: marshal %s: %v", s.ID, msgType, err)
		return
	}
	s.Enqueue(payload)
}

func (s *Session) SendError(message string, now time.Time) {
	s.Send(model.TypeError, model.Error{Message: message}, now)
}

// Close is idempotent and safe from any goroutine.
func (s *Session) Close() {
	s.once.Do(func() {
		close(s.done)
		if s.conn != nil {
			_ = s.conn.Close()
		}
	})
}

// writeLoop drains the send queue onto the socket. A write failure closes
// only this connection; the simulation never notices.
func (s *Session) writeLoop() {
	for {
		select {
		case payload := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Debugf("session %s: write failed: %v", s.ID, err)
				s.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}
