package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Authenticator is the credential collaborator. Storage and hashing live
// behind it, out of this server's scope.
type Authenticator interface {
	Authenticate(username, password string) bool
}

// LengthAuthenticator accepts any username of at least 3 characters with a
// password of at least 4. Stands in until a real credential store is wired.
type LengthAuthenticator struct{}

func (LengthAuthenticator) Authenticate(username, password string) bool {
	return len(username) >= 3 && len(password) >= 4
}

// GameServer owns the room registry, the process-wide session table, and the
// websocket entry point. Sessions are inserted on auth success and removed
// on close; the table doubles as the duplicate-login check.
type GameServer struct {
	Registry *Registry
	Auth     Authenticator
	Upgrader websocket.Upgrader

	mu        sync.Mutex
	users     map[string]*Session
	usernames map[string]string
}

func NewGameServer(registry *Registry, auth Authenticator) *GameServer {
	return &GameServer{
		Registry: registry,
		Auth:     auth,
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		users:     make(map[string]*Session),
		usernames: make(map[string]string),
	}
}

// registerSession claims the username; false means a live session already
// holds it.
func (gs *GameServer) registerSession(s *Session) bool {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	if _, taken := gs.usernames[s.Username]; taken {
		return false
	}
	gs.users[s.ID] = s
	gs.usernames[s.Username] = s.ID
	return true
}

func (gs *GameServer) removeSession(s *Session) {
	if !s.authenticated() {
		return
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()
	delete(gs.users, s.ID)
	if gs.usernames[s.Username] == s.ID {
		delete(gs.usernames, s.Username)
	}
}

func newUserID() string { return uuid.NewString() }

// HandleWS upgrades the connection and runs its read loop. The write pump
// gets its own goroutine; the handler goroutine is the read pump.
func (gs *GameServer) HandleWS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := gs.Upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warnf("websocket upgrade failed: %v", err)
			return
		}
		log.Infof("connection from %s", conn.RemoteAddr())

		sess := NewSession(conn)
		go sess.writeLoop()
		gs.readLoop(sess)
	}
}

func (gs *GameServer) readLoop(sess *Session) {
	defer gs.disconnect(sess)
	for {
		_, payload, err := sess.conn.ReadMessage()
		if err != nil {
			log.Debugf("session %s: read ended: %v", sess.ID, err)
			return
		}
		gs.handleMessage(sess, payload, time.Now())
	}
}

// disconnect tears one connection down: its player leaves through the normal
// command path and the rest of the room keeps playing.
func (gs *GameServer) disconnect(sess *Session) {
	if roomID := sess.CurrentRoom(); roomID != "" {
		if room := gs.Registry.Get(roomID); room != nil {
			room.EnqueueMembership(&leaveCommand{sess: sess})
		}
	}
	gs.removeSession(sess)
	sess.Close()
	log.Infof("connection closed (user %q)", sess.Username)
}
