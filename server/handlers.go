package server

import (
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/DiegoVanegas03/computo-nube-servidor/model"
)

// handleMessage dispatches one inbound frame. Malformed frames answer an
// error message and keep the connection open; game commands before auth are
// refused the same way.
func (gs *GameServer) handleMessage(sess *Session, payload []byte, now time.Time) {
	var msg model.ClientMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		sess.SendError("malformed message", now)
		return
	}

	if msg.Type == model.TypeAuth {
		gs.handleAuth(sess, msg.Data, now)
		return
	}
	if !sess.authenticated() {
		sess.SendError("not authenticated", now)
		return
	}

	switch msg.Type {
	case model.TypeJoinRoom:
		gs.handleJoinRoom(sess, msg.Data, now)
	case model.TypeLeaveRoom:
		gs.handleLeaveRoom(sess, now)
	case model.TypeMove:
		gs.handleMove(sess, msg.Data, now)
	case model.TypeJump:
		gs.handleJump(sess)
	case model.TypeChat:
		gs.handleChat(sess, msg.Data, now)
	default:
		sess.SendError("unknown message type", now)
	}
}

func (gs *GameServer) handleAuth(sess *Session, data json.RawMessage, now time.Time) {
	if sess.authenticated() {
		sess.SendError("already authenticated", now)
		return
	}
	var auth model.Auth
	if err := json.Unmarshal(data, &auth); err != nil {
		sess.SendError("malformed auth payload", now)
		return
	}
	if !gs.Auth.Authenticate(auth.Username, auth.Password) {
		sess.Send(model.TypeAuthFailed, model.AuthFailed{Reason: "invalid credentials"}, now)
		return
	}

	sess.ID = newUserID()
	sess.Username = auth.Username
	if !gs.registerSession(sess) {
		sess.ID = ""
		sess.Username = ""
		sess.Send(model.TypeAuthFailed, model.AuthFailed{Reason: "user already logged in"}, now)
		return
	}

	sess.Send(model.TypeAuthSuccess, model.AuthSuccess{
		UserID:   sess.ID,
		Username: sess.Username,
		Rooms:    gs.Registry.List(),
	}, now)
	log.Infof("user authenticated: %s", sess.Username)
}

func (gs *GameServer) handleJoinRoom(sess *Session, data json.RawMessage, now time.Time) {
	var join model.JoinRoom
	if err := json.Unmarshal(data, &join); err != nil {
		sess.SendError("malformed joinRoom payload", now)
		return
	}
	room := gs.Registry.Get(join.RoomID)
	if room == nil {
		sess.SendError("room not found", now)
		return
	}
	// Vacate the previous room first; both commands land before the next
	// tick of their respective rooms.
	if current := sess.CurrentRoom(); current != "" {
		if old := gs.Registry.Get(current); old != nil {
			old.EnqueueMembership(&leaveCommand{sess: sess})
		}
	}
	room.EnqueueMembership(&joinCommand{sess: sess})
}

func (gs *GameServer) handleLeaveRoom(sess *Session, now time.Time) {
	current := sess.CurrentRoom()
	if current == "" {
		sess.SendError("not in a room", now)
		return
	}
	if room := gs.Registry.Get(current); room != nil {
		room.EnqueueMembership(&leaveCommand{sess: sess})
	}
}

func (gs *GameServer) handleMove(sess *Session, data json.RawMessage, now time.Time) {
	var move model.Move
	if err := json.Unmarshal(data, &move); err != nil {
		sess.SendError("malformed move payload", now)
		return
	}
	switch move.Direction {
	case "left", "right", "stop":
	default:
		sess.SendError("invalid direction", now)
		return
	}
	if room := gs.Registry.Get(sess.CurrentRoom()); room != nil {
		room.Enqueue(&moveCommand{userID: sess.ID, direction: move.Direction})
	}
}

func (gs *GameServer) handleJump(sess *Session) {
	if room := gs.Registry.Get(sess.CurrentRoom()); room != nil {
		room.Enqueue(&jumpCommand{userID: sess.ID})
	}
}

func (gs *GameServer) handleChat(sess *Session, data json.RawMessage, now time.Time) {
	var chat model.ChatSend
	if err := json.Unmarshal(data, &chat); err != nil {
		sess.SendError("malformed chat payload", now)
		return
	}
	if room := gs.Registry.Get(sess.CurrentRoom()); room != nil {
		room.Enqueue(&chatCommand{
			userID:   sess.ID,
			username: sess.Username,
			message:  chat.Message,
		})
	}
}
