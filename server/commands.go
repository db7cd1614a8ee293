package server

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/DiegoVanegas03/computo-nube-servidor/model"
)

// roomCommand is a parsed client intent queued for a room. Connection
// goroutines never mutate room state directly; the simulation goroutine
// applies queued commands at the start of the room's tick.
type roomCommand interface {
	apply(r *Room, now time.Time)
}

type joinCommand struct {
	sess *Session
}

func (c *joinCommand) apply(r *Room, now time.Time) {
	player := NewPlayer(c.sess.ID, c.sess.Username)
	r.Players[player.ID] = player
	r.sessions[player.ID] = c.sess
	r.playerCount.Store(int32(len(r.Players)))
	c.sess.SetRoom(r.ID)

	c.sess.Send(model.TypeRoomJoined, model.RoomJoined{
		RoomID:   r.ID,
		RoomName: r.Name,
		Players:  r.snapshot().Players,
		World:    [][]int(r.World),
	}, now)

	r.broadcastExcept(player.ID, model.TypePlayerJoined, model.PlayerJoined{
		UserID:   player.ID,
		Username: player.Username,
		Player:   player.State(),
	}, now)

	log.Infof("room %s: %s joined (%d/%d)", r.ID, player.Username, len(r.Players), r.NeedUsers)

	if len(r.Players) >= r.NeedUsers {
		r.schedule(actionStartGame, startGameDelay, now)
	}
}

type leaveCommand struct {
	sess *Session
}

func (c *leaveCommand) apply(r *Room, now time.Time) {
	player, ok := r.Players[c.sess.ID]
	if !ok {
		return
	}
	delete(r.Players, c.sess.ID)
	delete(r.sessions, c.sess.ID)
	r.playerCount.Store(int32(len(r.Players)))
	c.sess.ClearRoom(r.ID)

	r.broadcast(model.TypePlayerLeft, model.PlayerLeft{
		UserID:   player.ID,
		Username: player.Username,
	}, now)

	r.CompletedPlayers = 0
	log.Infof("room %s: %s left (%d remaining)", r.ID, player.Username, len(r.Players))

	switch {
	case len(r.Players) == 0:
		r.revertToWaitingNow()
	case len(r.Players) < r.NeedUsers:
		r.schedule(actionBackToWaiting, backToWaitingDelay, now)
	}
}

type moveCommand struct {
	userID    string
	direction string
}

func (c *moveCommand) apply(r *Room, _ time.Time) {
	player, ok := r.Players[c.userID]
	if !ok {
		return
	}
	player.Direction = c.direction
	switch c.direction {
	case "left":
		player.MoveDirection = -1
	case "right":
		player.MoveDirection = 1
	default:
		player.MoveDirection = 0
	}
}

type jumpCommand struct {
	userID string
}

func (c *jumpCommand) apply(r *Room, _ time.Time) {
	player, ok := r.Players[c.userID]
	if !ok {
		return
	}
	// Jumping needs solid footing and a free back.
	if player.IsOnGround && len(player.PlayersOnTop) == 0 {
		player.VelocityY = jumpForce
		player.IsOnGround = false
	}
}

type chatCommand struct {
	userID   string
	username string
	message  string
}

func (c *chatCommand) apply(r *Room, now time.Time) {
	r.broadcast(model.TypeChat, model.Chat{
		UserID:   c.userID,
		Username: c.username,
		Message:  c.message,
	}, now)
}
