package server

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DiegoVanegas03/computo-nube-servidor/model"
)

// Fixtures shared across the package tests. Rooms are driven by explicit
// Tick calls with hand-picked times; sessions run without a live socket and
// broadcasts are read back from the session's send queue.

var testEpoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func emptyGrid(rows, cols int) Grid {
	g := make(Grid, rows)
	for i := range g {
		g[i] = make([]int, cols)
	}
	return g
}

// flatWorld is 10 tiles wide and 6 tall with a solid floor on the bottom
// row. Ground top sits at y=240; a standing player rests at y=192.
func flatWorld() Grid {
	g := emptyGrid(6, 10)
	for x := 0; x < 10; x++ {
		g[5][x] = 3
	}
	return g
}

func testConfig(needUsers int) *RoomConfig {
	return &RoomConfig{
		RoomName:     "test room",
		UsersToStart: needUsers,
		WaitingRoom:  flatWorld(),
		World:        flatWorld(),
	}
}

func newTestRoom(t *testing.T, needUsers int) *Room {
	t.Helper()
	room, err := NewRoom("r1", testConfig(needUsers))
	require.NoError(t, err)
	return room
}

func newTestSession(id string) *Session {
	s := NewSession(nil)
	s.ID = id
	s.Username = id
	return s
}

// addPlayer registers a player directly with the room, bypassing the command
// queue, for physics-focused tests.
func addPlayer(r *Room, id string, x, y float32) *Player {
	p := NewPlayer(id, id)
	p.X, p.Y = x, y
	r.Players[id] = p
	r.playerCount.Store(int32(len(r.Players)))
	return p
}

func attachSession(r *Room, id string) *Session {
	s := newTestSession(id)
	r.sessions[id] = s
	return s
}

func drainMessages(t *testing.T, s *Session) []model.ServerMessage {
	t.Helper()
	var out []model.ServerMessage
	for {
		select {
		case payload := <-s.send:
			var msg model.ServerMessage
			require.NoError(t, json.Unmarshal(payload, &msg))
			out = append(out, msg)
		default:
			return out
		}
	}
}

func messageTypes(msgs []model.ServerMessage) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Type
	}
	return out
}

func hasMessage(msgs []model.ServerMessage, msgType string) bool {
	for _, m := range msgs {
		if m.Type == msgType {
			return true
		}
	}
	return false
}
