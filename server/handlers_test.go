package server

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DiegoVanegas03/computo-nube-servidor/model"
)

func newTestServer(t *testing.T) *GameServer {
	t.Helper()
	reg := NewRegistry()
	room, err := NewRoom("r1", testConfig(1))
	require.NoError(t, err)
	reg.Add(room)
	return NewGameServer(reg, LengthAuthenticator{})
}

func clientFrame(t *testing.T, msgType string, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	payload, err := json.Marshal(model.ClientMessage{Type: msgType, Data: raw})
	require.NoError(t, err)
	return payload
}

// decodeData re-decodes a broadcast payload into a concrete message struct.
func decodeData(t *testing.T, m model.ServerMessage, out any) {
	t.Helper()
	raw, err := json.Marshal(m.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func authenticate(t *testing.T, gs *GameServer, sess *Session, username string) {
	t.Helper()
	gs.handleMessage(sess, clientFrame(t, model.TypeAuth, model.Auth{
		Username: username,
		Password: "secret",
	}), testEpoch)
	msgs := drainMessages(t, sess)
	require.True(t, hasMessage(msgs, model.TypeAuthSuccess), "auth failed: %v", messageTypes(msgs))
}

func TestAuthSuccessReturnsRoomList(t *testing.T) {
	gs := newTestServer(t)
	sess := NewSession(nil)

	gs.handleMessage(sess, clientFrame(t, model.TypeAuth, model.Auth{
		Username: "alice",
		Password: "secret",
	}), testEpoch)

	require.NotEmpty(t, sess.ID)
	msgs := drainMessages(t, sess)
	require.Len(t, msgs, 1)
	require.Equal(t, model.TypeAuthSuccess, msgs[0].Type)

	var ok model.AuthSuccess
	decodeData(t, msgs[0], &ok)
	assert.Equal(t, sess.ID, ok.UserID)
	assert.Equal(t, "alice", ok.Username)
	require.Len(t, ok.Rooms, 1)
	assert.Equal(t, "r1", ok.Rooms[0].ID)
}

func TestAuthRejectsShortCredentials(t *testing.T) {
	gs := newTestServer(t)
	sess := NewSession(nil)

	gs.handleMessage(sess, clientFrame(t, model.TypeAuth, model.Auth{
		Username: "al",
		Password: "secret",
	}), testEpoch)

	assert.Empty(t, sess.ID)
	msgs := drainMessages(t, sess)
	require.True(t, hasMessage(msgs, model.TypeAuthFailed))
}

func TestAuthRejectsDuplicateLogin(t *testing.T) {
	gs := newTestServer(t)
	first := NewSession(nil)
	authenticate(t, gs, first, "alice")

	second := NewSession(nil)
	gs.handleMessage(second, clientFrame(t, model.TypeAuth, model.Auth{
		Username: "alice",
		Password: "secret",
	}), testEpoch)

	assert.Empty(t, second.ID, "failed auth leaves the session anonymous")
	msgs := drainMessages(t, second)
	require.Len(t, msgs, 1)
	require.Equal(t, model.TypeAuthFailed, msgs[0].Type)
	var failed model.AuthFailed
	decodeData(t, msgs[0], &failed)
	assert.Equal(t, "user already logged in", failed.Reason)
}

func TestUsernameFreesUpOnDisconnect(t *testing.T) {
	gs := newTestServer(t)
	first := NewSession(nil)
	authenticate(t, gs, first, "alice")
	gs.removeSession(first)
	first.Close()

	second := NewSession(nil)
	authenticate(t, gs, second, "alice")
}

func TestCommandsBeforeAuthAreRefused(t *testing.T) {
	gs := newTestServer(t)
	sess := NewSession(nil)

	gs.handleMessage(sess, clientFrame(t, model.TypeMove, model.Move{Direction: "left"}), testEpoch)

	msgs := drainMessages(t, sess)
	require.Len(t, msgs, 1)
	require.Equal(t, model.TypeError, msgs[0].Type)
	var e model.Error
	decodeData(t, msgs[0], &e)
	assert.Equal(t, "not authenticated", e.Message)
}

func TestMalformedFrameAnswersError(t *testing.T) {
	gs := newTestServer(t)
	sess := NewSession(nil)

	gs.handleMessage(sess, []byte("{nope"), testEpoch)

	msgs := drainMessages(t, sess)
	require.Len(t, msgs, 1)
	assert.Equal(t, model.TypeError, msgs[0].Type)
}

func TestUnknownMessageTypeAnswersError(t *testing.T) {
	gs := newTestServer(t)
	sess := NewSession(nil)
	authenticate(t, gs, sess, "alice")

	gs.handleMessage(sess, clientFrame(t, "teleport", struct{}{}), testEpoch)

	msgs := drainMessages(t, sess)
	require.Len(t, msgs, 1)
	var e model.Error
	decodeData(t, msgs[0], &e)
	assert.Equal(t, "unknown message type", e.Message)
}

func TestJoinUnknownRoomAnswersError(t *testing.T) {
	gs := newTestServer(t)
	sess := NewSession(nil)
	authenticate(t, gs, sess, "alice")

	gs.handleMessage(sess, clientFrame(t, model.TypeJoinRoom, model.JoinRoom{RoomID: "nope"}), testEpoch)

	msgs := drainMessages(t, sess)
	require.Len(t, msgs, 1)
	var e model.Error
	decodeData(t, msgs[0], &e)
	assert.Equal(t, "room not found", e.Message)
}

func TestLeaveWithoutRoomAnswersError(t *testing.T) {
	gs := newTestServer(t)
	sess := NewSession(nil)
	authenticate(t, gs, sess, "alice")

	gs.handleMessage(sess, clientFrame(t, model.TypeLeaveRoom, struct{}{}), testEpoch)

	msgs := drainMessages(t, sess)
	require.Len(t, msgs, 1)
	var e model.Error
	decodeData(t, msgs[0], &e)
	assert.Equal(t, "not in a room", e.Message)
}

func TestInvalidMoveDirectionAnswersError(t *testing.T) {
	gs := newTestServer(t)
	sess := NewSession(nil)
	authenticate(t, gs, sess, "alice")

	gs.handleMessage(sess, clientFrame(t, model.TypeMove, model.Move{Direction: "up"}), testEpoch)

	msgs := drainMessages(t, sess)
	require.Len(t, msgs, 1)
	var e model.Error
	decodeData(t, msgs[0], &e)
	assert.Equal(t, "invalid direction", e.Message)
}

func TestJoinRoomFlowThroughHandlers(t *testing.T) {
	gs := newTestServer(t)
	room := gs.Registry.Get("r1")
	sess := NewSession(nil)
	authenticate(t, gs, sess, "alice")

	gs.handleMessage(sess, clientFrame(t, model.TypeJoinRoom, model.JoinRoom{RoomID: "r1"}), testEpoch)
	room.Tick(testEpoch.Add(tickInterval))

	require.Contains(t, room.Players, sess.ID)
	assert.Equal(t, "r1", sess.CurrentRoom())

	msgs := drainMessages(t, sess)
	require.True(t, hasMessage(msgs, model.TypeRoomJoined))
	var joined model.RoomJoined
	for _, m := range msgs {
		if m.Type == model.TypeRoomJoined {
			decodeData(t, m, &joined)
		}
	}
	assert.Equal(t, "r1", joined.RoomID)
	assert.NotEmpty(t, joined.World)

	gs.handleMessage(sess, clientFrame(t, model.TypeMove, model.Move{Direction: "right"}), testEpoch)
	room.Tick(testEpoch.Add(2 * tickInterval))
	assert.Equal(t, 1, room.Players[sess.ID].MoveDirection)
}

func TestChatFlowThroughHandlers(t *testing.T) {
	gs := newTestServer(t)
	room := gs.Registry.Get("r1")
	sess := NewSession(nil)
	authenticate(t, gs, sess, "alice")

	gs.handleMessage(sess, clientFrame(t, model.TypeJoinRoom, model.JoinRoom{RoomID: "r1"}), testEpoch)
	room.Tick(testEpoch.Add(tickInterval))
	drainMessages(t, sess)

	gs.handleMessage(sess, clientFrame(t, model.TypeChat, model.ChatSend{Message: "hola"}), testEpoch)
	room.Tick(testEpoch.Add(2 * tickInterval))

	msgs := drainMessages(t, sess)
	require.True(t, hasMessage(msgs, model.TypeChat))
	var chat model.Chat
	for _, m := range msgs {
		if m.Type == model.TypeChat {
			decodeData(t, m, &chat)
		}
	}
	assert.Equal(t, "hola", chat.Message)
	assert.Equal(t, "alice", chat.Username)
}

func TestSwitchingRoomsLeavesTheOldOne(t *testing.T) {
	gs := newTestServer(t)
	room2, err := NewRoom("r2", testConfig(1))
	require.NoError(t, err)
	gs.Registry.Add(room2)
	room1 := gs.Registry.Get("r1")

	sess := NewSession(nil)
	authenticate(t, gs, sess, "alice")

	gs.handleMessage(sess, clientFrame(t, model.TypeJoinRoom, model.JoinRoom{RoomID: "r1"}), testEpoch)
	room1.Tick(testEpoch.Add(tickInterval))
	require.Contains(t, room1.Players, sess.ID)

	gs.handleMessage(sess, clientFrame(t, model.TypeJoinRoom, model.JoinRoom{RoomID: "r2"}), testEpoch)
	room1.Tick(testEpoch.Add(2 * tickInterval))
	room2.Tick(testEpoch.Add(2 * tickInterval))

	assert.NotContains(t, room1.Players, sess.ID)
	assert.Contains(t, room2.Players, sess.ID)
	assert.Equal(t, "r2", sess.CurrentRoom())
}

func TestRegistryListReflectsOccupancy(t *testing.T) {
	gs := newTestServer(t)
	room := gs.Registry.Get("r1")
	for i := 0; i < 3; i++ {
		s := newTestSession(fmt.Sprintf("p%d", i))
		room.EnqueueMembership(&joinCommand{sess: s})
	}
	room.Tick(testEpoch)

	list := gs.Registry.List()
	require.Len(t, list, 1)
	assert.Equal(t, 3, list[0].Players)
}
