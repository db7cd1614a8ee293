package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DiegoVanegas03/computo-nube-servidor/model"
)

func TestJoinFlowStartsGameAfterDelay(t *testing.T) {
	r := newTestRoom(t, 2)
	s1 := newTestSession("a")
	s2 := newTestSession("b")

	r.EnqueueMembership(&joinCommand{sess: s1})
	r.Tick(testEpoch)
	require.Len(t, r.Players, 1)
	assert.False(t, r.GameStarted, "one player is below the start threshold")

	joinedAt := testEpoch.Add(tickInterval)
	r.EnqueueMembership(&joinCommand{sess: s2})
	r.Tick(joinedAt)
	require.Len(t, r.Players, 2)
	assert.Equal(t, 2, r.PlayerCount())
	assert.Equal(t, r.ID, s2.CurrentRoom())

	// Not yet: the countdown runs three seconds.
	r.Tick(joinedAt.Add(time.Second))
	assert.False(t, r.GameStarted)

	r.Tick(joinedAt.Add(startGameDelay + tickInterval))
	require.True(t, r.GameStarted)
	assert.Equal(t, float32(20), r.Players["a"].X, "spawns laid out in id order")
	assert.Equal(t, float32(120), r.Players["b"].X)

	msgs := drainMessages(t, s1)
	assert.True(t, hasMessage(msgs, model.TypeRoomJoined))
	assert.True(t, hasMessage(msgs, model.TypePlayerJoined), "told about the second player")
	assert.True(t, hasMessage(msgs, model.TypeStartGame))

	msgs2 := drainMessages(t, s2)
	assert.True(t, hasMessage(msgs2, model.TypeRoomJoined))
	assert.False(t, hasMessage(msgs2, model.TypePlayerJoined), "not told about their own join")
}

func TestStartAbortsIfPlayerLeavesDuringCountdown(t *testing.T) {
	r := newTestRoom(t, 2)
	s1 := newTestSession("a")
	s2 := newTestSession("b")
	r.EnqueueMembership(&joinCommand{sess: s1})
	r.EnqueueMembership(&joinCommand{sess: s2})
	r.Tick(testEpoch)

	r.EnqueueMembership(&leaveCommand{sess: s2})
	r.Tick(testEpoch.Add(time.Second))

	r.Tick(testEpoch.Add(startGameDelay + tickInterval))
	assert.False(t, r.GameStarted, "the countdown re-checks membership when it fires")
}

func TestWorldTemplateSurvivesMutation(t *testing.T) {
	r := newTestRoom(t, 1)
	addPlayer(r, "a", 100, 192)

	r.startGame(testEpoch)
	require.Equal(t, 0, r.World[1][1])
	r.World[1][1] = 99

	r.startGame(testEpoch.Add(time.Minute))
	assert.Equal(t, 0, r.World[1][1], "every start works from a pristine template clone")
}

func TestEmptyRoomRevertsImmediately(t *testing.T) {
	r := newTestRoom(t, 2)
	s1 := newTestSession("a")
	r.EnqueueMembership(&joinCommand{sess: s1})
	r.Tick(testEpoch)
	require.Equal(t, r.ID, s1.CurrentRoom())

	r.EnqueueMembership(&leaveCommand{sess: s1})
	r.Tick(testEpoch.Add(tickInterval))

	assert.Empty(t, r.Players)
	assert.Equal(t, 0, r.PlayerCount())
	assert.Empty(t, s1.CurrentRoom())
	assert.False(t, r.GameStarted)
	assert.Empty(t, r.pending, "nothing left scheduled for an empty room")
	assert.True(t, r.CanUpdate)
}

func TestUnderThresholdRevertsToWaiting(t *testing.T) {
	r := newTestRoom(t, 2)
	s1 := newTestSession("a")
	s2 := newTestSession("b")
	r.EnqueueMembership(&joinCommand{sess: s1})
	r.EnqueueMembership(&joinCommand{sess: s2})
	r.Tick(testEpoch)
	r.Tick(testEpoch.Add(startGameDelay + tickInterval))
	require.True(t, r.GameStarted)

	leftAt := testEpoch.Add(4 * time.Second)
	r.EnqueueMembership(&leaveCommand{sess: s2})
	r.Tick(leftAt)
	assert.True(t, r.GameStarted, "the survivor plays on during the grace period")
	assert.True(t, hasMessage(drainMessages(t, s1), model.TypePlayerLeft))

	r.Tick(leftAt.Add(backToWaitingDelay + tickInterval))
	assert.False(t, r.GameStarted)
	assert.Empty(t, r.Platforms)
	assert.Nil(t, r.Key)
	assert.Equal(t, waitingSpawnOffset+20, r.Players["a"].X, "waiting spawns sit past the lobby offset")
	assert.True(t, hasMessage(drainMessages(t, s1), model.TypeStartGame), "lobby layout pushed to the survivor")
}

func TestLeaveResetsCompletionProgress(t *testing.T) {
	r := newTestRoom(t, 2)
	s1 := newTestSession("a")
	s2 := newTestSession("b")
	r.EnqueueMembership(&joinCommand{sess: s1})
	r.EnqueueMembership(&joinCommand{sess: s2})
	r.Tick(testEpoch)
	r.CompletedPlayers = 1

	r.EnqueueMembership(&leaveCommand{sess: s2})
	r.Tick(testEpoch.Add(tickInterval))

	assert.Equal(t, 0, r.CompletedPlayers)
}

func TestChatReachesEveryoneIncludingSender(t *testing.T) {
	r := newTestRoom(t, 2)
	s1 := newTestSession("a")
	s2 := newTestSession("b")
	r.EnqueueMembership(&joinCommand{sess: s1})
	r.EnqueueMembership(&joinCommand{sess: s2})
	r.Tick(testEpoch)
	drainMessages(t, s1)
	drainMessages(t, s2)

	r.Enqueue(&chatCommand{userID: "a", username: "a", message: "hola"})
	r.Tick(testEpoch.Add(tickInterval))

	assert.True(t, hasMessage(drainMessages(t, s1), model.TypeChat))
	assert.True(t, hasMessage(drainMessages(t, s2), model.TypeChat))
}

func TestTickBroadcastsGameUpdates(t *testing.T) {
	r := newTestRoom(t, 1)
	addPlayer(r, "a", 100, 192)
	s := attachSession(r, "a")

	r.Tick(testEpoch.Add(tickInterval))

	msgs := drainMessages(t, s)
	require.True(t, hasMessage(msgs, model.TypeGameUpdate))
}

func TestLeaveSurvivesFloodedIntentQueue(t *testing.T) {
	r := newTestRoom(t, 2)
	s := newTestSession("a")
	r.EnqueueMembership(&joinCommand{sess: s})
	r.Tick(testEpoch)
	require.Contains(t, r.Players, "a")

	// A member spamming intents fills the lossy queue to the brim; the
	// disconnect that follows must still land.
	for i := 0; i < roomCommandBuffer+10; i++ {
		r.Enqueue(&moveCommand{userID: "a", direction: "left"})
	}
	r.EnqueueMembership(&leaveCommand{sess: s})
	r.Tick(testEpoch.Add(tickInterval))
	r.Tick(testEpoch.Add(2 * tickInterval))

	assert.NotContains(t, r.Players, "a", "membership changes are never dropped")
	assert.Equal(t, 0, r.PlayerCount())
	assert.Empty(t, s.CurrentRoom())
}

func TestJoinSurvivesFloodedIntentQueue(t *testing.T) {
	r := newTestRoom(t, 2)
	for i := 0; i < roomCommandBuffer+10; i++ {
		r.Enqueue(&moveCommand{userID: "x", direction: "left"})
	}
	s := newTestSession("a")
	r.EnqueueMembership(&joinCommand{sess: s})
	r.Tick(testEpoch)

	assert.Contains(t, r.Players, "a")
}

func TestEnqueueNeverBlocksWhenFull(t *testing.T) {
	r := newTestRoom(t, 1)
	done := make(chan struct{})
	go func() {
		for i := 0; i < roomCommandBuffer+10; i++ {
			r.Enqueue(&moveCommand{userID: "a", direction: "stop"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
}
