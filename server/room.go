package server

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/DiegoVanegas03/computo-nube-servidor/model"
)

const (
	startGameDelay     = 3 * time.Second
	restartDelay       = 3 * time.Second
	backToWaitingDelay = 3 * time.Second

	// Waiting-room spawns sit further right than game spawns.
	waitingSpawnOffset float32 = 200

	roomCommandBuffer = 256
	// Membership changes are rare and must never be lost, so their queue is
	// small and its send blocks instead of dropping.
	roomMembershipBuffer = 32
)

type actionKind int

const (
	actionStartGame actionKind = iota
	actionRestart
	actionBackToWaiting
)

// deadlineAction is a wall-clock deadline checked each tick. Scheduled
// actions are never cancelled; they re-check room membership when they fire.
type deadlineAction struct {
	kind actionKind
	at   time.Time
}

// Room aggregates the grids, players, platforms and key of one level, plus
// the inbound command queue. All fields except the queue are owned
// exclusively by the simulation goroutine.
type Room struct {
	ID        string
	Name      string
	NeedUsers int

	waitingRoom Grid
	// gameTemplate is never handed out; the active grid is rebuilt from it
	// on every game start.
	gameTemplate Grid
	// World is the active grid reference, swapped between the waiting layout
	// and a fresh template clone, never mutated through aliasing.
	World Grid

	GameStarted      bool
	CanUpdate        bool
	CompletedPlayers int
	DoorOpen         bool

	Players   map[string]*Player
	Platforms map[string]*Platform
	Key       *Key

	sessions   map[string]*Session
	commands   chan roomCommand
	membership chan roomCommand
	pending    []deadlineAction

	// playerCount mirrors len(Players) for lock-free lobby listings read
	// outside the simulation goroutine.
	playerCount atomic.Int32
}

// PlayerCount is safe to call from any goroutine.
func (r *Room) PlayerCount() int {
	return int(r.playerCount.Load())
}

func NewRoom(id string, cfg *RoomConfig) (*Room, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("room %s: %w", id, err)
	}
	return &Room{
		ID:           id,
		Name:         cfg.RoomName,
		NeedUsers:    cfg.UsersToStart,
		waitingRoom:  cfg.WaitingRoom,
		gameTemplate: cfg.World.Clone(),
		World:        cfg.WaitingRoom,
		CanUpdate:    true,
		Players:      make(map[string]*Player),
		Platforms:    make(map[string]*Platform),
		sessions:     make(map[string]*Session),
		commands:     make(chan roomCommand, roomCommandBuffer),
		membership:   make(chan roomCommand, roomMembershipBuffer),
	}, nil
}

// Enqueue hands a parsed movement or chat intent to the room. Called from
// connection goroutines; applied by the simulation goroutine at the start of
// the room's tick. Drops rather than blocking so a flooded room never stalls
// a reader; a dropped intent is superseded by the next one anyway.
func (r *Room) Enqueue(cmd roomCommand) {
	select {
	case r.commands <- cmd:
	default:
		log.Warnf("room %s: command queue full, dropping %T", r.ID, cmd)
	}
}

// EnqueueMembership queues a join or leave. Unlike intents these are not
// re-sent by the client, so the send blocks until the queue has space. The
// queue is fully drained every tick, which bounds the wait to one tick.
func (r *Room) EnqueueMembership(cmd roomCommand) {
	r.membership <- cmd
}

func (r *Room) drainCommands(now time.Time) {
joins:
	for {
		select {
		case cmd := <-r.membership:
			cmd.apply(r, now)
		default:
			break joins
		}
	}
	for {
		select {
		case cmd := <-r.commands:
			cmd.apply(r, now)
		default:
			return
		}
	}
}

func (r *Room) schedule(kind actionKind, delay time.Duration, now time.Time) {
	r.pending = append(r.pending, deadlineAction{kind: kind, at: now.Add(delay)})
}

// firePending runs every due action, each guarded by a freshness check
// against current membership: the room may have emptied or refilled since
// the action was scheduled.
func (r *Room) firePending(now time.Time) {
	remaining := r.pending[:0]
	for _, a := range r.pending {
		if now.Before(a.at) {
			remaining = append(remaining, a)
			continue
		}
		switch a.kind {
		case actionStartGame:
			if len(r.Players) >= r.NeedUsers {
				r.startGame(now)
			}
		case actionRestart:
			if len(r.Players) > 0 && !r.CanUpdate {
				r.restartGame(now)
			}
		case actionBackToWaiting:
			if len(r.Players) > 0 && len(r.Players) < r.NeedUsers {
				r.backToWaiting(now)
			}
		}
	}
	r.pending = remaining
}

// Tick runs one fixed-rate simulation step. Order matters: commands first,
// then due deadline actions, then physics, rider propagation, platforms, key,
// and a single snapshot broadcast after everything has resolved.
func (r *Room) Tick(now time.Time) {
	r.drainCommands(now)
	r.firePending(now)

	if len(r.Players) == 0 || !r.CanUpdate {
		return
	}

	for _, p := range r.Players {
		if !p.IsVisible {
			continue
		}
		clear(p.PlayersOnTop)
	}

	prevX := make(map[string]float32, len(r.Players))
	for _, p := range r.Players {
		if !p.IsVisible {
			continue
		}
		prevX[p.ID] = p.X
	}

	for _, p := range r.sortedPlayers() {
		if !p.IsVisible {
			continue
		}
		r.stepPlayer(p, now)
	}

	r.propagateRiders(prevX)
	r.updatePlatformPositions(now)
	r.updatePlatformLogic(now)
	r.updateKey(now)

	r.broadcast(model.TypeGameUpdate, r.snapshot(), now)
}

func (r *Room) snapshot() model.GameUpdate {
	upd := model.GameUpdate{
		Players:   make([]model.PlayerState, 0, len(r.Players)),
		Platforms: make([]model.PlatformState, 0, len(r.Platforms)),
	}
	for _, p := range r.sortedPlayers() {
		upd.Players = append(upd.Players, p.State())
	}
	for _, pf := range r.sortedPlatforms() {
		upd.Platforms = append(upd.Platforms, pf.State())
	}
	if r.Key != nil {
		upd.Key = r.Key.State()
	}
	return upd
}

// sortedPlayers returns players in ascending id order. Every iteration that
// could leak map order into collision results goes through here.
func (r *Room) sortedPlayers() []*Player {
	out := make([]*Player, 0, len(r.Players))
	for _, p := range r.Players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Room) sortedPlatforms() []*Platform {
	out := make([]*Platform, 0, len(r.Platforms))
	for _, pf := range r.Platforms {
		out = append(out, pf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// initializePlatforms scans the active grid and merges each contiguous run
// of origin tiles into one platform entity.
func (r *Room) initializePlatforms() {
	r.Platforms = make(map[string]*Platform)
	rows, cols := r.World.Rows(), r.World.Cols()
	visited := make([][]bool, rows)
	for i := range visited {
		visited[i] = make([]bool, cols)
	}

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			tileType := r.World[y][x]
			if visited[y][x] || !isPlatformOrigin(tileType) {
				continue
			}
			maxX, maxY := x, y
			for maxX+1 < cols && isPlatformOrigin(r.World[y][maxX+1]) {
				maxX++
			}
			for maxY+1 < rows && isPlatformOrigin(r.World[maxY+1][x]) {
				maxY++
			}
			for py := y; py <= maxY; py++ {
				for px := x; px <= maxX; px++ {
					if isPlatformOrigin(r.World[py][px]) {
						visited[py][px] = true
					}
				}
			}

			id := fmt.Sprintf("platform_%d_%d", y, x)
			pf := NewPlatform(id, float32(x*SizeTile), float32(y*SizeTile), tileType)
			pf.Width = float32((maxX - x + 1) * SizeTile)
			pf.Height = float32((maxY - y + 1) * SizeTile)
			r.Platforms[id] = pf
			log.Debugf("room %s: platform %s at (%d,%d) size %vx%v", r.ID, id, x, y, pf.Width, pf.Height)
		}
	}
	log.Infof("room %s: %d platform(s) initialized", r.ID, len(r.Platforms))
}

// initializeKey scans the active grid for the key marker. One key per level.
func (r *Room) initializeKey() {
	r.Key = nil
	for y := range r.World {
		for x, code := range r.World[y] {
			if code == TileKey {
				r.Key = NewKey(float32(x*SizeTile), float32(y*SizeTile))
				log.Infof("room %s: key at (%d,%d)", r.ID, x, y)
				return
			}
		}
	}
}

// resetPlayers repositions everybody on non-overlapping spawn offsets, in id
// order so the layout is deterministic.
func (r *Room) resetPlayers(offsetX float32) {
	for i, p := range r.sortedPlayers() {
		p.X = offsetX + 20 + float32(i)*100
		p.Y = spawnY
		p.VelocityY = 0
		p.IsOnGround = false
		p.IsVisible = true
		clear(p.PlayersOnTop)
	}
}

// startGame swaps in a fresh clone of the immutable game template, rebuilds
// platforms and the key from it, and repositions everyone.
func (r *Room) startGame(now time.Time) {
	r.World = r.gameTemplate.Clone()
	r.initializePlatforms()
	r.initializeKey()
	r.GameStarted = true
	r.CanUpdate = true
	r.DoorOpen = false
	r.CompletedPlayers = 0
	r.resetPlayers(0)
	r.broadcast(model.TypeStartGame, model.StartGame{World: [][]int(r.World)}, now)
	log.Infof("room %s: game started with %d players", r.ID, len(r.Players))
}

// restartGame unfreezes the room after a game-over sequence.
func (r *Room) restartGame(now time.Time) {
	r.CompletedPlayers = 0
	r.resetPlayers(0)
	r.CanUpdate = true
	r.broadcast(model.TypeRestartGame, struct{}{}, now)
}

// backToWaiting reverts an under-threshold room to the lobby layout.
func (r *Room) backToWaiting(now time.Time) {
	r.World = r.waitingRoom
	r.Platforms = make(map[string]*Platform)
	r.Key = nil
	r.GameStarted = false
	r.DoorOpen = false
	r.CompletedPlayers = 0
	r.resetPlayers(waitingSpawnOffset)
	r.broadcast(model.TypeStartGame, model.StartGame{World: [][]int(r.World)}, now)
}

// revertToWaitingNow is the immediate variant used when the room empties.
func (r *Room) revertToWaitingNow() {
	r.World = r.waitingRoom
	r.Platforms = make(map[string]*Platform)
	r.Key = nil
	r.GameStarted = false
	r.CanUpdate = true
	r.DoorOpen = false
	r.CompletedPlayers = 0
	r.pending = nil
}

func (r *Room) broadcast(msgType string, data any, now time.Time) {
	payload, err := json.Marshal(model.ServerMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: now.UnixMilli(),
	})
	if err != nil {
		log.Errorf("room %s: marshal %s: %v", r.ID, msgType, err)
		return
	}
	for _, s := range r.sessions {
		s.Enqueue(payload)
	}
}

func (r *Room) broadcastExcept(exceptID, msgType string, data any, now time.Time) {
	payload, err := json.Marshal(model.ServerMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: now.UnixMilli(),
	})
	if err != nil {
		log.Errorf("room %s: marshal %s: %v", r.ID, msgType, err)
		return
	}
	for id, s := range r.sessions {
		if id != exceptID {
			s.Enqueue(payload)
		}
	}
}
