package server

import "github.com/DiegoVanegas03/computo-nube-servidor/model"

// Physics constants, all in pixels per tick.
const (
	gravity      float32 = 0.5
	jumpForce    float32 = -10
	moveSpeed    float32 = 4.5
	maxFallSpeed float32 = 15

	playerWidth  float32 = 32
	playerHeight float32 = 48

	spawnX float32 = 300
	spawnY float32 = 20
)

// Player is the per-session physical body inside a room. It is owned
// exclusively by the simulation goroutine.
type Player struct {
	ID       string
	Username string

	X, Y      float32
	VelocityY float32

	// Direction is the raw intent string echoed to clients; MoveDirection is
	// the resolved -1/0/1 horizontal intent.
	Direction     string
	MoveDirection int

	IsOnGround bool
	IsVisible  bool

	Width  float32
	Height float32

	// PlayersOnTop holds ids of players currently resting on this player.
	// Cleared at the start of every tick.
	PlayersOnTop map[string]struct{}
}

func NewPlayer(id, username string) *Player {
	return &Player{
		ID:           id,
		Username:     username,
		X:            spawnX,
		Y:            spawnY,
		Direction:    "stop",
		IsVisible:    true,
		Width:        playerWidth,
		Height:       playerHeight,
		PlayersOnTop: make(map[string]struct{}),
	}
}

func (p *Player) State() model.PlayerState {
	return model.PlayerState{
		ID:        p.ID,
		Username:  p.Username,
		Direction: p.Direction,
		X:         p.X,
		Y:         p.Y,
		IsVisible: p.IsVisible,
	}
}

// overlaps reports plain bounding-box intersection with another player.
func (p *Player) overlaps(o *Player) bool {
	return p.X < o.X+o.Width &&
		p.X+p.Width > o.X &&
		p.Y < o.Y+o.Height &&
		p.Y+p.Height > o.Y
}
