package server

import (
	"time"

	"github.com/tanema/gween/ease"

	"github.com/DiegoVanegas03/computo-nube-servidor/model"
)

const (
	// platformMoveDuration is how long one origin->destination trip takes.
	platformMoveDuration = 1500 * time.Millisecond
	// platformDetectionDelay is how long the rider requirement must hold
	// before a platform starts moving.
	platformDetectionDelay = 50 * time.Millisecond

	// Riders are detected in a tolerance band below the platform top.
	platformBandAbove float32 = 10
	platformBandBelow float32 = 20
)

// Platform is a moving-platform entity scanned out of the grid when a game
// starts. Type encodes the required rider count (type - 30).
type Platform struct {
	ID     string
	X, Y   float32
	Width  float32
	Height float32
	Type   int

	// Direction is -1 while moving up, 1 while moving down, 0 at rest.
	Direction         int
	RequiredPlayers   int
	PlayersOnPlatform int

	DestY    float32
	IsMoving bool

	moveStart time.Time
	moveFromY float32

	// detectedAt is when the rider requirement was first continuously met.
	// Zero while the requirement is unmet.
	detectedAt time.Time

	OriginalX  float32
	OriginalY  float32
	IsAtOrigin bool
}

func NewPlatform(id string, x, y float32, tileType int) *Platform {
	return &Platform{
		ID:              id,
		X:               x,
		Y:               y,
		OriginalX:       x,
		OriginalY:       y,
		Type:            tileType,
		Width:           SizeTile,
		Height:          SizeTile,
		RequiredPlayers: tileType - TilePlatformDest,
		IsAtOrigin:      true,
	}
}

// easedProgress maps elapsed move time to eased [0,1] progress.
func easedProgress(elapsed time.Duration) float32 {
	if elapsed <= 0 {
		return 0
	}
	if elapsed >= platformMoveDuration {
		return 1
	}
	return ease.InOutCubic(float32(elapsed.Milliseconds()), 0, 1, float32(platformMoveDuration.Milliseconds()))
}

func (pf *Platform) StartMovement(direction int, destY float32, now time.Time) {
	pf.Direction = direction
	pf.DestY = destY
	pf.IsMoving = true
	pf.moveStart = now
	pf.moveFromY = pf.Y
	pf.IsAtOrigin = false
}

// ReturnToOrigin replays the movement animation back to the spawn position.
func (pf *Platform) ReturnToOrigin(now time.Time) {
	direction := 1
	if pf.Y > pf.OriginalY {
		direction = -1
	}
	pf.StartMovement(direction, pf.OriginalY, now)
}

// UpdatePosition advances the eased interpolation and returns the realized
// displacement since the previous sample, computed from the curve at two
// sample times rather than from velocity. Riders standing on the platform are
// moved by exactly this delta.
func (pf *Platform) UpdatePosition(now time.Time) float32 {
	if !pf.IsMoving {
		return 0
	}

	elapsed := now.Sub(pf.moveStart)
	curr := easedProgress(elapsed)
	prev := easedProgress(elapsed - tickInterval)

	span := pf.DestY - pf.moveFromY
	pf.Y = pf.moveFromY + span*curr

	if elapsed >= platformMoveDuration {
		pf.Y = pf.DestY
		pf.IsMoving = false
		pf.Direction = 0
	}
	// Only landing on the literal origin coordinate restores the flag.
	if !pf.IsMoving && abs32(pf.Y-pf.OriginalY) < 0.1 {
		pf.IsAtOrigin = true
	}
	return span * (curr - prev)
}

// inRiderBand reports whether the player's feet sit in the detection band
// over this platform's footprint.
func (pf *Platform) inRiderBand(p *Player) bool {
	bottom := p.Y + p.Height
	return p.X+p.Width > pf.X &&
		p.X < pf.X+pf.Width &&
		bottom >= pf.Y-platformBandAbove &&
		bottom <= pf.Y+platformBandBelow
}

func (pf *Platform) overlapsPlayer(p *Player) bool {
	return p.X < pf.X+pf.Width &&
		p.X+p.Width > pf.X &&
		p.Y < pf.Y+pf.Height &&
		p.Y+p.Height > pf.Y
}

func (pf *Platform) PlayersNeeded() int {
	if n := pf.RequiredPlayers - pf.PlayersOnPlatform; n > 0 {
		return n
	}
	return 0
}

func (pf *Platform) State() model.PlatformState {
	return model.PlatformState{
		ID:                pf.ID,
		X:                 pf.X,
		Y:                 pf.Y,
		Width:             pf.Width,
		Height:            pf.Height,
		Type:              pf.Type,
		Direction:         pf.Direction,
		IsMoving:          pf.IsMoving,
		PlayersOnPlatform: pf.PlayersOnPlatform,
		RequiredPlayers:   pf.RequiredPlayers,
		PlayersNeeded:     pf.PlayersNeeded(),
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
