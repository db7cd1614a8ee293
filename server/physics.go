package server

import (
	"time"

	"github.com/DiegoVanegas03/computo-nube-servidor/model"
)

// stepPlayer resolves one player's motion for the tick: horizontal pass with
// full revert on any collision, then gravity and the vertical pass, then the
// winner check. Rider propagation runs separately once every player has
// moved.
func (r *Room) stepPlayer(p *Player, now time.Time) {
	// Horizontal pass. The first collision found wins and reverts the whole
	// move; no partial sliding up to the obstacle.
	oldX := p.X
	p.X += float32(p.MoveDirection) * moveSpeed
	if r.collidesHorizontal(p) || r.playerOverlapping(p) != nil || r.platformOverlapping(p) != nil {
		p.X = oldX
	}
	maxX := r.World.WidthPx() - p.Width
	if p.X < 0 {
		p.X = 0
	} else if p.X > maxX {
		p.X = maxX
	}

	// Vertical pass.
	p.VelocityY += gravity
	if p.VelocityY > maxFallSpeed {
		p.VelocityY = maxFallSpeed
	}
	p.Y += p.VelocityY

	switch {
	case p.VelocityY > 0:
		tileHit, fellOut := r.collidesBelow(p)
		if fellOut {
			r.handleFallOut(p, now)
			return
		}
		below := r.playerBelow(p)
		platform := r.platformBelow(p)

		if tileHit || below != nil || platform != nil {
			switch {
			case below != nil:
				p.Y = below.Y - p.Height
				below.PlayersOnTop[p.ID] = struct{}{}
			case platform != nil:
				p.Y = platform.Y - p.Height
			default:
				tileY := int(p.Y+p.Height) / SizeTile
				p.Y = float32(tileY*SizeTile) - p.Height
			}
			p.VelocityY = 0
			p.IsOnGround = true
		} else {
			p.IsOnGround = false
		}

	case p.VelocityY < 0 && r.collidesAbove(p):
		tileY := int(p.Y)/SizeTile + 1
		p.Y = float32(tileY * SizeTile)
		p.VelocityY = 0
		p.IsOnGround = false

	default:
		p.IsOnGround = false
	}

	r.checkWinnerTiles(p, now)
}

// handleFallOut freezes the room when a player drops past the bottom row and
// schedules the restart sequence. The freeze guard keeps a multi-player fall
// from broadcasting twice.
func (r *Room) handleFallOut(p *Player, now time.Time) {
	p.VelocityY = 0
	p.IsOnGround = false
	if !r.CanUpdate {
		return
	}
	r.CanUpdate = false
	r.broadcast(model.TypeGameOver, model.GameOver{UserName: p.Username}, now)
	r.schedule(actionRestart, restartDelay, now)
}

// checkWinnerTiles completes a player whose bounding box overlaps a winner
// tile. In key-bearing rooms the door must have been opened first (§ key).
func (r *Room) checkWinnerTiles(p *Player, now time.Time) {
	if !p.IsVisible {
		return
	}
	if r.Key != nil && !r.DoorOpen {
		return
	}
	if !r.overlapsWinnerTiles(p) {
		return
	}
	p.IsVisible = false
	r.CompletedPlayers++
	if r.CompletedPlayers >= len(r.Players) {
		r.broadcast(model.TypeGameWin, struct{}{}, now)
	}
}

func (r *Room) overlapsWinnerTiles(p *Player) bool {
	left := int(p.X) / SizeTile
	right := int(p.X+p.Width-1) / SizeTile
	top := int(p.Y) / SizeTile
	bottom := int(p.Y+p.Height-1) / SizeTile

	if left < 0 || right >= r.World.Cols() || top < 0 || bottom >= r.World.Rows() {
		return false
	}
	for y := top; y <= bottom; y++ {
		for x := left; x <= right; x++ {
			if isWinnerTile(r.World[y][x]) {
				return true
			}
		}
	}
	return false
}

// collidesHorizontal checks solid tiles along the player's left and right
// edges. Leaving the horizontal bounds counts as a collision; being past the
// vertical bounds does not (the fall-out check owns that case).
func (r *Room) collidesHorizontal(p *Player) bool {
	top := int(p.Y) / SizeTile
	bottom := int(p.Y+p.Height-1) / SizeTile
	left := int(p.X) / SizeTile
	right := int(p.X+p.Width-1) / SizeTile

	if left < 0 || right >= r.World.Cols() {
		return true
	}
	if top < 0 || bottom >= r.World.Rows() {
		return false
	}
	for y := top; y <= bottom; y++ {
		if isSolidTile(r.World[y][left]) || isSolidTile(r.World[y][right]) {
			return true
		}
	}
	return false
}

// collidesBelow checks the tile row under the player's feet. fellOut reports
// the bottom row lying past the grid, which is game over, not a collision.
// The one-pixel corner trims keep a player hanging off an edge from snagging.
func (r *Room) collidesBelow(p *Player) (hit, fellOut bool) {
	bottomTile := int(p.Y+p.Height) / SizeTile
	left := int(p.X+1) / SizeTile
	right := int(p.X+p.Width-2) / SizeTile

	if bottomTile >= r.World.Rows() {
		return false, true
	}
	if left < 0 || right >= r.World.Cols() {
		return false, false
	}
	for x := left; x <= right; x++ {
		if isSolidTile(r.World[bottomTile][x]) {
			return true, false
		}
	}
	return false, false
}

func (r *Room) collidesAbove(p *Player) bool {
	top := int(p.Y) / SizeTile
	left := int(p.X) / SizeTile
	right := int(p.X+p.Width-1) / SizeTile

	if top < 0 {
		return true
	}
	if left < 0 || right >= r.World.Cols() {
		return false
	}
	for x := left; x <= right; x++ {
		if isSolidTile(r.World[top][x]) {
			return true
		}
	}
	return false
}

// playerOverlapping returns the lowest-id visible player whose box overlaps
// p, or nil.
func (r *Room) playerOverlapping(p *Player) *Player {
	for _, other := range r.sortedPlayers() {
		if other.ID == p.ID || !other.IsVisible {
			continue
		}
		if p.overlaps(other) {
			return other
		}
	}
	return nil
}

func (r *Room) platformOverlapping(p *Player) *Platform {
	for _, pf := range r.sortedPlatforms() {
		if pf.overlapsPlayer(p) {
			return pf
		}
	}
	return nil
}

// playerBelow returns the lowest-id visible player p is landing on, using a
// slightly trimmed horizontal overlap so corner grazes don't count.
func (r *Room) playerBelow(p *Player) *Player {
	bottom := p.Y + p.Height
	for _, other := range r.sortedPlayers() {
		if other.ID == p.ID || !other.IsVisible {
			continue
		}
		horizontal := p.X+2 < other.X+other.Width && p.X+p.Width-2 > other.X
		vertical := bottom >= other.Y-5 && bottom <= other.Y+15
		if horizontal && vertical {
			return other
		}
	}
	return nil
}

// platformBelow returns the platform whose top is vertically closest to the
// player's feet among overlapping candidates; exact ties go to the lowest id.
func (r *Room) platformBelow(p *Player) *Platform {
	bottom := p.Y + p.Height
	var closest *Platform
	var closestDistance float32
	for _, pf := range r.sortedPlatforms() {
		horizontal := p.X+2 < pf.X+pf.Width && p.X+p.Width-2 > pf.X
		if !horizontal || bottom < pf.Y || bottom > pf.Y+platformBandBelow {
			continue
		}
		distance := abs32(bottom - pf.Y)
		if closest == nil || distance < closestDistance {
			closest = pf
			closestDistance = distance
		}
	}
	return closest
}

// propagateRiders re-seats every rider on its carrier and drags it by the
// carrier's realized horizontal delta for this tick, not the raw intent.
func (r *Room) propagateRiders(prevX map[string]float32) {
	maxX := r.World.WidthPx()
	for _, carrier := range r.sortedPlayers() {
		if len(carrier.PlayersOnTop) == 0 {
			continue
		}
		before, ok := prevX[carrier.ID]
		if !ok {
			continue
		}
		deltaX := carrier.X - before
		for _, rider := range r.sortedPlayers() {
			if _, on := carrier.PlayersOnTop[rider.ID]; !on {
				continue
			}
			rider.Y = carrier.Y - rider.Height
			rider.X += deltaX
			if rider.X < 0 {
				rider.X = 0
			} else if rider.X > maxX-rider.Width {
				rider.X = maxX - rider.Width
			}
		}
	}
}
