package server

import (
	"time"
)

// Room-level orchestration of the cooperative mechanics: platform rider
// detection and state transitions, and the key lifecycle. Runs inside the
// tick after all player motion has resolved.

// updatePlatformPositions advances every moving platform and carries the
// players standing on it by the platform's realized displacement. Must run
// before updatePlatformLogic so rider detection sees settled positions.
func (r *Room) updatePlatformPositions(now time.Time) {
	platforms := r.sortedPlatforms()
	deltas := make(map[string]float32, len(platforms))
	for _, pf := range platforms {
		deltas[pf.ID] = pf.UpdatePosition(now)
	}

	for _, p := range r.sortedPlayers() {
		if !p.IsVisible {
			continue
		}
		for _, pf := range platforms {
			if pf.IsMoving && pf.inRiderBand(p) {
				p.Y += deltas[pf.ID]
				break // a player rides at most one platform
			}
		}
	}
}

// updatePlatformLogic recomputes rider counts and drives the platform state
// machine: waiting for riders at origin, starting a move once the count has
// held for the detection delay, and returning when the count drops while
// idle off-origin.
func (r *Room) updatePlatformLogic(now time.Time) {
	counts := r.countRiders()

	for _, pf := range r.sortedPlatforms() {
		riders := counts[pf.ID]
		pf.PlayersOnPlatform = riders

		if riders < pf.RequiredPlayers && !pf.IsMoving {
			if pf.Y != pf.OriginalY {
				pf.ReturnToOrigin(now)
			}
			pf.detectedAt = time.Time{}
			continue
		}

		if !pf.IsMoving && riders >= pf.RequiredPlayers && pf.IsAtOrigin {
			if pf.detectedAt.IsZero() {
				pf.detectedAt = now
			}
			if now.Sub(pf.detectedAt) >= platformDetectionDelay {
				if direction, destY, found := r.findPlatformDestination(pf); found {
					pf.StartMovement(direction, destY, now)
					pf.detectedAt = time.Time{}
				}
			}
		} else if riders < pf.RequiredPlayers {
			pf.detectedAt = time.Time{}
		}
	}
}

// countRiders maps each platform to its qualifying riders: players whose
// feet sit in the platform's band, plus everyone transitively stacked on top
// of them.
func (r *Room) countRiders() map[string]int {
	counts := make(map[string]int, len(r.Platforms))
	for id := range r.Platforms {
		counts[id] = 0
	}

	players := r.sortedPlayers()
	for _, p := range players {
		if !p.IsVisible {
			continue
		}
		for _, pf := range r.sortedPlatforms() {
			if pf.inRiderBand(p) {
				counts[pf.ID] += 1 + r.countStackedAbove(p, players)
				break
			}
		}
	}
	return counts
}

// countStackedAbove walks the "on top of" graph upward from base with a
// breadth-first traversal. The visited set guarantees termination even for a
// degenerate overlap cycle that physics should never produce.
func (r *Room) countStackedAbove(base *Player, players []*Player) int {
	visited := map[string]struct{}{base.ID: {}}
	queue := []*Player{base}
	count := 0

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, other := range players {
			if !other.IsVisible {
				continue
			}
			if _, seen := visited[other.ID]; seen {
				continue
			}
			bottom := other.Y + other.Height
			onTop := other.X+other.Width > current.X &&
				other.X < current.X+current.Width &&
				bottom >= current.Y-platformBandAbove &&
				bottom <= current.Y+platformBandBelow
			if onTop {
				visited[other.ID] = struct{}{}
				count++
				queue = append(queue, other)
			}
		}
	}
	return count
}

// findPlatformDestination scans rows outward from the platform's tile row,
// first strictly upward then downward, for a destination tile aligned with
// the platform's horizontal span. The first row found wins.
func (r *Room) findPlatformDestination(pf *Platform) (direction int, destY float32, found bool) {
	tileY := int(pf.Y) / SizeTile
	tileX := int(pf.X) / SizeTile
	tileW := int(pf.Width) / SizeTile

	rowHasDest := func(y int) bool {
		for x := tileX; x < tileX+tileW; x++ {
			if x >= 0 && x < r.World.Cols() && r.World[y][x] == TilePlatformDest {
				return true
			}
		}
		return false
	}

	for y := tileY - 1; y >= 0; y-- {
		if rowHasDest(y) {
			return -1, float32(y * SizeTile), true
		}
	}
	for y := tileY + 1; y < r.World.Rows(); y++ {
		if rowHasDest(y) {
			return 1, float32(y * SizeTile), true
		}
	}
	return 0, pf.Y, false
}

// updateKey runs the key lifecycle for the tick: float animation, pickup,
// steal, follow, and the door check that gates the win path in key rooms.
func (r *Room) updateKey(now time.Time) {
	k := r.Key
	if k == nil {
		return
	}
	k.UpdateFloat(now)

	if k.CarriedBy == "" {
		for _, p := range r.sortedPlayers() {
			if p.IsVisible && k.CheckPickup(p) {
				k.PickUp(p)
				break
			}
		}
		return
	}

	carrier, ok := r.Players[k.CarriedBy]
	if !ok || !carrier.IsVisible {
		// Carrier left or finished the level: the key drops where it is.
		k.CarriedBy = ""
		k.IsCollected = false
		return
	}

	for _, p := range r.sortedPlayers() {
		if p.ID == carrier.ID || !p.IsVisible {
			continue
		}
		if k.CheckSteal(p, carrier) {
			k.StealBy(p)
			carrier = p
			break
		}
	}

	k.Follow(carrier, tickInterval)

	if !r.DoorOpen && r.overlapsWinnerTiles(carrier) {
		r.DoorOpen = true
		k.IsOpeningDoor = true
	}
}
