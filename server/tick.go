package server

import (
	"time"

	log "github.com/sirupsen/logrus"
)

const gameTickRate = 60

// tickInterval is the fixed simulation step shared by the scheduler and the
// interpolation sampling in platforms and the key.
const tickInterval = time.Second / gameTickRate

// RunLoop drives every room at the fixed tick rate. This goroutine is the
// sole owner of all room state; it must never block on network I/O, which is
// why every outbound path goes through buffered per-session queues.
func (gs *GameServer) RunLoop() {
	log.Infof("simulation loop starting at %d Hz", gameTickRate)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for now := range ticker.C {
		for _, room := range gs.Registry.All() {
			room.Tick(now)
		}
	}
}
