package server

import (
	"math"
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/DiegoVanegas03/computo-nube-servidor/model"
)

const (
	keyWidth  float32 = 16
	keyHeight float32 = 16

	// Carried keys hover this far above the carrier's head.
	keyCarryOffset float32 = 25
	// Horizontal follow smoothing per tick, producing the lagging trail.
	keyFollowFactor float32 = 0.15
	// Expansion applied to the carrier's box when checking a steal.
	keyStealMargin float32 = 20

	keyFloatAmplitude  float32 = 3
	keyFloatSpeedPerMs         = 0.005

	keyTransferDuration = 200 * time.Millisecond
	keyFloatInterval    = 50 * time.Millisecond
)

// Key is the carry-able objective. Exactly one logical holder state at a
// time: resting on the map, carried, or mid-transfer between carriers.
type Key struct {
	X, Y        float32
	IsCollected bool
	// CarriedBy is the carrier's player id, empty while the key rests on the
	// map.
	CarriedBy string

	FloatOffset     float32
	lastFloatUpdate time.Time

	// Steal transfer animation. Both tweens run together; the key resumes
	// normal follow behavior once they finish.
	transferX *gween.Tween
	transferY *gween.Tween

	IsOpeningDoor bool
}

func NewKey(x, y float32) *Key {
	return &Key{X: x, Y: y}
}

func (k *Key) transferring() bool { return k.transferX != nil }

// CheckPickup reports whether an uncarried key overlaps the player's body.
func (k *Key) CheckPickup(p *Player) bool {
	if k.IsCollected {
		return false
	}
	return p.X < k.X+keyWidth &&
		p.X+p.Width > k.X &&
		p.Y < k.Y+keyHeight &&
		p.Y+p.Height > k.Y
}

// CheckSteal reports whether stealer touches the carrier within the steal
// margin. The expanded boxes make the steal forgiving on purpose.
func (k *Key) CheckSteal(stealer, carrier *Player) bool {
	if k.CarriedBy == "" || carrier.ID != k.CarriedBy {
		return false
	}
	return stealer.X < carrier.X+carrier.Width+keyStealMargin &&
		stealer.X+stealer.Width > carrier.X-keyStealMargin &&
		stealer.Y < carrier.Y+carrier.Height+keyStealMargin &&
		stealer.Y+stealer.Height > carrier.Y-keyStealMargin
}

// PickUp attaches the key to a player fresh off the map.
func (k *Key) PickUp(p *Player) {
	k.IsCollected = true
	k.CarriedBy = p.ID
}

// StealBy hands the key to a new carrier and starts the eased transfer
// animation toward the carry position captured right now.
func (k *Key) StealBy(p *Player) {
	k.CarriedBy = p.ID
	targetX := p.X + (p.Width-keyWidth)/2
	targetY := p.Y - keyHeight - keyCarryOffset + k.FloatOffset
	ms := float32(keyTransferDuration.Seconds() * 1000)
	k.transferX = gween.New(k.X, targetX, ms, ease.InOutCubic)
	k.transferY = gween.New(k.Y, targetY, ms, ease.InOutCubic)
}

// Follow advances the key toward its carrier for one tick.
func (k *Key) Follow(carrier *Player, dt time.Duration) {
	if carrier == nil || k.CarriedBy == "" {
		return
	}
	if k.transferring() {
		// Fractional milliseconds matter at 60 Hz; truncation would stretch
		// the transfer past its duration.
		ms := float32(dt.Seconds() * 1000)
		x, doneX := k.transferX.Update(ms)
		y, doneY := k.transferY.Update(ms)
		k.X, k.Y = x, y
		if doneX && doneY {
			k.transferX, k.transferY = nil, nil
		}
		return
	}
	targetX := carrier.X + (carrier.Width-keyWidth)/2
	k.X += (targetX - k.X) * keyFollowFactor
	k.Y = carrier.Y - keyHeight - keyCarryOffset + k.FloatOffset
}

// UpdateFloat refreshes the sinusoidal hover offset on a real-time interval.
func (k *Key) UpdateFloat(now time.Time) {
	if now.Sub(k.lastFloatUpdate) <= keyFloatInterval {
		return
	}
	k.FloatOffset = keyFloatAmplitude * float32(math.Sin(float64(now.UnixMilli())*keyFloatSpeedPerMs))
	k.lastFloatUpdate = now
}

func (k *Key) State() *model.KeyState {
	return &model.KeyState{
		X:                 k.X,
		Y:                 k.Y,
		IsCollected:       k.IsCollected,
		CarriedByPlayerID: k.CarriedBy,
		FloatOffset:       k.FloatOffset,
		IsOpeningDoor:     k.IsOpeningDoor,
	}
}
