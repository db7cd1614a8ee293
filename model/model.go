package model

// Snapshot structs shared by every server broadcast. Field names are the wire
// contract the client draws from, so they keep the protocol spelling rather
// than Go conventions.

type PlayerState struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	Direction string  `json:"direction"`
	X         float32 `json:"x"`
	Y         float32 `json:"y"`
	IsVisible bool    `json:"isVisible"`
}

type PlatformState struct {
	ID                string  `json:"id"`
	X                 float32 `json:"x"`
	Y                 float32 `json:"y"`
	Width             float32 `json:"width"`
	Height            float32 `json:"height"`
	Type              int     `json:"type"`
	Direction         int     `json:"direction"`
	IsMoving          bool    `json:"isMoving"`
	PlayersOnPlatform int     `json:"playersOnPlatform"`
	RequiredPlayers   int     `json:"requiredPlayers"`
	PlayersNeeded     int     `json:"playersNeeded"`
}

type KeyState struct {
	X                 float32 `json:"x"`
	Y                 float32 `json:"y"`
	IsCollected       bool    `json:"isCollected"`
	CarriedByPlayerID string  `json:"carriedByPlayerId"`
	FloatOffset       float32 `json:"floatOffset"`
	IsOpeningDoor     bool    `json:"isOpeningDoor"`
}

type RoomInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Players int    `json:"players"`
}
