package model

// Server to client message types.
const (
	TypeAuthSuccess  = "authSuccess"
	TypeAuthFailed   = "authFailed"
	TypeRoomJoined   = "roomJoined"
	TypePlayerJoined = "playerJoined"
	TypePlayerLeft   = "playerLeft"
	TypeStartGame    = "startGame"
	TypeRestartGame  = "restartGame"
	TypeGameOver     = "gameOver"
	TypeGameWin      = "gameWin"
	TypeGameUpdate   = "gameUpdate"
	TypeChat         = "chat"
	TypeError        = "error"
)

// ServerMessage is the outbound envelope. Timestamp is unix milliseconds.
type ServerMessage struct {
	Type      string `json:"type"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

type AuthSuccess struct {
	UserID   string     `json:"userId"`
	Username string     `json:"username"`
	Rooms    []RoomInfo `json:"rooms"`
}

type AuthFailed struct {
	Reason string `json:"reason"`
}

type RoomJoined struct {
	RoomID   string        `json:"roomId"`
	RoomName string        `json:"roomName"`
	Players  []PlayerState `json:"players"`
	World    [][]int       `json:"world"`
}

type PlayerJoined struct {
	UserID   string      `json:"userId"`
	Username string      `json:"username"`
	Player   PlayerState `json:"player"`
}

type PlayerLeft struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type StartGame struct {
	World [][]int `json:"world"`
}

type GameOver struct {
	UserName string `json:"userName"`
}

type GameUpdate struct {
	Players   []PlayerState   `json:"players"`
	Platforms []PlatformState `json:"platforms"`
	Key       *KeyState       `json:"key,omitempty"`
}

type Chat struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

type Error struct {
	Message string `json:"message"`
}
