package model

import "encoding/json"

// Client to server message types. TypeChat is also inbound; the constant is
// shared with the outbound set in server2client.go.
const (
	TypeAuth      = "auth"
	TypeJoinRoom  = "joinRoom"
	TypeLeaveRoom = "leaveRoom"
	TypeMove      = "move"
	TypeJump      = "jump"
)

// ClientMessage is the inbound envelope. Data is decoded per Type.
type ClientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type Auth struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type JoinRoom struct {
	RoomID string `json:"roomId"`
}

type Move struct {
	Direction string `json:"direction"`
}

type ChatSend struct {
	Message string `json:"message"`
}
