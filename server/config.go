package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// RoomConfig is the on-disk room description. The field spelling is the
// external file format, loaded from maps/<id>.json.
type RoomConfig struct {
	RoomName     string `json:"room-name"`
	UsersToStart int    `json:"users-to-start"`
	WaitingRoom  Grid   `json:"waiting-room"`
	World        Grid   `json:"world"`
}

var (
	errEmptyGrid        = errors.New("grid must be non-empty and rectangular")
	errNoPlayersToStart = errors.New("users-to-start must be at least 1")
)

func (c *RoomConfig) Validate() error {
	if c.UsersToStart < 1 {
		return errNoPlayersToStart
	}
	if !c.WaitingRoom.rectangular() {
		return fmt.Errorf("waiting-room: %w", errEmptyGrid)
	}
	if !c.World.rectangular() {
		return fmt.Errorf("world: %w", errEmptyGrid)
	}
	return nil
}

// ParseRoomConfig decodes a single room config document.
func ParseRoomConfig(r io.Reader) (*RoomConfig, error) {
	var cfg RoomConfig
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode room config: %w", err)
	}
	return &cfg, nil
}
