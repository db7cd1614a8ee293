package server

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/DiegoVanegas03/computo-nube-servidor/model"
)

// Registry owns every room for the process lifetime. Rooms are created once
// at startup from the maps directory; lookups after that are read-only, so
// no locking is needed around the map itself.
type Registry struct {
	rooms map[string]*Room
	ids   []string
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

func (reg *Registry) Add(room *Room) {
	reg.rooms[room.ID] = room
	reg.ids = append(reg.ids, room.ID)
	sort.Strings(reg.ids)
}

// Get returns nil for unknown ids.
func (reg *Registry) Get(id string) *Room {
	return reg.rooms[id]
}

// All returns the rooms in ascending id order.
func (reg *Registry) All() []*Room {
	out := make([]*Room, 0, len(reg.ids))
	for _, id := range reg.ids {
		out = append(out, reg.rooms[id])
	}
	return out
}

// List builds the lobby listing sent with authSuccess and /rooms.
func (reg *Registry) List() []model.RoomInfo {
	out := make([]model.RoomInfo, 0, len(reg.ids))
	for _, id := range reg.ids {
		room := reg.rooms[id]
		out = append(out, model.RoomInfo{
			ID:      room.ID,
			Name:    room.Name,
			Players: room.PlayerCount(),
		})
	}
	return out
}

// LoadRooms reads every *.json room config in dir. A broken config is fatal
// for that room only; the rest keep loading.
func LoadRooms(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	reg := NewRegistry()
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		roomID := strings.TrimSuffix(name, ".json")

		file, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			log.Errorf("room %s: open config: %v", roomID, err)
			continue
		}
		cfg, err := ParseRoomConfig(file)
		file.Close()
		if err != nil {
			log.Errorf("room %s: %v", roomID, err)
			continue
		}
		room, err := NewRoom(roomID, cfg)
		if err != nil {
			log.Errorf("skipping invalid room config: %v", err)
			continue
		}
		reg.Add(room)
		log.Infof("room %s (%q) loaded, %d to start", room.ID, room.Name, room.NeedUsers)
	}
	return reg, nil
}
