package main

import (
	"encoding/json"
	"net/http"

	"github.com/matryer/way"
)

const URI_WS = "/play"
const URI_ROOMS = "/rooms"

func (s *Server) routes() {
	s.router = way.NewRouter()
	s.router.HandleFunc("GET", URI_WS, s.GameServer.HandleWS())
	s.router.HandleFunc("GET", URI_ROOMS, s.handleRoomsList)
}

func (s *Server) handleRoomsList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.GameServer.Registry.List())
}
