package main

import (
	"net/http"
	"os"

	"github.com/matryer/way"
	log "github.com/sirupsen/logrus"

	"github.com/DiegoVanegas03/computo-nube-servidor/server"
)

type Server struct {
	router     *way.Router
	GameServer *server.GameServer
}

func main() {
	server.SetupLogging(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE"))

	mapsDir := os.Getenv("MAPS_DIR")
	if mapsDir == "" {
		mapsDir = "maps"
	}
	registry, err := server.LoadRooms(mapsDir)
	if err != nil {
		log.Fatalf("loading rooms from %s: %v", mapsDir, err)
	}

	srv := Server{
		GameServer: server.NewGameServer(registry, server.LengthAuthenticator{}),
	}
	go srv.GameServer.RunLoop()
	srv.routes()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
		log.Printf("Defaulting to port %s", port)
	}
	log.Fatalln(http.ListenAndServe(":"+port, srv.router))
}
