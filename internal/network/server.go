package network

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server upgrades HTTP requests into websocket clients feeding the hub.
type Server struct {
	hub    *Hub
	logger *zap.Logger

	upgrader websocket.Upgrader
}

func NewServer(handler EventHandler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		hub:    NewHub(handler, logger),
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin filtering belongs to whatever fronts this server.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Run starts the hub loop. Call once, before serving HTTP.
func (s *Server) Run() { go s.hub.Run() }

// HandleWS is the HTTP entry point for client connections; mount it on the
// websocket route.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		conn:   conn,
		hub:    s.hub,
		send:   make(chan Message, 256),
		logger: s.logger,
	}
	s.hub.register <- client

	go client.writeLoop()
	go client.readLoop()
}
