package network

import "go.uber.org/zap"

// clientMessage bundles an inbound message with the client it came from.
type clientMessage struct {
	client *Client
	msg    Message
}

// Hub owns the set of live clients and funnels every connect, disconnect and
// inbound message through one goroutine into the EventHandler. That single
// goroutine is what serializes the whole event stream for the game layers.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	incoming   chan clientMessage

	handler EventHandler
	logger  *zap.Logger
}

func NewHub(handler EventHandler, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		incoming:   make(chan clientMessage),
		handler:    handler,
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.handler.OnConnect(client)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				// Closing send is the writeLoop's stop signal.
				close(client.send)
				h.handler.OnDisconnect(client)
			}

		case cm := <-h.incoming:
			h.handler.OnMessage(cm.client, cm.msg)
		}
	}
}
