package network

// Conn is the narrow view of a connected client that the game layers hold.
// Keeping it an interface lets tests drive the session logic with fakes.
type Conn interface {
	// Send returns the channel outbound messages are queued on.
	Send() chan<- Message
	// Addr is the remote address, for logging only.
	Addr() string
}

// EventHandler is the seam between the transport and the game logic. The
// hub invokes all three callbacks from a single goroutine, so implementations
// see a strictly serialized event stream and need no locking of their own
// for hub-delivered events.
type EventHandler interface {
	OnConnect(c Conn)
	OnDisconnect(c Conn)
	OnMessage(c Conn, msg Message)
}
