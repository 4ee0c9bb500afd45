package sse

import "time"

// SSE event type constants
const (
	EventView         = "view"
	EventLobbyClosed  = "lobby-closed"
	EventPlayerLeft   = "player-left"
	EventErrorMessage = "error-message"
)

const (
	// BufferSize is the buffer size of a feed's update channel
	BufferSize = 10

	// KeepAlive is how often an idle stream sends a comment line
	KeepAlive = 25 * time.Second
)
