package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeDeadline = 10 * time.Second

	// The exam client ticks every few seconds; a socket silent for this
	// long is dead, not idle.
	readDeadline = 5 * time.Minute
)

// WriteTyped sends one typed event payload with a write deadline.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return conn.WriteJSON(v)
}

// WriteError sends a typed ErrorResponse. The connection stays open; the
// client decides whether the error is fatal to its flow.
func WriteError(conn *websocket.Conn, errMsg string) error {
	return WriteTyped(conn, ErrorResponse{Event: EventError, Error: errMsg})
}

// ReadRequest reads and decodes the next client action, refreshing the
// read deadline first.
func ReadRequest(conn *websocket.Conn, req *Request) error {
	conn.SetReadDeadline(time.Now().Add(readDeadline))
	return conn.ReadJSON(req)
}
