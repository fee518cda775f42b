// internal/handlers/ws_codes.go
package handlers

import "github.com/coder/websocket"

// Application close codes, sent in the 4000-4999 private range.
const (
	// StatusBadSubprotocol indicates the client did not negotiate lobby.v1.
	StatusBadSubprotocol websocket.StatusCode = 4000

	// StatusAuthFailed indicates an auth frame carried an invalid token.
	StatusAuthFailed websocket.StatusCode = 4001
)
