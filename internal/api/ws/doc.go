// Package ws streams foreground visibility to WebSocket clients.
//
// Each connection subscribes to the shell's visibility broadcast and gets its
// own bounded outbound queue. A slow client loses frames instead of stalling
// the shell executor.
//
// Message Types (Server → Client):
//   - welcome: connection id and the current layout status
//   - visibility: the foreground opened or closed
//   - snapshot: layout status, in answer to a snapshot request
//   - pong: answer to ping
//   - error: malformed or unknown request
//
// Message Types (Client → Server):
//   - ping: keep-alive
//   - snapshot: ask for the current layout status
//
// Example Usage:
//
//	handler := ws.NewHandler(shell, ws.DefaultConfig(), logger, metrics)
//	router.GET("/ws/visibility", handler.HandleConnection)
package ws
