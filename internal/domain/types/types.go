// Package types holds the WebSocket frame shared by the server and clients.
package types

// Frame types.
const (
	FrameStatus       = "status"
	FrameComplete     = "complete"
	FrameError        = "error"
	FrameNotification = "notification"
	FramePing         = "ping"
	FramePong         = "pong"
)

// Frame is one JSON message on /ws.
type Frame struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data,omitempty"`
}

// Status builds a status frame.
func Status(sessionID, message string) Frame {
	return Frame{Type: FrameStatus, SessionID: sessionID, Message: message}
}

// Complete builds a completion frame carrying data.
func Complete(sessionID string, data any) Frame {
	return Frame{Type: FrameComplete, SessionID: sessionID, Data: data}
}
