package practice

import "errors"

// Sentinel error kinds for practice sessions.
var (
	// ErrPermissionDenied is returned when the capture device refuses access.
	ErrPermissionDenied = errors.New("microphone permission denied")
	// ErrInvalidTransition is returned when an action is not allowed in the
	// current session state.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrEmptyRecording is returned when a recording is stopped without audio.
	ErrEmptyRecording = errors.New("empty recording")
	// ErrSessionClosed is returned when the session was torn down.
	ErrSessionClosed = errors.New("session closed")
)
