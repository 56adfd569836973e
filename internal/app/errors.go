package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrBackpressure    = errors.New("analysis queue full")
	ErrInvalidArgument = errors.New("invalid argument")
)
