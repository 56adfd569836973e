package service

import (
	"context"
	"sync"

	"github.com/okian/mimicoo/internal/domain/practice"
	"github.com/okian/mimicoo/pkg/logger"
)

// clientCapture is the server-side view of a microphone held by the
// browser. The client reports whether access was granted.
type clientCapture struct {
	once      sync.Once
	sessionID string
	log       logger.Logger
}

func (c *clientCapture) Release() error {
	c.once.Do(func() {
		c.log.Debug(context.Background(), "capture released", logger.String("session_id", c.sessionID))
	})
	return nil
}

type clientCaptureProvider struct {
	granted   bool
	sessionID string
	log       logger.Logger
}

func (p clientCaptureProvider) Acquire(context.Context) (practice.Capture, error) {
	if !p.granted {
		return nil, practice.ErrPermissionDenied
	}
	return &clientCapture{sessionID: p.sessionID, log: p.log}, nil
}
