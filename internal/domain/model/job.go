package model

import "time"

// AnalysisJob is one queued practice analysis.
type AnalysisJob struct {
	JobID          string          `json:"job_id"`
	SessionID      string          `json:"session_id"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	EnqueuedAt     time.Time       `json:"enqueued_at"`
	Request        AnalysisRequest `json:"-"`
}
