// Package practicesim drives practice sessions against a running mimicoo
// server and summarizes the results.
package practicesim

import (
	"time"

	"github.com/okian/mimicoo/pkg/logger"
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL     string        // HTTP base URL of the service
	WSURL       string        // WebSocket base URL; derived from BaseURL when empty
	Sessions    int           // Number of concurrent practice sessions
	Rounds      int           // Takes recorded per session
	Workers     int           // Sessions driven at once
	AgeCategory string        // Age bracket for new sessions
	AudioBytes  int           // Size of each synthetic take
	Timeout     time.Duration // Per request and per result wait
	DenyFirst   bool          // Probe the permission-denied path once per session
	Upload      bool          // Also run a baseline upload and fetch its report
	Logger      logger.Logger
}

// Stats holds the outcome of a run.
type Stats struct {
	Sessions         int
	Analyses         int
	Duplicates       int
	PermissionDenied int
	Failures         int
	ScoreSum         int
	BestScore        int
	MaxLevel         int
	Unlocked         int
	Notifications    int
	Sources          map[string]int

	ReportID      string
	OverallStatus string

	StartTime time.Time
	Duration  time.Duration
}

// AverageScore returns the mean score over all analyses.
func (s Stats) AverageScore() float64 {
	if s.Analyses == 0 {
		return 0
	}
	return float64(s.ScoreSum) / float64(s.Analyses)
}
