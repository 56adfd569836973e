package service

import (
	"time"

	"github.com/okian/mimicoo/internal/domain/practice"
	"github.com/okian/mimicoo/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of analysis workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the analysis queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many idempotency keys are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxSessions bounds the number of live sessions.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStageDelay sets the pause between simulated processing stages.
func WithStageDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.stageDelay = d
		}
	}
}

// WithSampleCounts sets the synthesized series lengths.
func WithSampleCounts(pitch, energy int) Option {
	return func(s *Service) {
		s.pitchSamples = pitch
		s.energySamples = energy
	}
}

// WithReference sets the reference voice the uploads are compared against.
func WithReference(pitchHz, energy float64) Option {
	return func(s *Service) {
		s.referencePitch = pitchHz
		s.referenceEnergy = energy
	}
}

// WithSeed seeds the simulation random source. Zero seeds from the clock.
func WithSeed(seed int64) Option {
	return func(s *Service) { s.seed = seed }
}

// WithLocalLatency sets the simulated latency range of the local scorer.
func WithLocalLatency(minLatency, maxLatency time.Duration) Option {
	return func(s *Service) {
		s.localMinLatency = minLatency
		s.localMaxLatency = maxLatency
	}
}

// WithRemoteScorer scores recordings with an external service.
func WithRemoteScorer(sc practice.Scorer) Option {
	return func(s *Service) { s.remote = sc }
}

// WithSentenceGenerator generates challenge sentences externally.
func WithSentenceGenerator(g practice.SentenceGenerator) Option {
	return func(s *Service) { s.generator = g }
}

// WithRiskAssessor assesses uploads externally instead of simulating.
func WithRiskAssessor(a RiskAssessor) Option {
	return func(s *Service) { s.assessor = a }
}

// WithBroadcaster sets where progress frames are pushed.
func WithBroadcaster(b Broadcaster) Option {
	return func(s *Service) {
		if b != nil {
			s.broadcaster = b
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
