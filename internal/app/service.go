// Package service implements the dependencies required by the HTTP API:
// practice sessions, asynchronous analysis and the baseline screening
// upload.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/okian/mimicoo/internal/adapters/mq/queue"
	"github.com/okian/mimicoo/internal/adapters/mq/worker"
	"github.com/okian/mimicoo/internal/adapters/repository"
	"github.com/okian/mimicoo/internal/domain/dedupe"
	"github.com/okian/mimicoo/internal/domain/model"
	"github.com/okian/mimicoo/internal/domain/practice"
	"github.com/okian/mimicoo/internal/domain/scoring"
	"github.com/okian/mimicoo/internal/domain/types"
	"github.com/okian/mimicoo/pkg/logger"
	"github.com/okian/mimicoo/pkg/metrics"
)

// Broadcaster pushes progress frames to connected clients.
type Broadcaster interface {
	Broadcast(f types.Frame)
}

// RiskAssessor produces a screening assessment from feature summaries.
type RiskAssessor interface {
	AssessRisk(ctx context.Context, uploaded, reference model.Summary) (model.AnalysisReport, error)
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(types.Frame) {}

// Service implements the API dependencies.
type Service struct {
	mu sync.RWMutex

	store    *repository.MemoryStore
	deduper  dedupe.Deduper
	queue    *queue.InMemoryQueue
	pool     *worker.Pool
	analyzer *practice.Analyzer
	rng      *lockedRand

	remote      practice.Scorer
	generator   practice.SentenceGenerator
	assessor    RiskAssessor
	broadcaster Broadcaster

	workerCount     int
	queueSize       int
	dedupeSize      int
	maxSessions     int
	stageDelay      time.Duration
	pitchSamples    int
	energySamples   int
	referencePitch  float64
	referenceEnergy float64
	seed            int64
	localMinLatency time.Duration
	localMaxLatency time.Duration
	now             func() time.Time

	started bool
	logger  logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     runtime.NumCPU(),
		queueSize:       1024,
		dedupeSize:      10000,
		maxSessions:     1000,
		stageDelay:      800 * time.Millisecond,
		pitchSamples:    200,
		energySamples:   100,
		referencePitch:  350,
		referenceEnergy: 0.05,
		localMinLatency: 80 * time.Millisecond,
		localMaxLatency: 150 * time.Millisecond,
		broadcaster:     nopBroadcaster{},
		now:             time.Now,
		logger:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting mimicoo service...")

	seed := s.seed
	if seed == 0 {
		seed = s.now().UnixNano()
	}
	s.rng = newLockedRand(seed)
	s.store = repository.NewMemoryStore(repository.WithMaxSessions(s.maxSessions))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))

	local := scoring.NewLocalScorer(
		scoring.WithSeed(seed),
		scoring.WithLatencyRange(s.localMinLatency, s.localMaxLatency),
	)
	s.analyzer = practice.NewAnalyzer(s.remote, local)

	s.pool = worker.NewPool(s.workerCount, s.queue, worker.ProcessorFunc(s.Process),
		worker.WithPoolLogger(s.logger.Named("worker")))
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "mimicoo service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.Bool("remote_scoring", s.analyzer.Remote()),
		logger.Bool("remote_risk", s.assessor != nil),
	)
	return nil
}

// Stop drains the analysis queue and releases every held capture.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping mimicoo service...")

	err := s.pool.Shutdown(ctx)
	for _, sess := range s.store.Sessions(ctx) {
		if cerr := sess.Close(); cerr != nil {
			s.logger.Warn(ctx, "release capture on shutdown", logger.String("session_id", sess.ID()), logger.Error(cerr))
		}
	}

	s.started = false
	s.logger.Info(ctx, "mimicoo service stopped")
	return err
}

func (s *Service) running() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"maxSessions": s.maxSessions,
	}
	if s.started {
		ctx := context.Background()
		sessions := s.store.SessionCount(ctx)
		queueLen := s.queue.Len()

		stats["queueLength"] = queueLen
		stats["activeSessions"] = sessions
		stats["reports"] = s.store.ReportCount(ctx)
		stats["idempotencyKeys"] = s.deduper.Size()
		stats["remoteScoring"] = s.analyzer.Remote()
		stats["remoteRisk"] = s.assessor != nil

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateActiveSessions(sessions)
	}
	return stats
}

func (s *Service) stage(ctx context.Context, sessionID, message string) {
	s.broadcaster.Broadcast(types.Status(sessionID, message))
	if s.stageDelay <= 0 {
		return
	}
	t := time.NewTimer(s.stageDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
