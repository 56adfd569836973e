package practicesim

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/mimicoo/internal/domain/game"
	"github.com/okian/mimicoo/internal/domain/practice"
	"github.com/okian/mimicoo/pkg/logger"
)

// Defaults applied by Run to zero fields.
const (
	DefaultSessions   = 4
	DefaultRounds     = 3
	DefaultAudioBytes = 32000 * 3
	DefaultTimeout    = 30 * time.Second
)

// ErrRunFailed reports a run in which some session could not complete.
var ErrRunFailed = errors.New("practice simulation failed")

// Run checks the service, drives cfg.Sessions sessions through cfg.Rounds
// recorded takes each and optionally a baseline upload.
func Run(ctx context.Context, cfg Config) (Stats, error) {
	cfg = withDefaults(cfg)
	log := cfg.Logger
	stats := Stats{StartTime: time.Now(), Sources: map[string]int{}}

	client, err := NewClient(cfg.BaseURL, cfg.WSURL, cfg.Timeout)
	if err != nil {
		return stats, err
	}

	log.Info(ctx, "starting mimicoo practice simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("sessions", cfg.Sessions),
		logger.Int("rounds", cfg.Rounds),
		logger.Int("workers", cfg.Workers),
		logger.String("age", cfg.AgeCategory),
	)

	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	jobs := make(chan int, cfg.Workers*2)
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range jobs {
				res, err := runSession(ctx, client, cfg, int64(n))
				mu.Lock()
				stats.merge(res)
				if err != nil {
					stats.Failures++
					log.Warn(ctx, "session failed", logger.Int("session", n), logger.Error(err))
				}
				mu.Unlock()
			}
		}()
	}

	go func() {
		defer close(jobs)
		for n := 0; n < cfg.Sessions; n++ {
			select {
			case <-ctx.Done():
				return
			case jobs <- n:
			}
		}
	}()
	wg.Wait()

	if cfg.Upload {
		if err := runUpload(ctx, client, cfg, &stats); err != nil {
			stats.Failures++
			log.Warn(ctx, "baseline upload failed", logger.Error(err))
		}
	}

	stats.Duration = time.Since(stats.StartTime)
	log.Info(ctx, "simulation finished",
		logger.Int("analyses", stats.Analyses),
		logger.Int("failures", stats.Failures),
		logger.Duration("duration", stats.Duration),
	)
	if stats.Failures > 0 {
		return stats, fmt.Errorf("%w: %d failures", ErrRunFailed, stats.Failures)
	}
	return stats, ctx.Err()
}

func withDefaults(cfg Config) Config {
	if cfg.Sessions <= 0 {
		cfg.Sessions = DefaultSessions
	}
	if cfg.Rounds <= 0 {
		cfg.Rounds = DefaultRounds
	}
	if cfg.Workers <= 0 || cfg.Workers > cfg.Sessions {
		cfg.Workers = cfg.Sessions
	}
	if cfg.AudioBytes <= 0 {
		cfg.AudioBytes = DefaultAudioBytes
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.AgeCategory == "" {
		cfg.AgeCategory = practice.DefaultAge
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	return cfg
}

// sessionResult is what one session contributes to Stats.
type sessionResult struct {
	analyses, duplicates, denied int
	scoreSum, bestScore          int
	notifications                int
	sources                      map[string]int
	final                        *game.State
}

func (s *Stats) merge(r sessionResult) {
	s.Sessions++
	s.Analyses += r.analyses
	s.Duplicates += r.duplicates
	s.PermissionDenied += r.denied
	s.ScoreSum += r.scoreSum
	s.BestScore = max(s.BestScore, r.bestScore)
	s.Notifications += r.notifications
	for k, v := range r.sources {
		s.Sources[k] += v
	}
	if r.final != nil {
		s.MaxLevel = max(s.MaxLevel, r.final.Level)
		for _, a := range r.final.Achievements {
			if a.Unlocked {
				s.Unlocked++
			}
		}
	}
}

func runSession(ctx context.Context, c *Client, cfg Config, seed int64) (sessionResult, error) {
	res := sessionResult{sources: map[string]int{}}
	rng := rand.New(rand.NewSource(seed + 1)) //nolint:gosec // synthetic audio only

	view, err := c.CreateSession(ctx, cfg.AgeCategory)
	if err != nil {
		return res, err
	}
	defer func() {
		if err := c.Delete(context.WithoutCancel(ctx), view.ID); err != nil {
			cfg.Logger.Debug(ctx, "delete session", logger.String("session_id", view.ID), logger.Error(err))
		}
	}()

	sub, err := c.Subscribe(ctx, view.ID)
	if err != nil {
		return res, err
	}
	defer sub.Close()

	if cfg.DenyFirst {
		code, err := c.StartRecording(ctx, view.ID, false)
		if err != nil {
			return res, err
		}
		if code == http.StatusForbidden {
			res.denied++
		}
	}

	for round := 0; round < cfg.Rounds; round++ {
		if _, err := c.StartRecording(ctx, view.ID, true); err != nil {
			return res, err
		}
		audio := make([]byte, cfg.AudioBytes)
		_, _ = rng.Read(audio)
		if err := c.StopRecording(ctx, view.ID, audio); err != nil {
			return res, err
		}

		key := uuid.NewString()
		if _, err := c.Analyze(ctx, view.ID, key); err != nil {
			return res, err
		}
		again, err := c.Analyze(ctx, view.ID, key)
		if err != nil {
			return res, err
		}
		if again.Duplicate {
			res.duplicates++
		}

		scored, notes, err := sub.AwaitResult()
		if err != nil {
			return res, err
		}
		res.analyses++
		res.notifications += notes
		res.sources[scored.LastSource]++
		if scored.LastResult != nil {
			res.scoreSum += scored.LastResult.Score
			res.bestScore = max(res.bestScore, scored.LastResult.Score)
		}
		st := scored.Game
		res.final = &st

		cfg.Logger.Debug(ctx, "take scored",
			logger.String("session_id", view.ID),
			logger.Int("round", round+1),
			logger.String("source", scored.LastSource),
			logger.Int("level", st.Level),
		)

		if err := c.Reset(ctx, view.ID); err != nil {
			return res, err
		}
	}
	return res, nil
}

func runUpload(ctx context.Context, c *Client, cfg Config, stats *Stats) error {
	audio := make([]byte, cfg.AudioBytes)
	resp, err := c.Upload(ctx, "practice-sim.wav", audio)
	if err != nil {
		return err
	}
	if _, err := c.Report(ctx, resp.ReportID); err != nil {
		return err
	}
	stats.ReportID = resp.ReportID
	if resp.Analysis != nil {
		stats.OverallStatus = resp.Analysis.OverallStatus
	}
	return nil
}
