// Package scoring provides the local practice scorer used when no inference
// endpoint is configured.
package scoring

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/mimicoo/internal/domain/model"
)

const (
	defaultMinLatency = 80 * time.Millisecond
	defaultMaxLatency = 150 * time.Millisecond
	defaultRandomSeed = 42

	minSubScore = 60
	maxSubScore = 100
)

// Option configures a LocalScorer.
type Option func(*LocalScorer)

// WithLatencyRange sets the simulated latency range. A zero range disables
// the delay.
func WithLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(s *LocalScorer) {
		if minLatency >= 0 && maxLatency >= minLatency {
			s.minLatency = minLatency
			s.maxLatency = maxLatency
		}
	}
}

// WithSeed seeds the sub-score generator.
func WithSeed(seed int64) Option {
	return func(s *LocalScorer) {
		s.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // simulation only
	}
}

// LocalScorer simulates an analysis: clarity, pronunciation and fluency are
// drawn from [60,100] and the score is their rounded mean.
type LocalScorer struct {
	minLatency time.Duration
	maxLatency time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewLocalScorer creates a LocalScorer.
func NewLocalScorer(opts ...Option) *LocalScorer {
	s := &LocalScorer{
		minLatency: defaultMinLatency,
		maxLatency: defaultMaxLatency,
		rng:        rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // deterministic seed for reproducible testing
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze returns a simulated Success. A cancelled context yields a
// NetworkError so the caller falls back like any other unreachable scorer.
func (s *LocalScorer) Analyze(ctx context.Context, _ model.AnalysisRequest) model.AnalysisOutcome {
	clarity, pronunciation, fluency, latency := s.draw()

	if latency > 0 {
		t := time.NewTimer(latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return model.NetworkError{Err: ctx.Err()}
		case <-t.C:
		}
	}

	score := int(math.Round(float64(clarity+pronunciation+fluency) / 3))
	res := model.ScoreResult{
		Score:         score,
		Clarity:       clarity,
		Pronunciation: pronunciation,
		Fluency:       fluency,
	}
	res.Feedback, res.Strengths, res.Improvements = feedbackFor(score)
	return model.Success{Result: res.Clamped()}
}

func (s *LocalScorer) draw() (int, int, int, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := func() int { return minSubScore + s.rng.Intn(maxSubScore-minSubScore+1) }
	c, p, f := sub(), sub(), sub()

	latency := s.minLatency
	if spread := s.maxLatency - s.minLatency; spread > 0 {
		latency += time.Duration(s.rng.Int63n(int64(spread)))
	}
	return c, p, f, latency
}

type tier struct {
	min          int
	feedback     []string
	strengths    []string
	improvements []string
}

var tiers = []tier{
	{
		min:          90,
		feedback:     []string{"Excellent job! Every word came through clearly.", "Your pace matched the sentence naturally."},
		strengths:    []string{"Clear articulation", "Confident delivery"},
		improvements: []string{"Try a longer sentence next time."},
	},
	{
		min:          80,
		feedback:     []string{"Great work! Most sounds were clear and well formed.", "Keep the same steady pace."},
		strengths:    []string{"Good pronunciation", "Steady rhythm"},
		improvements: []string{"Open your mouth a little more on vowel sounds."},
	},
	{
		min:          70,
		feedback:     []string{"Good effort! The sentence was understandable.", "Slow down slightly on the harder words."},
		strengths:    []string{"Completed the whole sentence"},
		improvements: []string{"Say each word separately before joining them.", "Speak a bit louder."},
	},
	{
		min:          0,
		feedback:     []string{"Nice try! Let's practice this one again together.", "Listen to the sentence once more, then repeat it slowly."},
		strengths:    []string{"Kept practicing"},
		improvements: []string{"Break the sentence into short parts.", "Focus on the first sound of each word."},
	},
}

func feedbackFor(score int) (feedback, strengths, improvements []string) {
	for _, t := range tiers {
		if score >= t.min {
			return clone(t.feedback), clone(t.strengths), clone(t.improvements)
		}
	}
	t := tiers[len(tiers)-1]
	return clone(t.feedback), clone(t.strengths), clone(t.improvements)
}

func clone(s []string) []string { return append([]string(nil), s...) }
