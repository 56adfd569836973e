// Package practice implements the speech-practice session state machine:
//
//	Idle -> Recording -> Recorded -> Analyzing -> Scored -> Idle
//
// A Session owns its game.State and applies each score under its own lock,
// so concurrent requests against one session never interleave partial
// updates.
package practice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/mimicoo/internal/domain/game"
	"github.com/okian/mimicoo/internal/domain/model"
)

// Status is a session state.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRecording Status = "recording"
	StatusRecorded  Status = "recorded"
	StatusAnalyzing Status = "analyzing"
	StatusScored    Status = "scored"
)

// Capture is an acquired audio input. Release must be safe to call more
// than once.
type Capture interface {
	Release() error
}

// CaptureProvider grants access to the audio input.
type CaptureProvider interface {
	// Acquire returns ErrPermissionDenied (possibly wrapped) when access is refused.
	Acquire(ctx context.Context) (Capture, error)
}

// Recording is a finished capture waiting for analysis.
type Recording struct {
	Audio    []byte
	MimeType string
	Duration time.Duration
}

// Session is one practice session. Methods are safe for concurrent use.
type Session struct {
	id  string
	now func() time.Time

	mu          sync.Mutex
	status      Status
	ageCategory string
	sentence    string
	capture     Capture
	acquiring   bool
	closed      bool
	startedAt   time.Time
	recording   *Recording
	state       game.State
	lastResult  *model.ScoreResult
	lastSource  string
	lastOutcome *game.Outcome
	createdAt   time.Time
	updatedAt   time.Time
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithAgeCategory sets the age bracket used to pick challenges.
func WithAgeCategory(age string) SessionOption {
	return func(s *Session) { s.ageCategory = NormalizeAge(age) }
}

// WithSentence sets the initial challenge sentence.
func WithSentence(sentence string) SessionOption {
	return func(s *Session) { s.sentence = sentence }
}

// NewSession creates an idle session with a fresh game state.
func NewSession(id string, opts ...SessionOption) *Session {
	s := &Session{
		id:          id,
		now:         time.Now,
		status:      StatusIdle,
		ageCategory: DefaultAge,
		state:       game.NewState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.createdAt = s.now()
	s.updatedAt = s.createdAt
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Status returns the current state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// AgeCategory returns the normalized age bracket.
func (s *Session) AgeCategory() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ageCategory
}

func (s *Session) transitionErr(action string) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, action, s.status)
}

// StartRecording acquires a capture and moves Idle -> Recording. Starting
// again from Recorded discards the previous take. A second start while
// recording or while a capture is being acquired is rejected, never queued.
// The session lock is not held during Acquire; if the session changed state
// or was closed meanwhile, the new capture is released and an error returned.
func (s *Session) StartRecording(ctx context.Context, p CaptureProvider) error {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return ErrSessionClosed
	case s.acquiring:
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot start recording while acquiring a capture", ErrInvalidTransition)
	case s.status != StatusIdle && s.status != StatusRecorded:
		err := s.transitionErr("start recording")
		s.mu.Unlock()
		return err
	}
	s.acquiring = true
	s.mu.Unlock()

	c, err := p.Acquire(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.acquiring = false
	if err != nil {
		return fmt.Errorf("acquire capture: %w", err)
	}
	if s.closed || (s.status != StatusIdle && s.status != StatusRecorded) {
		stale := ErrSessionClosed
		if !s.closed {
			stale = s.transitionErr("start recording")
		}
		if rerr := c.Release(); rerr != nil {
			return errors.Join(stale, fmt.Errorf("release capture: %w", rerr))
		}
		return stale
	}
	s.capture = c
	s.startedAt = s.now()
	s.recording = nil
	s.status = StatusRecording
	s.touch()
	return nil
}

// StopRecording releases the capture and stores audio, Recording -> Recorded.
// The capture is released even when audio is empty; in that case the
// session returns to Idle with ErrEmptyRecording.
func (s *Session) StopRecording(audio []byte, mimeType string) (Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusRecording {
		return Recording{}, s.transitionErr("stop recording")
	}
	releaseErr := s.releaseLocked()
	s.touch()

	if len(audio) == 0 {
		s.status = StatusIdle
		return Recording{}, ErrEmptyRecording
	}
	rec := Recording{Audio: audio, MimeType: mimeType, Duration: s.now().Sub(s.startedAt)}
	s.recording = &rec
	s.status = StatusRecorded
	if releaseErr != nil {
		return rec, fmt.Errorf("release capture: %w", releaseErr)
	}
	return rec, nil
}

// Close releases any held capture. It is the teardown path for every exit
// other than StopRecording.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.status == StatusRecording {
		s.status = StatusIdle
	}
	return s.releaseLocked()
}

func (s *Session) releaseLocked() error {
	if s.capture == nil {
		return nil
	}
	err := s.capture.Release()
	s.capture = nil
	return err
}

// BeginAnalysis moves Recorded -> Analyzing and returns what to analyze.
func (s *Session) BeginAnalysis() (Recording, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusRecorded || s.recording == nil {
		return Recording{}, "", s.transitionErr("analyze")
	}
	s.status = StatusAnalyzing
	s.touch()
	return *s.recording, s.sentence, nil
}

// AbortAnalysis returns Analyzing -> Recorded when the analysis could not be
// dispatched. The recording is kept.
func (s *Session) AbortAnalysis() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusAnalyzing {
		return s.transitionErr("abort analysis")
	}
	s.status = StatusRecorded
	s.touch()
	return nil
}

// CompleteAnalysis applies result to the game state, Analyzing -> Scored.
func (s *Session) CompleteAnalysis(result model.ScoreResult, source string) (game.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusAnalyzing {
		return game.Outcome{}, s.transitionErr("complete analysis")
	}
	result = result.Clamped()
	next, out := game.ApplyScore(s.state, result.Score)
	s.state = next
	s.lastResult = &result
	s.lastSource = source
	s.lastOutcome = &out
	s.status = StatusScored
	s.touch()
	return out, nil
}

// Reset returns to Idle and drops the pending recording and last result.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idleLocked("reset")
}

// NewChallenge sets a new sentence and returns to Idle.
func (s *Session) NewChallenge(sentence string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.idleLocked("change challenge"); err != nil {
		return err
	}
	s.sentence = sentence
	return nil
}

func (s *Session) idleLocked(action string) error {
	if s.status == StatusRecording || s.status == StatusAnalyzing {
		return s.transitionErr(action)
	}
	s.status = StatusIdle
	s.recording = nil
	s.lastResult = nil
	s.lastOutcome = nil
	s.lastSource = ""
	s.touch()
	return nil
}

func (s *Session) touch() { s.updatedAt = s.now() }

// View is a point-in-time copy of a session for serialization.
type View struct {
	ID               string             `json:"id"`
	Status           Status             `json:"status"`
	AgeCategory      string             `json:"age_category"`
	Sentence         string             `json:"sentence"`
	RecordingSeconds float64            `json:"recording_seconds,omitempty"`
	Game             game.State         `json:"game"`
	LastResult       *model.ScoreResult `json:"last_result,omitempty"`
	LastSource       string             `json:"last_source,omitempty"`
	LastOutcome      *game.Outcome      `json:"last_outcome,omitempty"`
	ScoreColor       string             `json:"score_color,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// Snapshot returns a View of the session.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:          s.id,
		Status:      s.status,
		AgeCategory: s.ageCategory,
		Sentence:    s.sentence,
		Game:        s.state.Clone(),
		LastSource:  s.lastSource,
		CreatedAt:   s.createdAt,
		UpdatedAt:   s.updatedAt,
	}
	if s.recording != nil {
		v.RecordingSeconds = s.recording.Duration.Seconds()
	}
	if s.lastResult != nil {
		r := *s.lastResult
		v.LastResult = &r
		v.ScoreColor = model.ScoreColor(r.Score)
	}
	if s.lastOutcome != nil {
		o := *s.lastOutcome
		v.LastOutcome = &o
	}
	return v
}
