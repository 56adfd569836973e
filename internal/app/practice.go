package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/mimicoo/internal/adapters/mq/queue"
	"github.com/okian/mimicoo/internal/domain/game"
	"github.com/okian/mimicoo/internal/domain/model"
	"github.com/okian/mimicoo/internal/domain/practice"
	"github.com/okian/mimicoo/internal/domain/types"
	"github.com/okian/mimicoo/pkg/logger"
	"github.com/okian/mimicoo/pkg/metrics"
)

// Ticket acknowledges an analysis submit.
type Ticket struct {
	Status    string `json:"status"`
	JobID     string `json:"job_id,omitempty"`
	SessionID string `json:"session_id"`
	Duplicate bool   `json:"duplicate"`
}

// Practice stage messages pushed while an analysis runs.
var practiceStages = []string{
	"Preparing your recording...",
	"Listening for clarity and pronunciation...",
	"Scoring fluency and pacing...",
}

func (s *Service) session(ctx context.Context, id string) (*practice.Session, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	return s.store.Session(ctx, id)
}

// CreateSession starts a practice session for an age bracket with a fresh
// challenge sentence.
func (s *Service) CreateSession(ctx context.Context, ageCategory string) (practice.View, error) {
	if err := s.running(); err != nil {
		return practice.View{}, err
	}
	age := practice.NormalizeAge(ageCategory)
	sentence := practice.ChallengeFor(ctx, s.generator, s.rng, age)

	sess := practice.NewSession(uuid.NewString(),
		practice.WithClock(s.now),
		practice.WithAgeCategory(age),
		practice.WithSentence(sentence),
	)
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return practice.View{}, fmt.Errorf("create session: %w", err)
	}
	s.logger.Info(ctx, "session created", logger.String("session_id", sess.ID()), logger.String("age", age))
	return sess.Snapshot(), nil
}

// Session returns a snapshot of a session.
func (s *Service) Session(ctx context.Context, id string) (practice.View, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return practice.View{}, err
	}
	return sess.Snapshot(), nil
}

// DeleteSession tears a session down, releasing any held capture.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	if err := s.running(); err != nil {
		return err
	}
	sess, err := s.store.DeleteSession(ctx, id)
	if err != nil {
		return err
	}
	if err := sess.Close(); err != nil {
		return fmt.Errorf("release capture: %w", err)
	}
	s.logger.Info(ctx, "session deleted", logger.String("session_id", id))
	return nil
}

// NewChallenge replaces the session's sentence. An empty sentence is
// generated for the session's age bracket.
func (s *Service) NewChallenge(ctx context.Context, id, sentence string) (practice.View, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return practice.View{}, err
	}
	sentence = practice.CleanSentence(sentence)
	if sentence == "" {
		sentence = practice.ChallengeFor(ctx, s.generator, s.rng, sess.AgeCategory())
	}
	if err := sess.NewChallenge(sentence); err != nil {
		return practice.View{}, err
	}
	return sess.Snapshot(), nil
}

// StartRecording opens the session's capture. permissionGranted is the
// browser's answer to the microphone prompt.
func (s *Service) StartRecording(ctx context.Context, id string, permissionGranted bool) (practice.View, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return practice.View{}, err
	}
	p := clientCaptureProvider{granted: permissionGranted, sessionID: id, log: s.logger}
	if err := sess.StartRecording(ctx, p); err != nil {
		if errors.Is(err, practice.ErrPermissionDenied) {
			metrics.RecordPermissionDenied()
			s.logger.Warn(ctx, "microphone permission denied", logger.String("session_id", id))
		}
		return practice.View{}, err
	}
	metrics.RecordRecordingStarted()
	return sess.Snapshot(), nil
}

// StopRecording stores the recorded audio.
func (s *Service) StopRecording(ctx context.Context, id string, audio []byte, mimeType string) (practice.View, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return practice.View{}, err
	}
	if _, err := sess.StopRecording(audio, mimeType); err != nil {
		return practice.View{}, err
	}
	return sess.Snapshot(), nil
}

// ResetSession returns the session to idle.
func (s *Service) ResetSession(ctx context.Context, id string) (practice.View, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return practice.View{}, err
	}
	if err := sess.Reset(); err != nil {
		return practice.View{}, err
	}
	return sess.Snapshot(), nil
}

// SubmitAnalysis queues the recorded take for scoring. A repeated
// idempotencyKey for the same session is acknowledged without queuing.
func (s *Service) SubmitAnalysis(ctx context.Context, id, idempotencyKey string) (Ticket, error) {
	sess, err := s.session(ctx, id)
	if err != nil {
		return Ticket{}, err
	}

	dedupeKey := ""
	if idempotencyKey != "" {
		dedupeKey = id + ":" + idempotencyKey
		if s.deduper.SeenAndRecord(ctx, dedupeKey) {
			metrics.RecordAnalysisDuplicate()
			return Ticket{Status: "duplicate", SessionID: id, Duplicate: true}, nil
		}
	}
	forget := func() {
		if dedupeKey != "" {
			s.deduper.Unrecord(ctx, dedupeKey)
		}
	}

	rec, sentence, err := sess.BeginAnalysis()
	if err != nil {
		forget()
		return Ticket{}, err
	}

	job := model.AnalysisJob{
		JobID:          uuid.NewString(),
		SessionID:      id,
		IdempotencyKey: idempotencyKey,
		EnqueuedAt:     s.now(),
		Request: model.AnalysisRequest{
			SessionID:   id,
			Sentence:    sentence,
			AgeCategory: sess.AgeCategory(),
			Audio:       rec.Audio,
			MimeType:    rec.MimeType,
			Duration:    rec.Duration,
		},
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		forget()
		if aerr := sess.AbortAnalysis(); aerr != nil {
			s.logger.Error(ctx, "abort analysis", logger.String("session_id", id), logger.Error(aerr))
		}
		if errors.Is(err, queue.ErrFull) {
			return Ticket{}, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return Ticket{}, fmt.Errorf("enqueue analysis: %w", err)
	}

	s.logger.Debug(ctx, "analysis queued", logger.String("session_id", id), logger.String("job_id", job.JobID))
	return Ticket{Status: "accepted", JobID: job.JobID, SessionID: id}, nil
}

// Process runs one queued analysis: stage frames, scoring, the game update
// and the notification and completion frames.
func (s *Service) Process(ctx context.Context, job model.AnalysisJob) error {
	sess, err := s.store.Session(ctx, job.SessionID)
	if err != nil {
		return err
	}

	start := s.now()
	for _, msg := range practiceStages {
		s.stage(ctx, job.SessionID, msg)
	}

	result, source := s.analyzer.Analyze(ctx, job.Request)
	latency := float64(s.now().Sub(start).Milliseconds())
	if err := metrics.RecordAnalysis(source, latency); err != nil {
		s.logger.Warn(ctx, "record analysis", logger.Error(err))
	}

	out, err := sess.CompleteAnalysis(result, source)
	if err != nil {
		s.broadcaster.Broadcast(types.Frame{Type: types.FrameError, SessionID: job.SessionID, Message: err.Error()})
		return fmt.Errorf("complete analysis: %w", err)
	}
	s.recordOutcome(out)

	for _, n := range out.Notifications {
		s.broadcaster.Broadcast(types.Frame{
			Type:      types.FrameNotification,
			SessionID: job.SessionID,
			Message:   n.Title,
			Data:      n,
		})
	}
	s.broadcaster.Broadcast(types.Complete(job.SessionID, sess.Snapshot()))

	s.logger.Info(ctx, "analysis complete",
		logger.String("session_id", job.SessionID),
		logger.String("source", source),
		logger.Int("score", out.Score),
		logger.Int("points", out.Points),
		logger.Duration("latency", time.Duration(latency)*time.Millisecond),
	)
	return nil
}

func (s *Service) recordOutcome(out game.Outcome) {
	metrics.RecordPoints(out.Points)
	metrics.RecordLevelUps(out.LevelsGained)
	for _, a := range out.NewlyUnlocked {
		metrics.RecordAchievementUnlocked(a.ID)
	}
}
