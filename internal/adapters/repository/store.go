// Package repository holds live practice sessions and rendered screening
// reports in memory.
package repository

import (
	"container/list"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/mimicoo/internal/domain/practice"
	"github.com/okian/mimicoo/internal/domain/report"
	"github.com/okian/mimicoo/pkg/metrics"
)

// SessionStore tracks live practice sessions.
type SessionStore interface {
	// CreateSession stores s. It fails with ErrDuplicate or ErrCapacity.
	CreateSession(ctx context.Context, s *practice.Session) error
	// Session returns ErrNotFound for unknown ids.
	Session(ctx context.Context, id string) (*practice.Session, error)
	// DeleteSession removes and returns the session.
	DeleteSession(ctx context.Context, id string) (*practice.Session, error)
	// Sessions returns every live session ordered by id.
	Sessions(ctx context.Context) []*practice.Session
	SessionCount(ctx context.Context) int
}

// Report is a stored screening report.
type Report struct {
	ID        string
	CreatedAt time.Time
	Input     report.Input
}

// ReportStore retains screening reports for download.
type ReportStore interface {
	PutReport(ctx context.Context, r Report) error
	// Report returns ErrNotFound for unknown or evicted ids.
	Report(ctx context.Context, id string) (Report, error)
	ReportCount(ctx context.Context) int
}

// MemoryStore implements SessionStore and ReportStore.
type MemoryStore struct {
	maxSessions int
	maxReports  int

	mu       sync.RWMutex
	sessions map[string]*practice.Session

	reportMu    sync.RWMutex
	reports     map[string]*list.Element
	reportOrder *list.List
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		maxSessions: 1000,
		maxReports:  100,
		sessions:    make(map[string]*practice.Session),
		reports:     make(map[string]*list.Element),
		reportOrder: list.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) CreateSession(_ context.Context, sess *practice.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sess.ID()]; ok {
		return fmt.Errorf("session %s: %w", sess.ID(), ErrDuplicate)
	}
	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		return fmt.Errorf("%d sessions: %w", len(s.sessions), ErrCapacity)
	}
	s.sessions[sess.ID()] = sess
	metrics.UpdateActiveSessions(len(s.sessions))
	return nil
}

func (s *MemoryStore) Session(_ context.Context, id string) (*practice.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return sess, nil
}

func (s *MemoryStore) DeleteSession(_ context.Context, id string) (*practice.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	delete(s.sessions, id)
	metrics.UpdateActiveSessions(len(s.sessions))
	return sess, nil
}

func (s *MemoryStore) Sessions(_ context.Context) []*practice.Session {
	s.mu.RLock()
	out := make([]*practice.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func (s *MemoryStore) SessionCount(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *MemoryStore) PutReport(_ context.Context, r Report) error {
	s.reportMu.Lock()
	defer s.reportMu.Unlock()

	if el, ok := s.reports[r.ID]; ok {
		el.Value = r
		s.reportOrder.MoveToBack(el)
		return nil
	}
	if s.maxReports > 0 && s.reportOrder.Len() >= s.maxReports {
		oldest := s.reportOrder.Front()
		s.reportOrder.Remove(oldest)
		delete(s.reports, oldest.Value.(Report).ID)
	}
	s.reports[r.ID] = s.reportOrder.PushBack(r)
	return nil
}

func (s *MemoryStore) Report(_ context.Context, id string) (Report, error) {
	s.reportMu.RLock()
	defer s.reportMu.RUnlock()

	el, ok := s.reports[id]
	if !ok {
		return Report{}, fmt.Errorf("report %s: %w", id, ErrNotFound)
	}
	return el.Value.(Report), nil
}

func (s *MemoryStore) ReportCount(_ context.Context) int {
	s.reportMu.RLock()
	defer s.reportMu.RUnlock()
	return s.reportOrder.Len()
}
