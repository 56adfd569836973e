package repository

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithMaxSessions bounds the number of live sessions. n <= 0 means unbounded.
func WithMaxSessions(n int) Option {
	return func(s *MemoryStore) { s.maxSessions = n }
}

// WithMaxReports bounds the number of retained reports; the oldest is
// dropped first. n <= 0 means unbounded.
func WithMaxReports(n int) Option {
	return func(s *MemoryStore) { s.maxReports = n }
}
