// Package diag provides a rate-limited sink for internal emulation
// anomalies: unmapped bus access, invalid CPU mode writes, invalid PC
// branches. It logs the first few occurrences of each class and then just
// keeps counting, so a misbehaving ROM or a decode bug doesn't flood stderr.
package diag

import (
	"fmt"
	"log/slog"
	"sync"
)

// Class identifies a category of anomaly.
type Class string

const (
	ClassUnmappedRead  Class = "unmapped_read"
	ClassUnmappedWrite Class = "unmapped_write"
	ClassInvalidMode   Class = "invalid_mode"
	ClassInvalidPC     Class = "invalid_pc"
	ClassBadSWI        Class = "bad_swi"
)

// DefaultLogLimit is the number of occurrences per class that get logged
// before the sink falls back to silent counting.
const DefaultLogLimit = 8

// Sink counts and rate-limit-logs anomalies encountered while running a ROM.
type Sink struct {
	mu       sync.Mutex
	logger   *slog.Logger
	logLimit int
	counts   map[Class]uint64
}

// Option configures a Sink.
type Option func(*Sink)

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sink) { s.logger = l }
}

// WithLogLimit overrides DefaultLogLimit.
func WithLogLimit(n int) Option {
	return func(s *Sink) { s.logLimit = n }
}

// New creates a Sink ready to receive anomalies.
func New(opts ...Option) *Sink {
	s := &Sink{
		logger:   slog.Default(),
		logLimit: DefaultLogLimit,
		counts:   make(map[Class]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Report records one occurrence of class, logging it if the class hasn't
// exceeded its log limit yet. args are passed through to slog as key/value
// pairs, matching the rest of the codebase's structured logging style.
func (s *Sink) Report(class Class, msg string, args ...any) {
	s.mu.Lock()
	n := s.counts[class] + 1
	s.counts[class] = n
	limit := s.logLimit
	s.mu.Unlock()

	if int(n) <= limit {
		s.logger.Warn(msg, append([]any{"class", string(class), "occurrence", n}, args...)...)
	} else if int(n) == limit+1 {
		s.logger.Warn(fmt.Sprintf("%s: further occurrences suppressed", msg), "class", string(class))
	}
}

// Stats is a point-in-time snapshot of anomaly counts, keyed by class.
type Stats map[Class]uint64

// Stats returns a copy of the current counters.
func (s *Sink) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(Stats, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}

// Reset clears all counters, used when reloading a ROM.
func (s *Sink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts = make(map[Class]uint64)
}
