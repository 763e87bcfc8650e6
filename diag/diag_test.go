package diag

import (
	"bytes"
	"log/slog"
	"testing"
)

func newTestSink(buf *bytes.Buffer, limit int) *Sink {
	logger := slog.New(slog.NewTextHandler(buf, nil))
	return New(WithLogger(logger), WithLogLimit(limit))
}

func TestReportCountsEveryOccurrence(t *testing.T) {
	var buf bytes.Buffer
	s := newTestSink(&buf, 8)

	for i := 0; i < 5; i++ {
		s.Report(ClassUnmappedRead, "unmapped read", "addr", 0x0A000000+i)
	}

	stats := s.Stats()
	if stats[ClassUnmappedRead] != 5 {
		t.Fatalf("expected 5 recorded occurrences, got %d", stats[ClassUnmappedRead])
	}
}

func TestReportStopsLoggingPastLimit(t *testing.T) {
	var buf bytes.Buffer
	s := newTestSink(&buf, 2)

	for i := 0; i < 10; i++ {
		s.Report(ClassInvalidPC, "branch to unmapped address", "pc", i)
	}

	lines := bytes.Count(buf.Bytes(), []byte("\n"))
	// 2 logged occurrences + 1 "further occurrences suppressed" line.
	if lines != 3 {
		t.Fatalf("expected 3 log lines (limit=2 + one suppression notice), got %d:\n%s", lines, buf.String())
	}

	if s.Stats()[ClassInvalidPC] != 10 {
		t.Fatalf("counting should continue past the log limit: got %d", s.Stats()[ClassInvalidPC])
	}
}

func TestClassesAreCountedIndependently(t *testing.T) {
	var buf bytes.Buffer
	s := newTestSink(&buf, 8)

	s.Report(ClassUnmappedRead, "a")
	s.Report(ClassUnmappedWrite, "b")
	s.Report(ClassUnmappedWrite, "b")

	stats := s.Stats()
	if stats[ClassUnmappedRead] != 1 || stats[ClassUnmappedWrite] != 2 {
		t.Fatalf("classes should not share counters: %+v", stats)
	}
}

func TestResetClearsCounters(t *testing.T) {
	var buf bytes.Buffer
	s := newTestSink(&buf, 8)

	s.Report(ClassBadSWI, "bad swi")
	s.Reset()

	if len(s.Stats()) != 0 {
		t.Fatalf("Reset should clear all counters, got %+v", s.Stats())
	}
}
