package store

import (
	"errors"
	"io"
	"testing"
	"time"
)

func TestTraceRoundTrip(t *testing.T) {
	dir := t.TempDir()

	w, err := NewTraceWriter(dir, "job-1", false)
	if err != nil {
		t.Fatalf("NewTraceWriter failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		entry := TraceEntry{
			Iteration:     i * 100,
			Temperature:   10 * float64(5-i),
			CurrentEnergy: float64(50 - i),
			BestEnergy:    float64(50 - i*2),
			Accepted:      i * 60,
			Timestamp:     time.Now(),
		}
		if err := w.Write(entry); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	r, err := NewTraceReader(dir, "job-1")
	if err != nil {
		t.Fatalf("NewTraceReader failed: %v", err)
	}
	defer r.Close()

	entries, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("read %d entries, want 5", len(entries))
	}
	if entries[0].Iteration != 0 || entries[4].Iteration != 400 {
		t.Errorf("iteration order wrong: first %d, last %d", entries[0].Iteration, entries[4].Iteration)
	}
	if entries[2].BestEnergy != 46 {
		t.Errorf("entry 2 best energy = %v, want 46", entries[2].BestEnergy)
	}
}

func TestTraceAppendMode(t *testing.T) {
	dir := t.TempDir()

	w, err := NewTraceWriter(dir, "job-1", false)
	if err != nil {
		t.Fatalf("NewTraceWriter failed: %v", err)
	}
	if err := w.Write(TraceEntry{Iteration: 1}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	w, err = NewTraceWriter(dir, "job-1", true)
	if err != nil {
		t.Fatalf("append NewTraceWriter failed: %v", err)
	}
	if err := w.Write(TraceEntry{Iteration: 2}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	r, err := NewTraceReader(dir, "job-1")
	if err != nil {
		t.Fatalf("NewTraceReader failed: %v", err)
	}
	defer r.Close()

	entries, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("read %d entries, want 2", len(entries))
	}
	if entries[0].Iteration != 1 || entries[1].Iteration != 2 {
		t.Errorf("entries out of order: %+v", entries)
	}
}

func TestTraceTruncateMode(t *testing.T) {
	dir := t.TempDir()

	w, _ := NewTraceWriter(dir, "job-1", false)
	w.Write(TraceEntry{Iteration: 1})
	w.Close()

	w, _ = NewTraceWriter(dir, "job-1", false)
	w.Write(TraceEntry{Iteration: 99})
	w.Close()

	r, err := NewTraceReader(dir, "job-1")
	if err != nil {
		t.Fatalf("NewTraceReader failed: %v", err)
	}
	defer r.Close()

	entries, _ := r.ReadAll()
	if len(entries) != 1 || entries[0].Iteration != 99 {
		t.Errorf("truncate did not reset trace: %+v", entries)
	}
}

func TestTraceReaderEOF(t *testing.T) {
	dir := t.TempDir()

	w, _ := NewTraceWriter(dir, "job-1", false)
	w.Write(TraceEntry{Iteration: 1})
	w.Close()

	r, err := NewTraceReader(dir, "job-1")
	if err != nil {
		t.Fatalf("NewTraceReader failed: %v", err)
	}
	defer r.Close()

	if _, err := r.Read(); err != nil {
		t.Fatalf("first Read failed: %v", err)
	}
	if _, err := r.Read(); err != io.EOF {
		t.Errorf("err = %v, want io.EOF", err)
	}
}

func TestTraceReaderMissing(t *testing.T) {
	_, err := NewTraceReader(t.TempDir(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestTraceFlushVisibleBeforeClose(t *testing.T) {
	dir := t.TempDir()

	w, err := NewTraceWriter(dir, "job-1", false)
	if err != nil {
		t.Fatalf("NewTraceWriter failed: %v", err)
	}
	defer w.Close()

	if err := w.Write(TraceEntry{Iteration: 7}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	r, err := NewTraceReader(dir, "job-1")
	if err != nil {
		t.Fatalf("NewTraceReader failed: %v", err)
	}
	defer r.Close()

	entries, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Iteration != 7 {
		t.Errorf("flushed entry not visible: %+v", entries)
	}
}
