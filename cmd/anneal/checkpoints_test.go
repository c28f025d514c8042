package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/icefall/anneal/internal/store"
)

func TestSelectCheckpointsForDeletionByAge(t *testing.T) {
	now := time.Now()
	infos := []store.CheckpointInfo{
		{JobID: "job1", Timestamp: now.AddDate(0, 0, -10)},
		{JobID: "job2", Timestamp: now.AddDate(0, 0, -5)},
		{JobID: "job3", Timestamp: now.AddDate(0, 0, -1)},
		{JobID: "job4", Timestamp: now.AddDate(0, 0, -30)},
	}

	toDelete := selectCheckpointsForDeletion(infos, 0, 7)

	if len(toDelete) != 2 {
		t.Fatalf("selected %d checkpoints, want 2", len(toDelete))
	}
	selected := make(map[string]bool)
	for _, info := range toDelete {
		selected[info.JobID] = true
	}
	if !selected["job1"] || !selected["job4"] {
		t.Errorf("wrong selection: %v", selected)
	}
}

func TestSelectCheckpointsForDeletionByCount(t *testing.T) {
	now := time.Now()
	infos := []store.CheckpointInfo{
		{JobID: "job1", Timestamp: now.AddDate(0, 0, -10)},
		{JobID: "job2", Timestamp: now.AddDate(0, 0, -5)},
		{JobID: "job3", Timestamp: now.AddDate(0, 0, -1)},
		{JobID: "job4", Timestamp: now.AddDate(0, 0, -30)},
	}

	toDelete := selectCheckpointsForDeletion(infos, 2, 0)

	if len(toDelete) != 2 {
		t.Fatalf("selected %d checkpoints, want 2", len(toDelete))
	}
	selected := make(map[string]bool)
	for _, info := range toDelete {
		selected[info.JobID] = true
	}
	if !selected["job1"] || !selected["job4"] {
		t.Errorf("expected the two oldest, got: %v", selected)
	}
}

func TestSelectCheckpointsForDeletionCombined(t *testing.T) {
	now := time.Now()
	infos := []store.CheckpointInfo{
		{JobID: "job1", Timestamp: now.AddDate(0, 0, -10)},
		{JobID: "job2", Timestamp: now.AddDate(0, 0, -5)},
		{JobID: "job3", Timestamp: now.AddDate(0, 0, -1)},
		{JobID: "job4", Timestamp: now.AddDate(0, 0, -30)},
		{JobID: "job5", Timestamp: now.AddDate(0, 0, -2)},
	}

	// Age marks job1 and job4; count keeps the newest 3, which marks the same
	// two. No double-counting.
	toDelete := selectCheckpointsForDeletion(infos, 3, 7)

	if len(toDelete) != 2 {
		t.Errorf("selected %d checkpoints, want 2", len(toDelete))
	}
}

func TestSelectCheckpointsForDeletionKeepsAll(t *testing.T) {
	infos := []store.CheckpointInfo{
		{JobID: "job1", Timestamp: time.Now()},
	}
	if toDelete := selectCheckpointsForDeletion(infos, 5, 0); len(toDelete) != 0 {
		t.Errorf("selected %d checkpoints, want 0", len(toDelete))
	}
}

func TestGetDirSize(t *testing.T) {
	dir := t.TempDir()
	content := []byte("twelve bytes")
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), content, 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	size, err := getDirSize(dir)
	if err != nil {
		t.Fatalf("getDirSize failed: %v", err)
	}
	if size < int64(len(content)) {
		t.Errorf("size = %d, want >= %d", size, len(content))
	}
}

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 * 1024 * 1024, "3.0 MB"},
	}
	for _, c := range cases {
		if got := formatBytes(c.in); got != c.want {
			t.Errorf("formatBytes(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatVector(t *testing.T) {
	if got := formatVector([]float64{1, 2.5}); got != "[1 2.5]" {
		t.Errorf("formatVector short = %q", got)
	}
	long := make([]float64, 20)
	got := formatVector(long)
	if got != "[0 0 0 0 0 0 0 0... 12 more]" {
		t.Errorf("formatVector long = %q", got)
	}
}
