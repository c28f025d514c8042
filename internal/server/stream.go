package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// ProgressEvent is one sampled progress update pushed to SSE subscribers.
type ProgressEvent struct {
	JobID         string    `json:"jobId"`
	State         JobState  `json:"state"`
	Iteration     int       `json:"iteration"`
	Temperature   float64   `json:"temperature"`
	BestEnergy    float64   `json:"bestEnergy"`
	CurrentEnergy float64   `json:"currentEnergy"`
	Accepted      int       `json:"accepted"`
	Timestamp     time.Time `json:"timestamp"`
}

// EventBroadcaster fans progress events out to per-job SSE subscribers. The
// last event per job is retained so reconnecting clients see current state
// immediately.
type EventBroadcaster struct {
	mu        sync.RWMutex
	clients   map[string]map[chan ProgressEvent]struct{}
	lastEvent map[string]ProgressEvent
}

func NewEventBroadcaster() *EventBroadcaster {
	return &EventBroadcaster{
		clients:   make(map[string]map[chan ProgressEvent]struct{}),
		lastEvent: make(map[string]ProgressEvent),
	}
}

// Subscribe registers a new client channel for the job and replays the last
// known event, if any.
func (b *EventBroadcaster) Subscribe(jobID string) chan ProgressEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan ProgressEvent, 10)
	if b.clients[jobID] == nil {
		b.clients[jobID] = make(map[chan ProgressEvent]struct{})
	}
	b.clients[jobID][ch] = struct{}{}

	if last, ok := b.lastEvent[jobID]; ok {
		select {
		case ch <- last:
		default:
		}
	}
	return ch
}

// Unsubscribe removes and closes a client channel.
func (b *EventBroadcaster) Unsubscribe(jobID string, ch chan ProgressEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if clients, ok := b.clients[jobID]; ok {
		if _, ok := clients[ch]; ok {
			delete(clients, ch)
			close(ch)
		}
		if len(clients) == 0 {
			delete(b.clients, jobID)
		}
	}
}

// Broadcast delivers the event to all subscribers of its job. Slow clients
// with full channels are skipped rather than blocking the worker.
func (b *EventBroadcaster) Broadcast(event ProgressEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastEvent[event.JobID] = event
	for ch := range b.clients[event.JobID] {
		select {
		case ch <- event:
		default:
			slog.Warn("progress channel full, dropping event", "jobID", event.JobID)
		}
	}
}

// handleJobStream serves SSE progress for one job.
func (s *Server) handleJobStream(w http.ResponseWriter, r *http.Request, jobID string) {
	job, ok := s.jobManager.GetJob(jobID)
	if !ok {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events := s.jobManager.broadcaster.Subscribe(jobID)
	defer s.jobManager.broadcaster.Unsubscribe(jobID, events)

	initial := ProgressEvent{
		JobID:      job.ID,
		State:      job.State,
		Iteration:  job.Iteration,
		BestEnergy: job.BestEnergy,
		Accepted:   job.Accepted,
		Timestamp:  time.Now(),
	}
	if err := writeSSEEvent(w, initial); err != nil {
		return
	}
	flusher.Flush()

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := writeSSEEvent(w, event); err != nil {
				return
			}
			flusher.Flush()
			if event.State == StateCompleted || event.State == StateFailed || event.State == StateCancelled {
				return
			}
		case <-ping.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, event ProgressEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
