package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/icefall/anneal/internal/config"
	"github.com/icefall/anneal/internal/store"
)

// Server exposes the job API: job submission and listing, per-job status,
// SSE progress streams, results, traces, checkpoint management and Prometheus
// metrics.
type Server struct {
	jobManager *JobManager
	store      store.Store
	dataDir    string
	addr       string
	server     *http.Server

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewServer creates a server persisting checkpoints and traces under dataDir.
// A nil store disables persistence; jobs then live in memory only.
func NewServer(addr string, st store.Store, dataDir string) *Server {
	return &Server{
		jobManager: NewJobManager(),
		store:      st,
		dataDir:    dataDir,
		addr:       addr,
		cancels:    make(map[string]context.CancelFunc),
	}
}

// Start blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/v1/jobs", s.handleJobs)
	mux.HandleFunc("/api/v1/jobs/", s.handleJobsWithID)
	mux.HandleFunc("/api/v1/checkpoints", s.handleListCheckpoints)
	mux.HandleFunc("/api/v1/checkpoints/", s.handleCheckpointsWithID)

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: s.loggingMiddleware(s.corsMiddleware(mux)),
	}

	slog.Info("starting HTTP server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down HTTP server")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateJob(w, r)
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.jobManager.ListJobs())
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleJobsWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "job ID required", http.StatusBadRequest)
		return
	}
	jobID := parts[0]

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			s.handleJobStatus(w, r, jobID)
		case http.MethodDelete:
			s.handleCancelJob(w, r, jobID)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	switch parts[1] {
	case "status":
		s.handleJobStatus(w, r, jobID)
	case "stream":
		s.handleJobStream(w, r, jobID)
	case "result":
		s.handleJobResult(w, r, jobID)
	case "trace":
		s.handleJobTrace(w, r, jobID)
	case "resume":
		s.handleResumeJob(w, r, jobID)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// handleCreateJob handles POST /api/v1/jobs.
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var cfg config.RunConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, fmt.Sprintf("invalid JSON: %v", err), http.StatusBadRequest)
		return
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := s.startJob(cfg, nil)
	writeJSON(w, http.StatusCreated, job)
}

// handleResumeJob handles POST /api/v1/jobs/{id}/resume: starts a new job
// from the named job's checkpoint, with the stored configuration.
func (s *Server) handleResumeJob(w http.ResponseWriter, r *http.Request, jobID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		http.Error(w, "checkpointing disabled", http.StatusConflict)
		return
	}

	checkpoint, err := s.store.LoadCheckpoint(jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "checkpoint not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := checkpoint.Validate(); err != nil {
		http.Error(w, fmt.Sprintf("unusable checkpoint: %v", err), http.StatusConflict)
		return
	}

	job := s.startJob(checkpoint.Config, checkpoint.BestVector)
	writeJSON(w, http.StatusCreated, job)
}

func (s *Server) startJob(cfg config.RunConfig, resumeVector []float64) Job {
	job := s.jobManager.CreateJob(cfg, resumeVector)
	metricJobsTotal.WithLabelValues(string(StatePending)).Inc()

	// Snapshot before the worker starts mutating the job.
	snapshot := *job

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancels[job.ID] = cancel
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.cancels, job.ID)
			s.mu.Unlock()
			cancel()
		}()
		runJob(ctx, s.jobManager, s.store, s.dataDir, job.ID)
	}()

	return snapshot
}

// handleCancelJob handles DELETE /api/v1/jobs/{id}. Cancellation takes
// effect at run boundaries; a run already in its loop finishes first.
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request, jobID string) {
	if _, ok := s.jobManager.GetJob(jobID); !ok {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	s.mu.Lock()
	cancel, ok := s.cancels[jobID]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "job already finished", http.StatusConflict)
		return
	}
	cancel()
	writeJSON(w, http.StatusAccepted, map[string]string{"id": jobID, "state": "cancelling"})
}

// handleJobStatus handles GET /api/v1/jobs/{id}/status. The status view
// omits the best vector; /result carries it.
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request, jobID string) {
	job, ok := s.jobManager.GetJob(jobID)
	if !ok {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	var elapsed time.Duration
	if job.EndTime != nil {
		elapsed = job.EndTime.Sub(job.StartTime)
	} else {
		elapsed = time.Since(job.StartTime)
	}

	var ips float64
	if elapsed.Seconds() > 0 {
		ips = float64(job.Iteration) / elapsed.Seconds()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":            job.ID,
		"state":         job.State,
		"config":        job.Config,
		"bestEnergy":    job.BestEnergy,
		"initialEnergy": job.InitialEnergy,
		"iteration":     job.Iteration,
		"accepted":      job.Accepted,
		"reason":        job.Reason,
		"elapsed":       elapsed.Seconds(),
		"itersPerSec":   ips,
		"startTime":     job.StartTime,
		"endTime":       job.EndTime,
		"error":         job.Error,
	})
}

// handleJobResult handles GET /api/v1/jobs/{id}/result.
func (s *Server) handleJobResult(w http.ResponseWriter, r *http.Request, jobID string) {
	job, ok := s.jobManager.GetJob(jobID)
	if !ok {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	if job.State != StateCompleted {
		http.Error(w, "job not completed", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleJobTrace handles GET /api/v1/jobs/{id}/trace.
func (s *Server) handleJobTrace(w http.ResponseWriter, r *http.Request, jobID string) {
	if s.dataDir == "" {
		http.Error(w, "tracing disabled", http.StatusConflict)
		return
	}

	reader, err := store.NewTraceReader(s.dataDir, jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "trace not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleListCheckpoints handles GET /api/v1/checkpoints.
func (s *Server) handleListCheckpoints(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		http.Error(w, "checkpointing disabled", http.StatusConflict)
		return
	}

	infos, err := s.store.ListCheckpoints()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleCheckpointsWithID handles GET and DELETE on /api/v1/checkpoints/{id}.
func (s *Server) handleCheckpointsWithID(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "checkpointing disabled", http.StatusConflict)
		return
	}
	jobID := strings.TrimPrefix(r.URL.Path, "/api/v1/checkpoints/")
	if jobID == "" || strings.Contains(jobID, "/") {
		http.Error(w, "checkpoint ID required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		checkpoint, err := s.store.LoadCheckpoint(jobID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				http.Error(w, "checkpoint not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, checkpoint)
	case http.MethodDelete:
		if err := s.store.DeleteCheckpoint(jobID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				http.Error(w, "checkpoint not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("http request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
