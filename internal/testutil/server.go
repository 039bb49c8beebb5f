package testutil

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// ServiceServer is an HTTP test double of the job-execution service's REST
// API, for exercising the real HTTP client. Mount Router on an
// httptest.Server.
type ServiceServer struct {
	mu sync.Mutex

	// CompleteAfterProbes is how many state probes a job answers "running"
	// before turning terminal. Zero means the first probe is terminal.
	CompleteAfterProbes int

	// TerminalState is what finished jobs report. Empty means "completed".
	TerminalState string

	// RejectExecutes makes POST /jobs answer 503.
	RejectExecutes bool

	seq  int
	jobs map[string]*remoteJob
}

type remoteJob struct {
	probes int
}

// NewServiceServer returns a double whose jobs complete on the first probe.
func NewServiceServer() *ServiceServer {
	return &ServiceServer{jobs: make(map[string]*remoteJob)}
}

// Router builds the double's HTTP surface.
func (s *ServiceServer) Router() http.Handler {
	r := chi.NewRouter()

	r.Post("/jobs", func(w http.ResponseWriter, req *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.RejectExecutes {
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			return
		}

		var body struct {
			Path      string          `json:"path"`
			Name      string          `json:"name"`
			Context   string          `json:"context"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Path == "" {
			http.Error(w, "bad submission", http.StatusBadRequest)
			return
		}

		s.seq++
		id := strconv.Itoa(s.seq)
		s.jobs[id] = &remoteJob{}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{
			"uri":         "/jobs/" + id,
			"monitorLink": "/jobs/" + id + "/monitor",
		})
	})

	r.Get("/jobs/{id}/state", func(w http.ResponseWriter, req *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		job, ok := s.jobs[chi.URLParam(req, "id")]
		if !ok {
			http.Error(w, "no such job", http.StatusNotFound)
			return
		}

		job.probes++
		state := "running"
		if job.probes > s.CompleteAfterProbes {
			state = s.TerminalState
			if state == "" {
				state = "completed"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"state":     state,
			"timestamp": time.Now().UTC(),
		})
	})

	return r
}

// JobCount reports how many submissions the double accepted.
func (s *ServiceServer) JobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}
