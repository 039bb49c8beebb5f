package app

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// statusRouter builds the HTTP surface of the status server: a liveness
// endpoint and a JSON progress snapshot.
func (a *App) statusRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		a.logger.Debug("Health check endpoint hit.", "remote_addr", req.RemoteAddr)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	})

	r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(a.status.snapshot()); err != nil {
			a.logger.Error("Failed to encode status snapshot.", "error", err)
		}
	})

	return r
}

// startStatusServer runs the status server in the background. It lives for
// the remainder of the process; a batch run has no graceful-shutdown needs.
func (a *App) startStatusServer(port int) {
	addr := fmt.Sprintf(":%d", port)
	go func() {
		a.logger.Info("Status server starting.", "address", fmt.Sprintf("http://localhost%s/status", addr))
		if err := http.ListenAndServe(addr, a.statusRouter()); err != nil {
			a.logger.Error("Status server failed.", "error", err)
		}
	}()
}
