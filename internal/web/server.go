// Package web serves a read-only status page for the alarm station.
// Handlers only read the status tracker; anything other than GET or HEAD
// is refused, so the station cannot be commanded over HTTP.
package web

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/sweeney/alarm-station/internal/status"
)

// Server exposes the tracker's snapshot as HTML and JSON.
type Server struct {
	srv     *http.Server
	tracker *status.Tracker
}

// New builds a Server listening on addr once started.
func New(addr string, tracker *status.Tracker) *Server {
	s := &Server{tracker: tracker}

	mux := http.NewServeMux()
	for path, h := range map[string]http.HandlerFunc{
		"/":            s.handleIndex,
		"/index.html":  s.handleIndex,
		"/index.json":  s.handleJSON,
		"/events.json": s.handleEvents,
	} {
		mux.Handle(path, readOnly(h))
	}

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// ListenAndServe blocks until Shutdown.
func (s *Server) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	return s.srv.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func readOnly(h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		h(w, r)
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	// "/" matches every unregistered path.
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, s.tracker.Snapshot())
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, formatJSON(s.tracker.Snapshot()))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, formatEvents(s.tracker.Snapshot().View.Events))
}

func writeJSON(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}
