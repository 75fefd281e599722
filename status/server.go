// Package status serves the layer state and its metrics over HTTP.
package status

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/netip"
	"time"

	"github.com/aethiopicuschan/liveless/xnet"
	"github.com/gorilla/mux"
	"github.com/pion/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Source is the layer state reported by /status. *liveless.Layer
// implements it.
type Source interface {
	Activated() bool
	Redirect() xnet.RedirectTarget
	External() netip.Addr
	Hooks() []string
}

// Report is the /status body.
type Report struct {
	Activated bool     `json:"activated"`
	Redirect  string   `json:"redirect,omitempty"`
	External  string   `json:"external,omitempty"`
	Hooks     []string `json:"hooks"`
}

// Server exposes /status, /health and /metrics.
type Server struct {
	source Source
	router *mux.Router
	server *http.Server
	log    logging.LeveledLogger
}

// NewServer builds the routes. gatherer nil leaves /metrics out.
func NewServer(source Source, gatherer prometheus.Gatherer, log logging.LeveledLogger) *Server {
	if log == nil {
		log = logging.NewDefaultLoggerFactory().NewLogger("status")
	}
	s := &Server{
		source: source,
		router: mux.NewRouter(),
		log:    log,
	}
	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.router.HandleFunc("/status", s.status).Methods("GET")
	s.router.HandleFunc("/health", s.health).Methods("GET")
	if gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.router }

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.log.Infof("status server listening on %s", ln.Addr())
	err := s.server.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops a running Serve.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	rep := Report{
		Activated: s.source.Activated(),
		Hooks:     s.source.Hooks(),
	}
	if rep.Hooks == nil {
		rep.Hooks = []string{}
	}
	if r := s.source.Redirect(); !r.IsZero() {
		rep.Redirect = r.String()
	}
	if ext := s.source.External(); ext.IsValid() {
		rep.External = ext.String()
	}
	s.writeJSON(w, http.StatusOK, rep)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warnf("encoding response: %v", err)
	}
}
