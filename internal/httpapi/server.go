// Package httpapi provides the introspection HTTP surface for a running
// node: health, current membership, local identity, and Prometheus metrics.
// Grounded on the teacher's internal/api/server.go chi router: the same
// middleware stack (RequestID, RealIP, Recoverer), the same writeJSON
// helper, and mounting promhttp.Handler() at /metrics.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meshring/swim/internal/domain"
)

// Server exposes a running node's membership table over HTTP.
type Server struct {
	table domain.MembershipView
}

// NewServer creates a Server backed by table.
func NewServer(table domain.MembershipView) *Server {
	return &Server{table: table}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/members", s.handleMembers)
		r.Get("/local", s.handleLocal)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

type memberView struct {
	Node        string `json:"node"`
	Incarnation uint64 `json:"incarnation"`
}

func (s *Server) handleMembers(w http.ResponseWriter, _ *http.Request) {
	members := s.table.Members()
	out := make([]memberView, 0, len(members))
	for _, m := range members {
		out = append(out, memberView{Node: m.Node.String(), Incarnation: m.Incarnation})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleLocal(w http.ResponseWriter, _ *http.Request) {
	node, inc := s.table.Local()
	writeJSON(w, http.StatusOK, memberView{Node: node.String(), Incarnation: inc})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
