// Package httpapi exposes the routing core over HTTP: POST
// /api/optimize, GET /api/solvers, GET /api/config. Routing and CORS
// follow the chi + rs/cors pairing the pack's transit API uses; the
// request shapes follow the original FastAPI server's JSON contract.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/portomove/wcoroute/internal/config"
	"github.com/portomove/wcoroute/internal/solver"
)

// Server wires the routing core behind an HTTP handler.
type Server struct {
	Solvers *solver.Registry
	Config  config.RunConfig
}

// NewServer builds a Server with a populated solver registry and the
// given default run configuration.
func NewServer(cfg config.RunConfig) *Server {
	return &Server{Solvers: solver.NewRegistry(), Config: cfg}
}

// Router builds the chi router: request-id correlation, panic recovery,
// a 60-second request timeout, CORS
// wide open (mirroring the original `allow_origins=["*"]`), and the
// three routing endpoints.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	})
	r.Use(c.Handler)

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/optimize", s.handleOptimize)
		r.Get("/solvers", s.handleSolvers)
		r.Get("/config", s.handleConfig)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
