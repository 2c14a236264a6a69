// ABOUTME: HTTP surface for the orchestration kernel: one chi router over SwarmManager, Store, and the MCP gateway.
// ABOUTME: ListenAndServe timeouts are sized to bound resource use from slow or stalled clients.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/2389-research/swarmkernel/auth"
	"github.com/2389-research/swarmkernel/eventbus"
	"github.com/2389-research/swarmkernel/mcp"
	"github.com/2389-research/swarmkernel/store"
	"github.com/2389-research/swarmkernel/swarmmgr"
)

// Server is the kernel's HTTP surface.
type Server struct {
	router  chi.Router
	addr    string
	manager *swarmmgr.Manager
	store   *store.Store
	gateway mcp.Gateway
	authz   *auth.Registry
	bus     *eventbus.Bus
	started time.Time

	pollIntervalS int
}

// Config wires a Server's dependencies.
type Config struct {
	Addr          string
	Manager       *swarmmgr.Manager
	Store         *store.Store
	Gateway       mcp.Gateway
	Auth          *auth.Registry
	Bus           *eventbus.Bus
	PollIntervalS int
}

// NewServer builds a Server and its chi router from cfg.
func NewServer(cfg Config) *Server {
	s := &Server{
		addr:          cfg.Addr,
		manager:       cfg.Manager,
		store:         cfg.Store,
		gateway:       cfg.Gateway,
		authz:         cfg.Auth,
		bus:           cfg.Bus,
		started:       time.Now(),
		pollIntervalS: cfg.PollIntervalS,
	}
	s.router = s.buildRouter()
	return s
}

// ServeHTTP satisfies http.Handler by delegating to the chi router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server with timeouts sized to bound
// resource use from slow or stalled clients.
func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
	return srv.ListenAndServe()
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.With(s.requireCapability(auth.SwarmCreate)).
		Post("/orchestrator/process", s.handleProcess)

	r.With(s.requireCapability(auth.SwarmCreate)).
		Post("/swarms", s.handleCreateSwarm)
	r.With(s.requireCapability(auth.SwarmMonitor)).
		Get("/swarms", s.handleListSwarms)
	r.With(s.requireCapability(auth.SwarmMonitor)).
		Get("/swarms/{id}", s.handleGetSwarm)

	r.With(s.requireCapability(auth.SwarmMonitor)).
		Get("/api/planner/{id}", s.handlePlannerView)

	r.With(s.requireCapability(auth.AgentControl)).
		Put("/tasks/{id}", s.handleUpdateTask)

	r.With(s.requireCapability(auth.AdminReadonly)).
		Get("/swarm/health", s.handleSwarmHealth)

	r.With(s.requireToolCapability()).
		Post("/tools/{toolName}", s.handleInvokeTool)

	return r
}

// requireCapability wraps the route in the auth registry's capability check,
// or passes every request through unauthenticated if no registry is wired
// (local development / tests).
func (s *Server) requireCapability(cap auth.Capability) func(http.Handler) http.Handler {
	if s.authz == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return s.authz.Middleware(cap)
}

// requireToolCapability authorizes /tools/{toolName} against the
// route-specific MCP_<tool family> capability named by the path itself.
func (s *Server) requireToolCapability() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s.authz == nil {
				next.ServeHTTP(w, r)
				return
			}
			toolName := chi.URLParam(r, "toolName")
			s.authz.Middleware(auth.MCPCapability(toolName))(next).ServeHTTP(w, r)
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
