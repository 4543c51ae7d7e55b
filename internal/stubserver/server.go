// Package stubserver serves a development stand-in for the task and login
// API that the terminal client talks to.
package stubserver

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"

	"connectrpc.com/grpchealth"
	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kazz187/taskforge/internal/config"
	"github.com/kazz187/taskforge/internal/task"
	"github.com/kazz187/taskforge/pkg/cerr"
	"github.com/kazz187/taskforge/pkg/clog"
)

type Server struct {
	server      *http.Server
	env         *config.StubEnv
	repo        task.Repository
	requireAuth bool

	mu       sync.RWMutex
	users    map[string]string // user name -> user id
	sessions map[string]string // token -> user id
}

type Option func(*Server)

// WithRequireAuth makes the task routes reject requests without a token
// issued by POST /api/login.
func WithRequireAuth(b bool) Option {
	return func(s *Server) {
		s.requireAuth = b
	}
}

func NewServer(env *config.StubEnv, repo task.Repository, opts ...Option) *Server {
	s := &Server{
		env:      env,
		repo:     repo,
		users:    make(map[string]string),
		sessions: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the full handler tree without h2c, for tests.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(
			clog.SlogChiMiddleware(),
			cerr.NewConvertErrorChiMiddleware(),
		)
		r.Post("/login", s.login)
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/tasks", s.listTasks)
			r.Post("/tasks", s.createTask)
			r.Delete("/tasks/{id}", s.deleteTask)
		})
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			cerr.SetNewJSONError(r.Context(), cerr.Unimplemented, "method not allowed", nil)
		})
	})

	mux := http.NewServeMux()
	mux.Handle("/health", &HealthChecker{})
	mux.Handle("/api/", r)
	mux.Handle(grpchealth.NewHandler(grpchealth.NewStaticChecker()))

	return cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(mux)
}

// ListenAndServe blocks until the server stops. ctx becomes the base context
// of every request.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting stub server", "addr", addr)

	s.server = &http.Server{
		Addr:        addr,
		Handler:     h2c.NewHandler(s.Handler(), &http2.Server{}),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type HealthChecker struct{}

func (hc *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.requireAuth {
			next.ServeHTTP(w, r)
			return
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			cerr.SetNewJSONError(r.Context(), cerr.Unauthenticated, "missing bearer token", nil)
			return
		}
		s.mu.RLock()
		userID, found := s.sessions[token]
		s.mu.RUnlock()
		if !found {
			cerr.SetNewJSONError(r.Context(), cerr.Unauthenticated, "unknown session", nil)
			return
		}
		clog.AddUser(r.Context(), userID)
		next.ServeHTTP(w, r)
	})
}
