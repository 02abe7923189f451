package server

import (
	"context"
	"net/http"
	"time"

	"mondesavoir/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// maxBodyBytes caps every request body
const maxBodyBytes = 1 << 20

const banner = "Backend Monde Savoir en service sur /"

// HealthChecker reports whether the backing store is reachable
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Server exposes the user, scoring and quiz services over HTTP
type Server struct {
	users   service.UserService
	scoring service.ScoringService
	quiz    service.QuizService
	health  HealthChecker
}

// New creates a new HTTP server
func New(users service.UserService, scoring service.ScoringService, quiz service.QuizService, health HealthChecker) *Server {
	return &Server{
		users:   users,
		scoring: scoring,
		quiz:    quiz,
		health:  health,
	}
}

// Router builds the chi router with middleware and routes
func (s *Server) Router(corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(limitBody(maxBodyBytes))

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)

	r.Route("/users", func(r chi.Router) {
		r.Post("/", s.handleCreateUser)
		r.Get("/", s.handleListUsers)
		r.Get("/{id}", s.handleGetUser)
		r.Post("/{id}/score", s.handleApplyDelta)
	})

	r.Post("/quiz", s.handleQuiz)

	return r
}

// NewHTTPServer wraps the router in an http.Server with conservative timeouts
func (s *Server) NewHTTPServer(addr string, corsOrigins []string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Router(corsOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
