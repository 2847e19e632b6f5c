package server

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/tmcfarlane/google-login-server/auth"
	"github.com/tmcfarlane/google-login-server/internal/config"
)

type Server struct {
	env    config.Environment
	mux    *http.ServeMux
	routes []string
	config *config.Config
	auth   *auth.Service

	healthCheck func() error
}

// Option modifies the Server during construction.
type Option func(*Server)

// WithHealthCheck registers a probe (typically a database ping) run by
// the healthz endpoint.
func WithHealthCheck(check func() error) Option {
	return func(s *Server) {
		s.healthCheck = check
	}
}

func New(cfg *config.Config, authService *auth.Service, options ...Option) *Server {
	s := &Server{
		env:    cfg.Env,
		mux:    http.NewServeMux(),
		config: cfg,
		auth:   authService,
	}

	for _, opt := range options {
		opt(s)
	}

	s.initRoutes()
	s.logRoutes()

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != config.Development {
		return // Skip logging outside development
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s\n", displayMethod, path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
