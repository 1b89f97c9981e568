package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/SzKingXz/aurore-backend/api/middleware"
	"github.com/SzKingXz/aurore-backend/api/routes"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	deps   routes.Dependencies
}

// NewServer only honours X-Forwarded-For from server.trusted_proxies, so
// per-client limits key on the real peer address.
func NewServer(deps routes.Dependencies) (*Server, error) {
	if !deps.Config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.LoggingMiddleware(deps.Logger),
		gin.Recovery(),
	)
	if err := router.SetTrustedProxies(deps.Config.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	s := &Server{
		router: router,
		deps:   deps,
	}
	s.http = &http.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", deps.Config.Server.Port),
		Handler: s.Handler(),
	}
	return s, nil
}

func (s *Server) SetupRoutes() {
	routes.SetupRoutes(s.router, s.deps)
}

// Handler is the engine wrapped with CORS.
func (s *Server) Handler() http.Handler {
	origins := s.deps.Config.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         600,
	})
	return c.Handler(s.router)
}

func (s *Server) Addr() string {
	return s.http.Addr
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start() error {
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
