// Package httpapi exposes the branch services over REST using echo.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/branchkeeper/internal/logging"
	"github.com/dmitrijs2005/branchkeeper/internal/server/services"
	"github.com/labstack/echo/v4"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	address  string
	echo     *echo.Echo
	users    *services.UserService
	branches *services.BranchService
	logger   logging.Logger
}

// NewServer wires routes and middleware. limiter may be nil.
func NewServer(address string, secretKey string, us *services.UserService, bs *services.BranchService, limiter echo.MiddlewareFunc, l logging.Logger) *Server {
	s := &Server{
		address:  address,
		echo:     echo.New(),
		users:    us,
		branches: bs,
		logger:   l.With("module", "http_server"),
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.HTTPErrorHandler = s.httpErrorHandler

	s.echo.Use(requestLogger(s.logger))
	s.echo.GET("/healthz", health)

	v1 := s.echo.Group("/v1", bearerAuth([]byte(secretKey)))
	if limiter != nil {
		v1.Use(limiter)
	}
	s.routes(v1)

	return s
}

func (s *Server) routes(g *echo.Group) {
	g.POST("/user", s.registerUser)
	g.GET("/user", s.getUser)
	g.PUT("/user", s.updateUser)

	g.GET("/categories", s.listCategories)
	g.POST("/categories", s.createCategory)

	g.POST("/search", s.search)

	g.GET("/:kind/:id", s.getEntity)
	g.PUT("/:kind/:id", s.updateEntity)
	g.DELETE("/:kind/:id", s.deleteEntity)
	g.GET("/:kind/:id/tree", s.getTree)
	g.POST("/:kind/:id/rebase-delete", s.deleteAndRebase)
	g.PATCH("/:kind/:id/parent", s.rebase)
	g.POST("/:kind/:id/tasks", s.createTask)
	g.POST("/:kind/:id/events", s.createEvent)
	g.POST("/:kind/:id/notes", s.createNote)
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := s.echo.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
