// Package http serves the lifearchitect JSON API.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fyrsmithlabs/lifearchitect/internal/goals"
	"github.com/fyrsmithlabs/lifearchitect/internal/habits"
	"github.com/fyrsmithlabs/lifearchitect/internal/journal"
	"github.com/fyrsmithlabs/lifearchitect/internal/logging"
	"github.com/fyrsmithlabs/lifearchitect/internal/planner"
	"github.com/fyrsmithlabs/lifearchitect/internal/tasks"
	"github.com/fyrsmithlabs/lifearchitect/internal/timeline"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Services are the domain services behind the API.
type Services struct {
	Tasks    *tasks.Service
	Habits   *habits.Service
	Timeline *timeline.Service
	Journal  *journal.Service
	Goals    *goals.Store
	Planner  *planner.Service
}

func (s Services) validate() error {
	switch {
	case s.Tasks == nil:
		return errors.New("task service is required")
	case s.Habits == nil:
		return errors.New("habit service is required")
	case s.Timeline == nil:
		return errors.New("timeline service is required")
	case s.Journal == nil:
		return errors.New("journal service is required")
	case s.Goals == nil:
		return errors.New("goal store is required")
	case s.Planner == nil:
		return errors.New("planner is required")
	}
	return nil
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
	// Location is the calendar zone used to resolve "today" and day keys.
	Location *time.Location
	// Samples seeds sample tasks and events the first time today is listed.
	Samples bool
	Version string
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Server provides the HTTP endpoints.
type Server struct {
	echo    *echo.Echo
	svc     Services
	logger  *logging.Logger
	config  *Config
	metrics *HTTPMetrics
}

// NewServer creates a server and registers all routes.
func NewServer(svc Services, logger *zap.Logger, cfg *Config) (*Server, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if err := svc.validate(); err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &Config{Host: "127.0.0.1", Port: 9002}
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		svc:     svc,
		logger:  logging.Wrap(logger.Named("http")),
		config:  cfg,
		metrics: NewHTTPMetrics(logger),
	}
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestContext)
	e.Use(s.requestLogger)
	e.Use(s.metrics.MetricsMiddleware())

	s.registerRoutes()
	return s, nil
}

// Echo exposes the router, mainly for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")

	v1.GET("/days/:day/tasks", s.listTasks)
	v1.POST("/days/:day/tasks", s.addTask)
	v1.PATCH("/days/:day/tasks/:id", s.patchTask)
	v1.DELETE("/days/:day/tasks/:id", s.deleteTask)
	v1.POST("/days/:day/tasks/:id/toggle", s.toggleTask)
	v1.POST("/days/:day/tasks/reorder", s.reorderTasks)
	v1.POST("/days/:day/tasks/migrate", s.migrateTasks)

	v1.GET("/days/:day/events", s.listEvents)
	v1.POST("/days/:day/events", s.createEvent)
	v1.PUT("/days/:day/events/:id", s.updateEvent)
	v1.DELETE("/days/:day/events/:id", s.deleteEvent)

	v1.GET("/days/:day/log", s.getLog)
	v1.PUT("/days/:day/log", s.putLog)

	v1.GET("/habits", s.listHabits)
	v1.POST("/habits", s.addHabit)
	v1.GET("/habits/chains", s.habitChains)
	v1.PUT("/habits/:id", s.updateHabit)
	v1.DELETE("/habits/:id", s.deleteHabit)
	v1.PUT("/habits/:id/completions/:day", s.completeHabit)
	v1.DELETE("/habits/:id/completions/:day", s.uncompleteHabit)
	v1.GET("/habit-categories", s.listCategories)

	v1.POST("/goals/decompose", s.decomposeGoal)
	v1.GET("/goals", s.listGoals)
	v1.GET("/goals/:id", s.getGoal)
	v1.DELETE("/goals/:id", s.deleteGoal)
	v1.POST("/goals/:id/tasks/:index/accept", s.acceptGoalTask)
	v1.POST("/schedule", s.schedule)
	v1.POST("/timeparse", s.parseTime)
}

// requestContext copies the request id into the request context so service
// logs can be correlated.
func requestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Response().Header().Get(echo.HeaderXRequestID)
		req := c.Request()
		c.SetRequest(req.WithContext(logging.WithRequestID(req.Context(), id)))
		return next(c)
	}
}

// requestLogger logs one line per request. Errors are rendered here so the
// logged status is the one sent.
func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		if err := next(c); err != nil {
			c.Error(err)
		}
		s.logger.Info(c.Request().Context(), "http request",
			zap.String("method", c.Request().Method),
			zap.String("route", c.Path()),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", time.Since(start)),
		)
		return nil
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: s.config.Version})
}

// Start serves until ctx is cancelled, then shuts down gracefully within
// shutdownTimeout.
func (s *Server) Start(ctx context.Context, shutdownTimeout time.Duration) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(ctx, "starting http server", zap.String("addr", addr))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
