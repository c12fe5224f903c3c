// Package api exposes the trainer over a JSON HTTP API.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/example/wordmaster/internal/corpus"
	"github.com/example/wordmaster/internal/trainer"
	"github.com/example/wordmaster/pkg/models"
)

// Server is the HTTP transport of the trainer
type Server struct {
	echo     *echo.Echo
	trainers *trainer.Registry
	corpus   *corpus.Corpus
	log      *slog.Logger
}

// New creates the server and registers its routes
func New(trainers *trainer.Registry, c *corpus.Corpus, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:     e,
		trainers: trainers,
		corpus:   c,
		log:      logger.With("component", "api"),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	v1 := s.echo.Group("/api/v1")
	v1.GET("/words", s.searchWords)
	v1.GET("/words/:id", s.getWord)

	l := v1.Group("/learners/:learner")

	l.POST("/sessions", s.startSession)
	l.POST("/sessions/answers", s.answerWord)
	l.POST("/sessions/end", s.endSession)
	l.POST("/sessions/abort", s.abortSession)
	l.GET("/sessions/current", s.currentSession)

	l.POST("/tests", s.startTest)
	l.POST("/tests/answers", s.answerQuestion)
	l.POST("/tests/navigate", s.navigateQuestion)
	l.POST("/tests/expire", s.expireQuestion)
	l.POST("/tests/pause", s.pauseTest)
	l.POST("/tests/resume", s.resumeTest)
	l.POST("/tests/end", s.endTest)
	l.GET("/tests/current", s.currentTest)
	l.GET("/tests/history", s.testHistory)

	l.GET("/difficulty", s.difficulty)
	l.GET("/progress", s.overview)
	l.GET("/progress/daily", s.daily)
	l.GET("/progress/weekly", s.weekly)
	l.GET("/progress/difficulty", s.accuracyByDifficulty)
	l.DELETE("/progress", s.reset)
	l.GET("/profile", s.profile)
}

// Handler returns the HTTP handler, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown is called
func (s *Server) Start(addr string) error {
	s.log.Info("http server listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

type errorResponse struct {
	Error string `json:"error"`
	Data  any    `json:"data,omitempty"` // state after a partially applied action
}

// statusFor maps error kinds to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNoActiveSession), errors.Is(err, models.ErrSessionActive):
		return http.StatusConflict
	case errors.Is(err, models.ErrPersistence):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respond writes data, or the error with data attached when the action was
// still applied in memory
func (s *Server) respond(c echo.Context, data any, err error) error {
	if err == nil {
		return c.JSON(http.StatusOK, data)
	}
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Warn("request failed", "path", c.Path(), "learner", c.Param("learner"), "error", err)
	}
	body := errorResponse{Error: err.Error()}
	if errors.Is(err, models.ErrPersistence) {
		body.Data = data
	}
	return c.JSON(status, body)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func (s *Server) trainer(c echo.Context) (*trainer.Trainer, error) {
	return s.trainers.Get(c.Param("learner"))
}

// peek is for read-only handlers, it does not register new learners
func (s *Server) peek(c echo.Context) (*trainer.Trainer, error) {
	return s.trainers.Peek(c.Param("learner"))
}
