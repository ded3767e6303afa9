// Package httpapi exposes manual triggers and feedback endpoints over HTTP.
package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"newsagent/internal/domain"
	"newsagent/internal/reputation"
	"newsagent/internal/service"
)

type TaskRunner interface {
	Crawl(ctx context.Context) (*service.Result, error)
	Deliver(ctx context.Context) (*service.Result, error)
}

type StatusUpdater interface {
	Update(ctx context.Context, upd domain.StatusUpdate) (*domain.Article, error)
}

type ArticleSummarizer interface {
	Summarize(ctx context.Context, url string) (*domain.Article, error)
}

type ReputationReporter interface {
	Ranking(ctx context.Context, top int) ([]reputation.DomainStats, error)
}

type Options struct {
	Addr            string
	CronSecret      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type Server struct {
	tasks      TaskRunner
	status     StatusUpdater
	summary    ArticleSummarizer
	reputation ReputationReporter
	logger     *slog.Logger
	opts       Options
}

func NewServer(
	tasks TaskRunner,
	status StatusUpdater,
	summary ArticleSummarizer,
	reputation ReputationReporter,
	logger *slog.Logger,
	opts Options,
) *Server {
	if strings.TrimSpace(opts.Addr) == "" {
		opts.Addr = ":8080"
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 15 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Minute
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	return &Server{
		tasks:      tasks,
		status:     status,
		summary:    summary,
		reputation: reputation,
		logger:     logger.With("component", "http"),
		opts:       opts,
	}
}

// Handler builds the echo instance with every route registered.
func (s *Server) Handler() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				s.logger.Error("http request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			s.logger.Info("http request", attrs...)
			return nil
		},
	}))

	api := e.Group("/api")
	api.GET("/health", s.handleHealth)
	api.PATCH("/articles/status", s.handleStatus)
	api.POST("/articles/summary", s.handleSummary)
	api.GET("/reputation", s.handleReputation)

	cron := api.Group("/cron", middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup:  "header:" + echo.HeaderAuthorization,
		AuthScheme: "Bearer",
		Validator:  s.validateCronSecret,
		ErrorHandler: func(err error, c echo.Context) error {
			return fail(c, http.StatusUnauthorized, "Unauthorized", nil)
		},
	}))
	cron.POST("/crawl", s.handleCrawl)
	cron.POST("/deliver", s.handleDeliver)

	return e
}

func (s *Server) Start(ctx context.Context) error {
	e := s.Handler()
	httpServer := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("server shutdown failed", "error", err)
		}
	}()

	s.logger.Info("http server started", "addr", s.opts.Addr)

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

// An empty secret disables the cron routes.
func (s *Server) validateCronSecret(key string, _ echo.Context) (bool, error) {
	if s.opts.CronSecret == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(s.opts.CronSecret)) == 1, nil
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if v, ok := he.Message.(string); ok && strings.TrimSpace(v) != "" {
			message = v
		} else if text := http.StatusText(status); text != "" {
			message = text
		}
	}

	if status >= 500 {
		_ = internalError(c, "Internal server error")
		return
	}
	_ = fail(c, status, message, nil)
}
