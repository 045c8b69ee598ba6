// Package api exposes the pipeline over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"NewsNarrator/internal/domain"
	"NewsNarrator/internal/ports"
)

// NewsService is the slice of the pipeline the handlers drive.
type NewsService interface {
	Run(ctx context.Context, company string) (domain.Run, error)
	Narrate(ctx context.Context, run domain.Run) ([]domain.AudioArtifact, error)
	NarrateText(ctx context.Context, text string) (domain.AudioArtifact, error)
	LoadRun(ctx context.Context, id string) (domain.Run, error)
}

// Deps wires the server.
type Deps struct {
	Service NewsService
	Audio   ports.AudioStore
	Metrics http.Handler
	Logger  *slog.Logger
}

// NewServer builds the echo instance with all routes registered.
func NewServer(deps Deps) *echo.Echo {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/metrics"
		},
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			rctx := c.Request().Context()
			if v.Error == nil {
				logger.InfoContext(rctx, "request completed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				logger.ErrorContext(rctx, "request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}
			return nil
		},
	}))
	e.Use(middleware.Recover())

	h := &handler{service: deps.Service, audio: deps.Audio, logger: logger}
	e.GET("/", h.root)
	e.GET("/news/:company", h.news)
	e.GET("/news/:company/report", h.report)
	e.POST("/generate_audio/", h.generateAudio)
	e.GET("/audio/:run/:file", h.serveAudio)
	e.GET("/runs/:id", h.run)
	if deps.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(deps.Metrics))
	}
	return e
}

type detailResponse struct {
	Detail string `json:"detail"`
}

func detail(c echo.Context, code int, msg string) error {
	return c.JSON(code, detailResponse{Detail: msg})
}

// statusFor maps service errors that escaped the pipeline to HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
