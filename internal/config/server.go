package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/box-measure/internal/api/measurement"
	measurementHandler "github.com/ironsheep/box-measure/internal/api/measurement/handler"
	measurementService "github.com/ironsheep/box-measure/internal/api/measurement/service"
	"github.com/ironsheep/box-measure/internal/measure"
	"github.com/ironsheep/box-measure/internal/middleware"
)

type ServerOption func(*Server) error

type Server struct {
	engine     *fiber.App
	cfg        *Config
	log        *logrus.Logger
	middleware middleware.Middleware
	validator  *validator.Validate
	measurer   *measure.Measurer
	handlers   []handler
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.cfg == nil {
		server.cfg = Default()
	}
	if server.validator == nil {
		server.validator = NewValidator()
	}
	if server.middleware == nil {
		server.middleware = middleware.New(server.log, middleware.Options{})
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithConfig(cfg *Config) ServerOption {
	return func(s *Server) error {
		s.cfg = cfg
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		opts := middleware.Options{}
		if s.cfg != nil {
			opts.RequestsPerSecond = s.cfg.RateLimitRPS
			opts.Burst = s.cfg.RateLimitBurst
		}
		s.middleware = middleware.New(s.log, opts)
		return nil
	}
}

// WithMeasurer sets the pipeline. Without it, RegisterHandler builds one
// from the configuration.
func WithMeasurer(m *measure.Measurer) ServerOption {
	return func(s *Server) error {
		s.measurer = m
		return nil
	}
}

// RegisterHandler wires global middleware and every route. It must run
// once, before Run or App.
func (s *Server) RegisterHandler() error {
	if s.measurer == nil {
		m, err := NewMeasurer(s.cfg, s.log)
		if err != nil {
			return err
		}
		s.measurer = m
	}

	s.engine.Use(recover.New(recover.Config{EnableStackTrace: s.cfg.Env != "production"}))
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware)

	// Measurement
	measurementServices := measurementService.NewMeasurementService(s.log, s.measurer, s.cfg.MaxConcurrent)
	measurementHandlers := measurementHandler.New(s.log, s.validator, s.middleware, measurementServices, s.cfg.MarkerWidthCM, s.cfg.RequestTimeout)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, measurementHandlers)

	for _, h := range s.handlers {
		h.Start(s.engine)
	}
	return nil
}

// App exposes the fiber app, mainly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.engine
}

func (s *Server) Run() error {
	s.log.WithField("addr", s.cfg.Addr()).Info("HTTP server listening")
	return s.engine.Listen(s.cfg.Addr())
}

func (s *Server) Shutdown(timeout time.Duration) error {
	return s.engine.ShutdownWithTimeout(timeout)
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.JSON(measurement.HealthResponse{Status: "ok"})
	})
}
