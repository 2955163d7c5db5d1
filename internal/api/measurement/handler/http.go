package measurementHandler

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	measurementService "github.com/ironsheep/box-measure/internal/api/measurement/service"
	"github.com/ironsheep/box-measure/internal/middleware"
)

type MeasurementHandler struct {
	log                *logrus.Logger
	validator          *validator.Validate
	middleware         middleware.Middleware
	measurementService measurementService.IMeasurementService
	markerWidthCM      float64
	timeout            time.Duration
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	ms measurementService.IMeasurementService,
	markerWidthCM float64,
	timeout time.Duration,
) *MeasurementHandler {
	return &MeasurementHandler{
		log:                log,
		validator:          validator,
		middleware:         middleware,
		measurementService: ms,
		markerWidthCM:      markerWidthCM,
		timeout:            timeout,
	}
}

func (h *MeasurementHandler) Start(srv fiber.Router) {
	srv.Post("/processar-imagem", h.middleware.NewRateLimiter, h.ProcessImage)
}
