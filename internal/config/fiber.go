package config

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/box-measure/internal/handlerutil"
)

func NewFiber(cfg *Config, logger *logrus.Logger) *fiber.App {
	app := fiber.New(
		fiber.Config{
			AppName:               "Box Measure",
			BodyLimit:             cfg.BodyLimitMB * 1024 * 1024,
			DisableKeepalive:      false,
			StrictRouting:         true,
			CaseSensitive:         true,
			DisableStartupMessage: cfg.Env == "test",
			JSONEncoder:           jsoniter.Marshal,
			JSONDecoder:           jsoniter.Unmarshal,
			ErrorHandler:          newErrorHandler(logger),
		})

	return app
}

// newErrorHandler answers errors that escaped the handlers, including
// recovered panics, with the same {"erro": ...} body the handlers use.
func newErrorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := handlerutil.InternalErrorMessage

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}

		if code >= fiber.StatusInternalServerError {
			logger.WithError(err).WithField("path", c.Path()).Error("Unhandled error")
		}

		return c.Status(code).JSON(fiber.Map{handlerutil.ErrorKey: message})
	}
}
