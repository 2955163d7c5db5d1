package measurementHandler

import (
	"context"
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ironsheep/box-measure/internal/api/measurement"
	"github.com/ironsheep/box-measure/internal/handlerutil"
	"github.com/ironsheep/box-measure/internal/log"
	"github.com/ironsheep/box-measure/internal/measure"
)

// ProcessImage measures the box in an uploaded photo. The image comes either
// as a multipart file field "image" or as base64 in a JSON body.
func (h *MeasurementHandler) ProcessImage(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(ctx.UserContext(), h.timeout)
	defer cancel()

	errHandler := handlerutil.New(h.log)
	markerWidthCM := h.markerWidthCM

	var result *measure.Result

	file, err := ctx.FormFile("image")
	if err == nil {
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
			"file_name":  file.Filename,
			"file_size":  file.Size,
		}).Debug("Processing file upload")

		if v := ctx.FormValue("marker_width_cm"); v != "" {
			w, err := strconv.ParseFloat(v, 64)
			if err != nil || !(w > 0) {
				return errHandler.Handle(ctx, requestID, measurement.ErrInvalidMarkerWidth, ctx.Path(), "parse_marker_width")
			}
			markerWidthCM = w
		}

		fileContent, err := file.Open()
		if err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "open_file")
		}
		defer fileContent.Close()

		data, err := io.ReadAll(fileContent)
		if err != nil {
			return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_file")
		}

		result, err = h.measurementService.MeasureImage(c, data, markerWidthCM)
		if err != nil {
			return errHandler.Handle(ctx, requestID, measurement.FromDomain(err), ctx.Path(), "measure")
		}
	} else {
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
		}).Debug("Processing JSON request")

		var req measurement.MeasureRequest
		if err := ctx.BodyParser(&req); err != nil {
			return errHandler.Handle(ctx, requestID, measurement.ErrImageMissing, ctx.Path(), "parse_request_body")
		}
		if req.Image == "" {
			return errHandler.Handle(ctx, requestID, measurement.ErrImageMissing, ctx.Path(), "parse_request_body")
		}

		if err := h.validator.Struct(req); err != nil {
			return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
		}
		if req.MarkerWidthCM != nil {
			markerWidthCM = *req.MarkerWidthCM
		}

		result, err = h.measurementService.MeasureBase64(c, req.Image, markerWidthCM)
		if err != nil {
			return errHandler.Handle(ctx, requestID, measurement.FromDomain(err), ctx.Path(), "measure")
		}
	}

	h.log.WithFields(log.Fields{
		"request_id":    requestID,
		"path":          ctx.Path(),
		"length":        result.LengthCM,
		"width":         result.WidthCM,
		"height":        result.HeightCM,
		"pixels_per_cm": result.Details.PixelsPerCM,
	}).Info("Measurement successful")

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, measurement.MeasureResponse{
		Length: result.LengthCM,
		Width:  result.WidthCM,
		Height: result.HeightCM,
	})
}
