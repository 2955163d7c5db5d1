package measurementService

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/ironsheep/box-measure/internal/measure"
)

type IMeasurementService interface {
	MeasureBase64(ctx context.Context, image string, markerWidthCM float64) (*measure.Result, error)
	MeasureImage(ctx context.Context, data []byte, markerWidthCM float64) (*measure.Result, error)
}

type measurementService struct {
	log      *logrus.Logger
	measurer *measure.Measurer
	slots    *semaphore.Weighted
}

// NewMeasurementService runs at most maxConcurrent measurements at a time.
func NewMeasurementService(log *logrus.Logger, measurer *measure.Measurer, maxConcurrent int) IMeasurementService {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &measurementService{
		log:      log,
		measurer: measurer,
		slots:    semaphore.NewWeighted(int64(maxConcurrent)),
	}
}
