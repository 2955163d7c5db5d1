package config

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/box-measure/internal/detection"
	"github.com/ironsheep/box-measure/internal/measure"
)

// NewMeasurer builds the measurement pipeline selected by cfg.
func NewMeasurer(cfg *Config, logger *logrus.Logger) (*measure.Measurer, error) {
	extractor, err := detection.NewExtractor(cfg.DetectionBackend)
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}

	strategy, err := detection.ParseStrategy(cfg.MarkerStrategy)
	if err != nil {
		return nil, err
	}

	markerOpts := detection.DefaultMarkerOptions()
	markerOpts.Strategy = strategy

	return measure.New(
		measure.WithExtractor(extractor),
		measure.WithMarkerOptions(markerOpts),
		measure.WithLogger(logger),
	), nil
}
