package measurementService

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/ironsheep/box-measure/internal/api/measurement"
	"github.com/ironsheep/box-measure/internal/measure"
)

func (s *measurementService) MeasureBase64(ctx context.Context, image string, markerWidthCM float64) (*measure.Result, error) {
	data, err := decodeBase64(image)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", measurement.ErrInvalidImage, err)
	}
	return s.MeasureImage(ctx, data, markerWidthCM)
}

func (s *measurementService) MeasureImage(ctx context.Context, data []byte, markerWidthCM float64) (*measure.Result, error) {
	if err := s.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for a measurement slot: %w", err)
	}
	defer s.slots.Release(1)

	return s.measurer.Measure(data, markerWidthCM)
}

// decodeBase64 accepts standard base64 with or without padding, optionally
// behind a data URL prefix such as "data:image/png;base64,". Whitespace is
// ignored.
func decodeBase64(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	s = strings.Join(strings.Fields(s), "")

	data, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return data, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "=")); rawErr == nil {
		return raw, nil
	}
	return nil, err
}
