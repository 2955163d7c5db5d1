package measure

import (
	"errors"

	"github.com/ironsheep/box-measure/internal/detection"
)

var (
	// ErrDecode means the input bytes are not a supported image.
	ErrDecode = errors.New("could not decode image")

	// ErrScale means no finite pixels-per-centimeter scale can be derived,
	// either because the marker is zero pixels wide or because the marker
	// width in centimeters is not a positive number.
	ErrScale = errors.New("invalid scale")
)

// Detection failures, re-exported so callers only need this package.
var (
	ErrNoContour         = detection.ErrNoContour
	ErrMarkerNotFound    = detection.ErrMarkerNotFound
	ErrMarkerMeasurement = detection.ErrMarkerMeasurement
)

// IsClientError reports whether err is one of the expected pipeline
// failures caused by the input rather than by the service.
func IsClientError(err error) bool {
	return errors.Is(err, ErrDecode) ||
		errors.Is(err, ErrNoContour) ||
		errors.Is(err, ErrMarkerNotFound) ||
		errors.Is(err, ErrMarkerMeasurement) ||
		errors.Is(err, ErrScale)
}
