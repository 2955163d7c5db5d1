package detection

import "errors"

var (
	// ErrNoContour means the edge map holds no contour at all, typically a
	// blank or heavily blurred photo.
	ErrNoContour = errors.New("no contour found")

	// ErrMarkerNotFound means no contour passed the marker selection rule.
	ErrMarkerNotFound = errors.New("reference marker not found")

	// ErrMarkerMeasurement means a marker was selected but its bounding box
	// has zero width, so it cannot define a scale.
	ErrMarkerMeasurement = errors.New("reference marker has zero width")

	// ErrBackendUnavailable is returned when a detection backend was not
	// compiled into the binary.
	ErrBackendUnavailable = errors.New("detection backend unavailable")

	// ErrUnknownBackend is returned by NewExtractor for an unrecognized name.
	ErrUnknownBackend = errors.New("unknown detection backend")

	// ErrUnknownStrategy is returned for an unrecognized marker strategy.
	ErrUnknownStrategy = errors.New("unknown marker strategy")
)
