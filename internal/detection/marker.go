package detection

import (
	"fmt"
	"strings"
)

// Strategy selects how the reference marker is picked among the contours.
type Strategy string

const (
	// StrategyWindow picks the first contour whose aspect ratio and area both
	// fall strictly inside the MarkerCriteria window.
	StrategyWindow Strategy = "window"

	// StrategySmallest picks the contour with the smallest area.
	StrategySmallest Strategy = "smallest"
)

// ParseStrategy converts a configuration value to a Strategy.
// An empty value yields StrategyWindow.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyWindow:
		return StrategyWindow, nil
	case StrategySmallest:
		return StrategySmallest, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// MarkerCriteria is the acceptance window used by StrategyWindow.
// All bounds are exclusive.
type MarkerCriteria struct {
	MinAspect float64
	MaxAspect float64
	MinArea   float64
	MaxArea   float64
}

// DefaultMarkerCriteria accepts near-square contours with an area between
// 500 and 5000 square pixels.
func DefaultMarkerCriteria() MarkerCriteria {
	return MarkerCriteria{
		MinAspect: 0.9,
		MaxAspect: 1.1,
		MinArea:   500,
		MaxArea:   5000,
	}
}

// Accepts reports whether c falls strictly inside the window.
func (m MarkerCriteria) Accepts(c Contour) bool {
	if c.Bounds.Height == 0 {
		return false
	}
	aspect := c.AspectRatio()
	return aspect > m.MinAspect && aspect < m.MaxAspect &&
		c.Area > m.MinArea && c.Area < m.MaxArea
}

// MarkerOptions configures LocateMarker.
type MarkerOptions struct {
	Strategy Strategy
	Criteria MarkerCriteria
}

// DefaultMarkerOptions returns StrategyWindow with DefaultMarkerCriteria.
func DefaultMarkerOptions() MarkerOptions {
	return MarkerOptions{
		Strategy: StrategyWindow,
		Criteria: DefaultMarkerCriteria(),
	}
}

// Marker is the contour chosen as the reference marker.
type Marker struct {
	Contour Contour `json:"contour"`

	// Index of the contour in the extractor's enumeration.
	Index int `json:"index"`

	// WidthPx is the bounding-box width of the marker in pixels.
	WidthPx int `json:"width_px"`
}

// LocateMarker picks the reference marker among contours.
//
// With StrategyWindow it returns the first contour, in enumeration order,
// accepted by opts.Criteria, or ErrMarkerNotFound. With StrategySmallest it
// returns the contour of smallest area (the first one on ties), or
// ErrMarkerMeasurement if that contour has a zero-width bounding box.
func LocateMarker(contours []Contour, opts MarkerOptions) (*Marker, error) {
	if len(contours) == 0 {
		return nil, ErrNoContour
	}

	switch opts.Strategy {
	case "", StrategyWindow:
		for i, c := range contours {
			if opts.Criteria.Accepts(c) {
				return &Marker{Contour: c, Index: i, WidthPx: c.Bounds.Width}, nil
			}
		}
		return nil, ErrMarkerNotFound

	case StrategySmallest:
		best := 0
		for i, c := range contours[1:] {
			if c.Area < contours[best].Area {
				best = i + 1
			}
		}
		c := contours[best]
		if c.Bounds.Width == 0 {
			return nil, ErrMarkerMeasurement
		}
		return &Marker{Contour: c, Index: best, WidthPx: c.Bounds.Width}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, opts.Strategy)
	}
}
