package measure

import (
	"fmt"
	"math"
)

// Dimensions are box measurements in centimeters, one decimal each.
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PixelsPerCM derives the image scale from the marker's pixel width and its
// known physical width.
func PixelsPerCM(markerWidthPx int, markerWidthCM float64) (float64, error) {
	if markerWidthPx <= 0 {
		return 0, fmt.Errorf("%w: marker is %d px wide", ErrScale, markerWidthPx)
	}
	if math.IsNaN(markerWidthCM) || math.IsInf(markerWidthCM, 0) || markerWidthCM <= 0 {
		return 0, fmt.Errorf("%w: marker width must be a positive number of centimeters, got %v", ErrScale, markerWidthCM)
	}
	return float64(markerWidthPx) / markerWidthCM, nil
}

// ComputeDimensions converts the box's pixel size to centimeters.
//
// Length comes from the horizontal extent and width from the vertical one.
// Height is not observed: it is half the smaller of the two rounded sides.
func ComputeDimensions(boxWidthPx, boxHeightPx int, pixelsPerCM float64) (Dimensions, error) {
	if math.IsNaN(pixelsPerCM) || math.IsInf(pixelsPerCM, 0) || pixelsPerCM <= 0 {
		return Dimensions{}, fmt.Errorf("%w: %v pixels per cm", ErrScale, pixelsPerCM)
	}

	length := Round1(float64(boxWidthPx) / pixelsPerCM)
	width := Round1(float64(boxHeightPx) / pixelsPerCM)

	return Dimensions{
		Length: length,
		Width:  width,
		Height: EstimateHeight(length, width),
	}, nil
}

// EstimateHeight is the height heuristic: half the smaller side, rounded.
func EstimateHeight(length, width float64) float64 {
	return Round1(math.Min(length, width) / 2)
}

// Round1 rounds to one decimal place, halves away from zero.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
