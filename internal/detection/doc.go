// Package detection finds contours in an edge map and picks out the
// reference marker and the box to be measured.
//
// # Pipeline
//
// An Extractor turns a color image into a list of external contours:
//
//  1. Preprocessing into a binary edge map (see imaging.Preprocess)
//  2. Border following over the edge map, outer borders only
//  3. Enumeration in raster order of each contour's first pixel
//
// LocateMarker then selects the marker and SelectBox the box. Both work on
// the same contour list and never look at the image again.
//
// # Backends
//
// NativeExtractor is pure Go and always available. OpenCVExtractor wraps
// gocv and is only compiled with the gocv build tag; without it,
// NewExtractor("opencv") returns ErrBackendUnavailable.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Rect widths and heights count pixels inclusively
package detection
