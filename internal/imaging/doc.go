// Package imaging provides the raster stages of box measurement: decoding,
// preprocessing into a binary edge map, and drawing annotations.
//
// All operations work with standard Go image.Image types and use a coordinate
// system where (0,0) is at the top-left corner, X increases rightward, and Y
// increases downward. Images produced by this package always have bounds
// starting at (0,0).
//
// # Preprocessing
//
// Preprocess reproduces the classic OpenCV chain used for contour work:
//
//	grayscale -> 5x5 Gaussian blur -> Canny(50, 150) -> optional 3x3 closing
//
// Grayscale conversion goes through disintegration/imaging. The blur and the
// Sobel pass of Canny are split across CPUs with bild's parallel package.
//
// # Thread Safety
//
// Every function is stateless and may be called concurrently. Inputs are
// never modified.
package imaging
