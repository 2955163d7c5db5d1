//go:build !gocv
// +build !gocv

package detection

import "image"

// OpenCVExtractor is a placeholder for builds without the gocv tag.
type OpenCVExtractor struct{}

// NewOpenCVExtractor returns ErrBackendUnavailable unless the binary was
// built with -tags gocv.
func NewOpenCVExtractor() (*OpenCVExtractor, error) {
	return nil, ErrBackendUnavailable
}

// Contours always returns ErrBackendUnavailable.
func (e *OpenCVExtractor) Contours(img image.Image) ([]Contour, error) {
	return nil, ErrBackendUnavailable
}
