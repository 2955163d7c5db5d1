//go:build gocv
// +build gocv

package detection

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/clone"
	"gocv.io/x/gocv"
)

// OpenCVExtractor runs the preprocessing and contour search through OpenCV.
type OpenCVExtractor struct {
	KernelSize    int
	LowThreshold  float32
	HighThreshold float32
}

// NewOpenCVExtractor returns an OpenCVExtractor with a 5x5 Gaussian and
// Canny thresholds 50/150.
func NewOpenCVExtractor() (*OpenCVExtractor, error) {
	return &OpenCVExtractor{
		KernelSize:    5,
		LowThreshold:  50,
		HighThreshold: 150,
	}, nil
}

// Contours implements Extractor.
func (e *OpenCVExtractor) Contours(img image.Image) ([]Contour, error) {
	rgba := clone.AsRGBA(img)
	bounds := rgba.Bounds()

	mat, err := gocv.NewMatFromBytes(bounds.Dy(), bounds.Dx(), gocv.MatTypeCV8UC4, rgba.Pix)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(mat, &bgr, gocv.ColorRGBAToBGR)

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(bgr, &gray, gocv.ColorBGRToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{e.KernelSize, e.KernelSize}, 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blurred, &edges, e.LowThreshold, e.HighThreshold)

	found := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer found.Close()

	if found.Size() == 0 {
		return nil, ErrNoContour
	}

	contours := make([]Contour, 0, found.Size())
	for i := 0; i < found.Size(); i++ {
		pv := found.At(i)
		raw := pv.ToPoints()
		points := make([]Point, len(raw))
		for j, p := range raw {
			points[j] = Point{X: p.X, Y: p.Y}
		}
		c := NewContour(points)
		c.Area = gocv.ContourArea(pv)
		contours = append(contours, c)
	}

	SortRaster(contours)
	return contours, nil
}
