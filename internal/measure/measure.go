package measure

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/box-measure/internal/detection"
	"github.com/ironsheep/box-measure/internal/imaging"
	"github.com/ironsheep/box-measure/internal/log"
)

// DefaultMarkerWidthCM is the physical width of the reference square.
const DefaultMarkerWidthCM = 5.0

// Result is a successful measurement.
type Result struct {
	LengthCM float64 `json:"length"`
	WidthCM  float64 `json:"width"`
	HeightCM float64 `json:"height"`

	// HeightEstimated is always true: the height is derived from the other
	// two sides, not measured.
	HeightEstimated bool `json:"height_estimated"`

	Details Details `json:"details"`
}

// Details records how a Result was obtained.
type Details struct {
	PixelsPerCM   float64        `json:"pixels_per_cm"`
	MarkerWidthCM float64        `json:"marker_width_cm"`
	ImageWidth    int            `json:"image_width"`
	ImageHeight   int            `json:"image_height"`
	ContourCount  int            `json:"contour_count"`
	MarkerIndex   int            `json:"marker_index"`
	MarkerBounds  detection.Rect `json:"marker_bounds"`
	BoxIndex      int            `json:"box_index"`
	BoxBounds     detection.Rect `json:"box_bounds"`
}

// Analysis is everything the pipeline produced for one image, including
// intermediate stages, for debugging surfaces.
type Analysis struct {
	Image    image.Image
	Contours []detection.Contour
	Marker   *detection.Marker
	Box      *detection.Box
	Result   *Result

	// Err is the first stage failure, nil on success.
	Err error
}

// Option configures a Measurer.
type Option func(*Measurer)

// WithExtractor sets the contour extractor. Defaults to the native one.
func WithExtractor(e detection.Extractor) Option {
	return func(m *Measurer) {
		m.extractor = e
	}
}

// WithMarkerOptions sets the marker selection strategy and window.
func WithMarkerOptions(opts detection.MarkerOptions) Option {
	return func(m *Measurer) {
		m.marker = opts
	}
}

// WithLogger sets the logger. Defaults to a discarding logger; nil keeps
// the default.
func WithLogger(logger *logrus.Logger) Option {
	return func(m *Measurer) {
		if logger != nil {
			m.log = logger
		}
	}
}

// Measurer runs the measurement pipeline. It holds only configuration and
// is safe for concurrent use.
type Measurer struct {
	extractor detection.Extractor
	marker    detection.MarkerOptions
	log       *logrus.Logger
}

// New returns a Measurer with the native extractor and the window marker
// strategy unless overridden by opts.
func New(opts ...Option) *Measurer {
	m := &Measurer{
		extractor: detection.NewNativeExtractor(),
		marker:    detection.DefaultMarkerOptions(),
		log:       log.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MarkerOptions returns the marker selection settings the pipeline uses.
func (m *Measurer) MarkerOptions() detection.MarkerOptions {
	return m.marker
}

// Measure estimates the box dimensions in an encoded image.
//
// # Errors
//
//   - ErrDecode if data is not a supported image
//   - ErrNoContour if the image has no edges
//   - ErrMarkerNotFound if no contour qualifies as the marker
//   - ErrMarkerMeasurement if the selected marker has zero width
//   - ErrScale if no finite scale can be derived
func (m *Measurer) Measure(data []byte, markerWidthCM float64) (*Result, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}

	a := m.Analyze(img, markerWidthCM)
	if a.Err != nil {
		return nil, a.Err
	}
	return a.Result, nil
}

// Inspect decodes data and runs the pipeline, keeping every intermediate
// stage. The returned error is only set for decode failures; later failures
// are reported in Analysis.Err.
func (m *Measurer) Inspect(data []byte, markerWidthCM float64) (*Analysis, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return m.Analyze(img, markerWidthCM), nil
}

// Analyze runs the pipeline on an already decoded image.
func (m *Measurer) Analyze(img image.Image, markerWidthCM float64) *Analysis {
	start := time.Now()
	a := &Analysis{Image: img}

	a.Err = m.run(a, markerWidthCM)

	fields := log.Fields{
		"width":      img.Bounds().Dx(),
		"height":     img.Bounds().Dy(),
		"contours":   len(a.Contours),
		"latency_ms": time.Since(start).Milliseconds(),
	}
	if a.Err != nil {
		m.log.WithFields(fields).WithError(a.Err).Debug("Measurement failed")
	} else {
		m.log.WithFields(fields).Debugf("Measured %.1f x %.1f x %.1f cm",
			a.Result.LengthCM, a.Result.WidthCM, a.Result.HeightCM)
	}

	return a
}

func (m *Measurer) run(a *Analysis, markerWidthCM float64) error {
	contours, err := m.extractor.Contours(a.Image)
	if err != nil {
		return err
	}
	if len(contours) == 0 {
		return ErrNoContour
	}
	a.Contours = contours

	marker, err := detection.LocateMarker(contours, m.marker)
	if err != nil {
		return err
	}
	a.Marker = marker

	box, err := detection.SelectBox(contours)
	if err != nil {
		return err
	}
	a.Box = box

	ppcm, err := PixelsPerCM(marker.WidthPx, markerWidthCM)
	if err != nil {
		return err
	}

	dims, err := ComputeDimensions(box.WidthPx, box.HeightPx, ppcm)
	if err != nil {
		return err
	}

	bounds := a.Image.Bounds()
	a.Result = &Result{
		LengthCM:        dims.Length,
		WidthCM:         dims.Width,
		HeightCM:        dims.Height,
		HeightEstimated: true,
		Details: Details{
			PixelsPerCM:   ppcm,
			MarkerWidthCM: markerWidthCM,
			ImageWidth:    bounds.Dx(),
			ImageHeight:   bounds.Dy(),
			ContourCount:  len(contours),
			MarkerIndex:   marker.Index,
			MarkerBounds:  marker.Contour.Bounds,
			BoxIndex:      box.Index,
			BoxBounds:     box.Contour.Bounds,
		},
	}
	return nil
}

// Decode wraps imaging.Decode so every failure matches ErrDecode.
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return img, nil
}

var (
	markerColor = color.RGBA{0, 200, 0, 255}
	boxColor    = color.RGBA{230, 0, 0, 255}
)

// Annotate draws the analysis over its image: every contour in a distinct
// thin color, the box in red and the marker in green. The returned image
// bounds start at (0, 0), like the edge map the contours come from.
func Annotate(a *Analysis) *image.RGBA {
	palette := imaging.Palette(len(a.Contours))

	outlines := make([]imaging.Outline, 0, len(a.Contours)+2)
	for i, c := range a.Contours {
		outlines = append(outlines, imaging.Outline{
			Points:    c.ImagePoints(),
			Color:     palette[i],
			Thickness: 1,
		})
	}
	if a.Box != nil {
		outlines = append(outlines, imaging.Outline{
			Box:       a.Box.Contour.Bounds.Rectangle(),
			Color:     boxColor,
			Thickness: 3,
		})
	}
	if a.Marker != nil {
		outlines = append(outlines, imaging.Outline{
			Box:       a.Marker.Contour.Bounds.Rectangle(),
			Color:     markerColor,
			Thickness: 3,
		})
	}

	return imaging.Annotate(a.Image, outlines)
}
