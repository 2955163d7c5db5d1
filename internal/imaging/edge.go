package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/disintegration/imaging"
)

// EdgeOptions configures Preprocess.
type EdgeOptions struct {
	// KernelSize is the Gaussian kernel side length. Must be odd; values
	// below 3 disable smoothing.
	KernelSize int

	// LowThreshold and HighThreshold are the Canny hysteresis thresholds on
	// the 0-255 intensity scale.
	LowThreshold  float64
	HighThreshold float64

	// CloseGaps applies a 3x3 morphological closing to the edge map so that
	// small breaks at shape corners do not leave a border open.
	CloseGaps bool
}

// DefaultEdgeOptions returns the settings used by the measurement pipeline:
// a 5x5 Gaussian, thresholds 50/150 and gap closing enabled.
func DefaultEdgeOptions() EdgeOptions {
	return EdgeOptions{
		KernelSize:    5,
		LowThreshold:  50,
		HighThreshold: 150,
		CloseGaps:     true,
	}
}

// MaxKernelSize bounds EdgeOptions.KernelSize. Blur cost grows linearly
// with the kernel side.
const MaxKernelSize = 31

// ErrInvalidEdgeOptions is returned by EdgeOptions.Validate.
var ErrInvalidEdgeOptions = errors.New("invalid edge options")

// Validate checks that the kernel size is 0, 1 or an odd value in
// [3, MaxKernelSize] and that the thresholds are finite, non-negative and
// ordered.
func (o EdgeOptions) Validate() error {
	switch {
	case o.KernelSize < 0 || o.KernelSize > MaxKernelSize:
		return fmt.Errorf("%w: kernel size %d outside [0, %d]", ErrInvalidEdgeOptions, o.KernelSize, MaxKernelSize)
	case o.KernelSize >= 3 && o.KernelSize%2 == 0:
		return fmt.Errorf("%w: kernel size %d must be odd", ErrInvalidEdgeOptions, o.KernelSize)
	case math.IsNaN(o.LowThreshold) || math.IsInf(o.LowThreshold, 0) || o.LowThreshold < 0:
		return fmt.Errorf("%w: low threshold %v", ErrInvalidEdgeOptions, o.LowThreshold)
	case math.IsNaN(o.HighThreshold) || math.IsInf(o.HighThreshold, 0) || o.HighThreshold < 0:
		return fmt.Errorf("%w: high threshold %v", ErrInvalidEdgeOptions, o.HighThreshold)
	case o.LowThreshold > o.HighThreshold:
		return fmt.Errorf("%w: low threshold %v exceeds high threshold %v", ErrInvalidEdgeOptions, o.LowThreshold, o.HighThreshold)
	}
	return nil
}

// Preprocess converts a color image into a binary edge map of the same size.
//
// The returned image holds 255 for edge pixels and 0 elsewhere. Its bounds
// always start at (0, 0), whatever the bounds of the input.
//
// # Algorithm
//
//  1. Grayscale conversion with ITU-R BT.601 weights (0.299R + 0.587G + 0.114B)
//  2. Gaussian blur, see GaussianBlur
//  3. Canny edge detection, see Canny
//  4. Optional gap closing, see CloseGaps
func Preprocess(img image.Image, opts EdgeOptions) *image.Gray {
	gray := Grayscale(img)
	blurred := GaussianBlur(gray, opts.KernelSize)
	edges := Canny(blurred, opts.LowThreshold, opts.HighThreshold)
	if opts.CloseGaps {
		edges = CloseGaps(edges)
	}
	return edges
}

// Grayscale converts img to single-channel intensity with BT.601 luma
// weights. Alpha is ignored.
func Grayscale(img image.Image) *image.Gray {
	nrgba := imaging.Grayscale(img)
	bounds := nrgba.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	gray := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		src := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+width*4]
		dst := gray.Pix[y*gray.Stride : y*gray.Stride+width]
		for x := 0; x < width; x++ {
			// imaging.Grayscale writes the luma value into all three channels.
			dst[x] = src[x*4]
		}
	}
	return gray
}

// gaussianSigma derives the standard deviation from the kernel size using
// the same rule as OpenCV's getGaussianKernel when sigma is left at 0.
func gaussianSigma(ksize int) float64 {
	return 0.3*(float64(ksize-1)*0.5-1) + 0.8
}

// gaussianKernel returns a normalized 1D Gaussian kernel of length ksize.
func gaussianKernel(ksize int) []float64 {
	sigma := gaussianSigma(ksize)
	kernel := make([]float64, ksize)
	center := float64(ksize-1) / 2
	var sum float64
	for i := range kernel {
		d := float64(i) - center
		kernel[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// GaussianBlur smooths a grayscale image with a ksize x ksize Gaussian.
//
// The kernel is separable: a horizontal pass and a vertical pass run in
// float64 and the result is rounded to 8 bits once, at the end. Border pixels
// are replicated. For ksize 5 the derived sigma is 1.1.
func GaussianBlur(src *image.Gray, ksize int) *image.Gray {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	dst := image.NewGray(image.Rect(0, 0, width, height))

	if ksize < 3 {
		for y := 0; y < height; y++ {
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+width], src.Pix[y*src.Stride:y*src.Stride+width])
		}
		return dst
	}
	if ksize%2 == 0 {
		ksize++
	}

	kernel := gaussianKernel(ksize)
	radius := ksize / 2

	horizontal := make([]float64, width*height)
	parallel.Line(height, func(start, end int) {
		for y := start; y < end; y++ {
			row := src.Pix[y*src.Stride:]
			for x := 0; x < width; x++ {
				var sum float64
				for k := -radius; k <= radius; k++ {
					sum += float64(row[clamp(x+k, 0, width-1)]) * kernel[k+radius]
				}
				horizontal[y*width+x] = sum
			}
		}
	})

	parallel.Line(height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < width; x++ {
				var sum float64
				for k := -radius; k <= radius; k++ {
					sum += horizontal[clamp(y+k, 0, height-1)*width+x] * kernel[k+radius]
				}
				dst.Pix[y*dst.Stride+x] = uint8(clamp(int(math.Round(sum)), 0, 255))
			}
		}
	})

	return dst
}

// Canny runs Canny edge detection on an already smoothed grayscale image.
//
// # Algorithm
//
//  1. Gradient computation: 3x3 Sobel operators on the 8-bit intensities,
//     L1 magnitude |Gx| + |Gy|, the OpenCV default
//  2. Non-maximum suppression: keep pixels that are local maxima along the
//     gradient direction, quantized to 0°, 45°, 90° and 135°. When a pixel
//     and its neighbour have exactly the same magnitude, the one whose
//     intensity is farther from the background level wins. The background
//     level is the median of the one-pixel image frame. A filled shape N
//     pixels wide therefore yields edges spanning N pixels whether it is
//     darker or lighter than its surroundings
//  3. Hysteresis: pixels above high are edges; pixels above low are edges
//     when 8-connected, possibly through other such pixels, to a strong one
//
// The one-pixel image border never carries an edge.
func Canny(src *image.Gray, low, high float64) *image.Gray {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	result := image.NewGray(image.Rect(0, 0, width, height))
	if width < 3 || height < 3 {
		return result
	}

	at := func(x, y int) int {
		return int(src.Pix[clamp(y, 0, height-1)*src.Stride+clamp(x, 0, width-1)])
	}

	magnitude := make([]float64, width*height)
	direction := make([]uint8, width*height)
	background := backgroundLevel(src)

	parallel.Line(height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < width; x++ {
				gx := -at(x-1, y-1) + at(x+1, y-1) +
					-2*at(x-1, y) + 2*at(x+1, y) +
					-at(x-1, y+1) + at(x+1, y+1)
				gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
					at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)

				i := y*width + x
				magnitude[i] = float64(abs(gx) + abs(gy))
				direction[i] = quantizeDirection(gx, gy)
			}
		}
	})

	// Offsets of the two neighbours along each quantized gradient direction.
	// Y grows downward, so a gradient at +45° points to (x+1, y+1).
	neighbours := [4][2]image.Point{
		{{-1, 0}, {1, 0}},
		{{-1, -1}, {1, 1}},
		{{0, -1}, {0, 1}},
		{{1, -1}, {-1, 1}},
	}

	suppressed := make([]float64, width*height)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			mag := magnitude[i]
			if mag <= low {
				continue
			}

			keep := true
			for _, off := range neighbours[direction[i]] {
				j := (y+off.Y)*width + x + off.X
				if magnitude[j] > mag {
					keep = false
					break
				}
				if magnitude[j] == mag && winsTie(src, width, background, j, i) {
					keep = false
					break
				}
			}
			if keep {
				suppressed[i] = mag
			}
		}
	}

	// Hysteresis: grow edges from strong pixels through weak ones.
	stack := make([]int, 0, 1024)
	for i, mag := range suppressed {
		if mag > high {
			result.Pix[i/width*result.Stride+i%width] = 255
			stack = append(stack, i)
		}
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%width, i/width
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || nx >= width || ny < 0 || ny >= height {
					continue
				}
				j := ny*width + nx
				if suppressed[j] > low && result.Pix[ny*result.Stride+nx] == 0 {
					result.Pix[ny*result.Stride+nx] = 255
					stack = append(stack, j)
				}
			}
		}
	}

	return result
}

// quantizeDirection maps a gradient to one of four bins:
// 0 horizontal, 1 diagonal (+45°), 2 vertical, 3 anti-diagonal (135°).
func quantizeDirection(gx, gy int) uint8 {
	angle := math.Atan2(float64(gy), float64(gx))
	if angle < 0 {
		angle += math.Pi
	}
	switch {
	case angle < math.Pi/8 || angle >= 7*math.Pi/8:
		return 0
	case angle < 3*math.Pi/8:
		return 1
	case angle < 5*math.Pi/8:
		return 2
	default:
		return 3
	}
}

// backgroundLevel returns the median intensity of the image frame.
func backgroundLevel(src *image.Gray) int {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	var hist [256]int
	count := 0
	add := func(x, y int) {
		hist[src.Pix[y*src.Stride+x]]++
		count++
	}
	for x := 0; x < width; x++ {
		add(x, 0)
		if height > 1 {
			add(x, height-1)
		}
	}
	for y := 1; y < height-1; y++ {
		add(0, y)
		if width > 1 {
			add(width-1, y)
		}
	}

	seen := 0
	for v, n := range hist {
		seen += n
		if 2*seen >= count {
			return v
		}
	}
	return 0
}

// winsTie reports whether pixel j wins a magnitude tie against pixel i: the
// intensity farther from background wins, and on equal distance the earlier
// raster index wins.
func winsTie(src *image.Gray, width, background, j, i int) bool {
	dj := abs(int(src.Pix[j/width*src.Stride+j%width]) - background)
	di := abs(int(src.Pix[i/width*src.Stride+i%width]) - background)
	if dj != di {
		return dj > di
	}
	return j < i
}

// EdgeDetectResult contains an edge map encoded as base64 PNG.
//
// The image is grayscale with edges marked in white (255) on black.
type EdgeDetectResult struct {
	// Width of the output image in pixels (same as input).
	Width int `json:"width"`

	// Height of the output image in pixels (same as input).
	Height int `json:"height"`

	// EdgePixels is the number of pixels marked as edges.
	EdgePixels int `json:"edge_pixels"`

	// ImageBase64 is the edge map encoded as base64 PNG.
	ImageBase64 string `json:"image_base64"`

	// MimeType is always "image/png".
	MimeType string `json:"mime_type"`
}

// EdgeDetect validates opts, runs Preprocess and returns the edge map as
// base64 PNG.
func EdgeDetect(img image.Image, opts EdgeOptions) (*EdgeDetectResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	edges := Preprocess(img, opts)

	count := 0
	for _, v := range edges.Pix {
		if v != 0 {
			count++
		}
	}

	encoded, err := EncodePNGBase64(edges)
	if err != nil {
		return nil, fmt.Errorf("failed to encode edge image: %w", err)
	}

	return &EdgeDetectResult{
		Width:       edges.Bounds().Dx(),
		Height:      edges.Bounds().Dy(),
		EdgePixels:  count,
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

// EncodePNGBase64 encodes img as PNG and returns it base64-encoded.
func EncodePNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
