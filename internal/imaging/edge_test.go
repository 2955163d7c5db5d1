package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"
)

// createEdgeTestImage draws a black square of side size/2 centered on a
// white background.
func createEdgeTestImage(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	lo, hi := size/4, size/4+size/2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if x >= lo && x < hi && y >= lo && y < hi {
				img.Set(x, y, color.Black)
			} else {
				img.Set(x, y, color.White)
			}
		}
	}
	return img
}

func uniformGray(width, height int, v uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, width, height))
	for i := range g.Pix {
		g.Pix[i] = v
	}
	return g
}

func TestGrayscale(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 1))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	img.Set(1, 0, color.RGBA{0, 255, 0, 255})
	img.Set(2, 0, color.RGBA{0, 0, 255, 255})
	img.Set(3, 0, color.White)

	gray := Grayscale(img)

	// BT.601: 0.299, 0.587, 0.114
	want := []int{76, 150, 29, 255}
	for x, w := range want {
		got := int(gray.GrayAt(x, 0).Y)
		if got < w-1 || got > w+1 {
			t.Errorf("pixel %d: got %d, want %d±1", x, got, w)
		}
	}
}

func TestGrayscale_OffsetBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(10, 20, 30, 50))
	gray := Grayscale(img)
	if gray.Bounds() != image.Rect(0, 0, 20, 30) {
		t.Errorf("bounds: got %v, want (0,0)-(20,30)", gray.Bounds())
	}
}

func TestGaussianBlur_Uniform(t *testing.T) {
	src := uniformGray(20, 20, 100)
	dst := GaussianBlur(src, 5)
	for i, v := range dst.Pix {
		if v != 100 {
			t.Fatalf("pixel %d: got %d, want 100", i, v)
		}
	}
}

func TestGaussianBlur_SmallKernelCopies(t *testing.T) {
	src := uniformGray(5, 5, 0)
	src.Pix[12] = 255
	dst := GaussianBlur(src, 1)
	if !bytes.Equal(src.Pix, dst.Pix) {
		t.Error("ksize < 3 should copy the image unchanged")
	}
	if &src.Pix[0] == &dst.Pix[0] {
		t.Error("result must not alias the source")
	}
}

func TestGaussianBlur_Spreads(t *testing.T) {
	src := uniformGray(11, 11, 0)
	src.SetGray(5, 5, color.Gray{Y: 255})

	dst := GaussianBlur(src, 5)

	center := dst.GrayAt(5, 5).Y
	if center == 0 || center == 255 {
		t.Errorf("center: got %d, want a value strictly between 0 and 255", center)
	}
	if dst.GrayAt(6, 5).Y == 0 || dst.GrayAt(6, 5).Y > center {
		t.Errorf("neighbor should be lit and dimmer than center: %d vs %d", dst.GrayAt(6, 5).Y, center)
	}
	if dst.GrayAt(0, 0).Y != 0 {
		t.Errorf("far corner: got %d, want 0", dst.GrayAt(0, 0).Y)
	}
	// Symmetric kernel.
	if dst.GrayAt(4, 5).Y != dst.GrayAt(6, 5).Y || dst.GrayAt(5, 4).Y != dst.GrayAt(5, 6).Y {
		t.Error("blur is not symmetric")
	}
}

func TestCanny_Uniform(t *testing.T) {
	edges := Canny(uniformGray(30, 30, 128), 50, 150)
	for i, v := range edges.Pix {
		if v != 0 {
			t.Fatalf("pixel %d: uniform image should have no edges", i)
		}
	}
}

func TestCanny_TinyImage(t *testing.T) {
	edges := Canny(uniformGray(2, 2, 0), 50, 150)
	if edges.Bounds() != image.Rect(0, 0, 2, 2) {
		t.Errorf("bounds: got %v", edges.Bounds())
	}
}

func TestPreprocess_Square(t *testing.T) {
	img := createEdgeTestImage(100)
	edges := Preprocess(img, DefaultEdgeOptions())

	if edges.Bounds() != image.Rect(0, 0, 100, 100) {
		t.Fatalf("bounds: got %v", edges.Bounds())
	}

	for x := 0; x < 100; x++ {
		if edges.GrayAt(x, 0).Y != 0 || edges.GrayAt(x, 99).Y != 0 {
			t.Fatalf("image border must not carry edges (x=%d)", x)
		}
	}
	if edges.GrayAt(50, 50).Y != 0 {
		t.Error("square interior should not be an edge")
	}
	if edges.GrayAt(10, 10).Y != 0 {
		t.Error("background should not be an edge")
	}

	// The left side of the square sits at x=25.
	found := false
	for x := 21; x <= 29; x++ {
		if edges.GrayAt(x, 50).Y == 255 {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected an edge near the left side of the square")
	}
}

// edgeBounds returns the bounding box of all edge pixels.
func edgeBounds(edges *image.Gray) image.Rectangle {
	var r image.Rectangle
	for y := 0; y < edges.Bounds().Dy(); y++ {
		for x := 0; x < edges.Bounds().Dx(); x++ {
			if edges.GrayAt(x, y).Y != 0 {
				r = r.Union(image.Rect(x, y, x+1, y+1))
			}
		}
	}
	return r
}

func TestPreprocess_SquareBothPolarities(t *testing.T) {
	tests := []struct {
		name       string
		background uint8
		square     uint8
	}{
		{"dark on light", 255, 0},
		{"light on dark", 0, 255},
		{"light on mid gray", 90, 230},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewGray(image.Rect(0, 0, 100, 100))
			for y := 0; y < 100; y++ {
				for x := 0; x < 100; x++ {
					v := tt.background
					if x >= 25 && x < 75 && y >= 25 && y < 75 {
						v = tt.square
					}
					img.SetGray(x, y, color.Gray{Y: v})
				}
			}

			got := edgeBounds(Preprocess(img, DefaultEdgeOptions()))
			// The edge span matches the 50 pixel square exactly.
			if want := image.Rect(25, 25, 75, 75); got != want {
				t.Errorf("edge bounds = %v, want %v", got, want)
			}
		})
	}
}

func TestBackgroundLevel(t *testing.T) {
	img := uniformGray(10, 10, 200)
	for y := 3; y < 7; y++ {
		for x := 3; x < 7; x++ {
			img.SetGray(x, y, color.Gray{Y: 10})
		}
	}
	// A few odd frame pixels do not move the median.
	img.SetGray(0, 0, color.Gray{Y: 0})
	img.SetGray(9, 9, color.Gray{Y: 0})

	if got := backgroundLevel(img); got != 200 {
		t.Errorf("backgroundLevel = %d, want 200", got)
	}
}

func TestCanny_L1Magnitude(t *testing.T) {
	// A diagonal step of 30 gives Sobel Gx = Gy = 90: L1 180, L2 127.
	diagonal := image.NewGray(image.Rect(0, 0, 40, 40))
	// A vertical step of 30 gives Gx = 120 under either norm.
	vertical := image.NewGray(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			if x+y >= 40 {
				diagonal.SetGray(x, y, color.Gray{Y: 30})
			}
			if x >= 20 {
				vertical.SetGray(x, y, color.Gray{Y: 30})
			}
		}
	}

	if edgeBounds(Canny(diagonal, 100, 150)).Empty() {
		t.Error("diagonal step above the high threshold in L1 should produce edges")
	}
	if !edgeBounds(Canny(vertical, 100, 150)).Empty() {
		t.Error("vertical step below the high threshold should produce no edges")
	}
}

func TestEdgeOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*EdgeOptions)
		wantErr bool
	}{
		{"defaults", func(o *EdgeOptions) {}, false},
		{"no smoothing", func(o *EdgeOptions) { o.KernelSize = 0 }, false},
		{"largest kernel", func(o *EdgeOptions) { o.KernelSize = MaxKernelSize }, false},
		{"kernel too large", func(o *EdgeOptions) { o.KernelSize = MaxKernelSize + 2 }, true},
		{"huge kernel", func(o *EdgeOptions) { o.KernelSize = 2000001 }, true},
		{"even kernel", func(o *EdgeOptions) { o.KernelSize = 4 }, true},
		{"negative kernel", func(o *EdgeOptions) { o.KernelSize = -3 }, true},
		{"negative low", func(o *EdgeOptions) { o.LowThreshold = -1 }, true},
		{"negative high", func(o *EdgeOptions) { o.HighThreshold = -1 }, true},
		{"inverted thresholds", func(o *EdgeOptions) { o.LowThreshold, o.HighThreshold = 200, 100 }, true},
		{"NaN threshold", func(o *EdgeOptions) { o.HighThreshold = math.NaN() }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultEdgeOptions()
			tt.mutate(&opts)
			err := opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidEdgeOptions) {
				t.Errorf("error %v does not wrap ErrInvalidEdgeOptions", err)
			}
		})
	}
}

func TestEdgeDetect_RejectsInvalidOptions(t *testing.T) {
	opts := DefaultEdgeOptions()
	opts.KernelSize = 2000001
	if _, err := EdgeDetect(createEdgeTestImage(20), opts); !errors.Is(err, ErrInvalidEdgeOptions) {
		t.Errorf("EdgeDetect error = %v, want ErrInvalidEdgeOptions", err)
	}
}

func TestEdgeDetect(t *testing.T) {
	img := createEdgeTestImage(100)

	result, err := EdgeDetect(img, DefaultEdgeOptions())
	if err != nil {
		t.Fatalf("EdgeDetect failed: %v", err)
	}

	if result.Width != 100 || result.Height != 100 {
		t.Errorf("dimensions: got %dx%d, want 100x100", result.Width, result.Height)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", result.MimeType)
	}
	if result.EdgePixels == 0 {
		t.Error("expected edge pixels")
	}

	decoded, err := base64.StdEncoding.DecodeString(result.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	edgeImg, err := png.Decode(bytes.NewReader(decoded))
	if err != nil {
		t.Fatalf("failed to decode PNG: %v", err)
	}
	if edgeImg.Bounds().Dx() != 100 || edgeImg.Bounds().Dy() != 100 {
		t.Errorf("decoded image dimensions: got %v", edgeImg.Bounds())
	}
}

func TestEdgeDetect_HigherThresholdsFindFewerEdges(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 60, 60))
	for y := 0; y < 60; y++ {
		for x := 0; x < 60; x++ {
			// Two steps of different contrast.
			v := uint8(200)
			if x >= 20 {
				v = 140
			}
			if x >= 40 {
				v = 0
			}
			img.Set(x, y, color.Gray{Y: v})
		}
	}

	low := DefaultEdgeOptions()
	low.LowThreshold, low.HighThreshold = 20, 40
	high := DefaultEdgeOptions()
	high.LowThreshold, high.HighThreshold = 200, 400

	a, err := EdgeDetect(img, low)
	if err != nil {
		t.Fatal(err)
	}
	b, err := EdgeDetect(img, high)
	if err != nil {
		t.Fatal(err)
	}
	if b.EdgePixels >= a.EdgePixels {
		t.Errorf("edge pixels: thresholds 200/400 gave %d, 20/40 gave %d", b.EdgePixels, a.EdgePixels)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct{ v, lo, hi, want int }{
		{-1, 0, 10, 0},
		{5, 0, 10, 5},
		{11, 0, 10, 10},
	}
	for _, tt := range tests {
		if got := clamp(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("clamp(%d, %d, %d) = %d, want %d", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}
