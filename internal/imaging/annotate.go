package imaging

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/clone"
	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Outline is a shape to draw on top of an image.
type Outline struct {
	// Points is a closed polygon. May be empty.
	Points []image.Point

	// Box, when not empty, is drawn as an axis-aligned rectangle.
	// Max is exclusive, like image.Rectangle everywhere else.
	Box image.Rectangle

	// Color of the strokes. Defaults to opaque red.
	Color color.Color

	// Thickness in pixels. Values below 1 are treated as 1.
	Thickness int
}

// Palette returns n visually distinct colors, evenly spaced in hue.
func Palette(n int) []color.Color {
	colors := make([]color.Color, n)
	for i := range colors {
		hue := float64(i) * 360 / float64(max(n, 1))
		colors[i] = colorful.Hsv(hue, 0.85, 0.95).Clamped()
	}
	return colors
}

// Annotate returns a copy of img with the outlines drawn over it.
// The source image is not modified.
func Annotate(img image.Image, outlines []Outline) *image.RGBA {
	canvas := clone.AsRGBA(imaging.Clone(img))

	for _, o := range outlines {
		c := o.Color
		if c == nil {
			c = color.RGBA{255, 0, 0, 255}
		}
		thickness := max(o.Thickness, 1)

		for i := range o.Points {
			p := o.Points[i]
			q := o.Points[(i+1)%len(o.Points)]
			drawLine(canvas, p, q, c, thickness)
		}

		if !o.Box.Empty() {
			r := o.Box
			corners := []image.Point{
				{r.Min.X, r.Min.Y},
				{r.Max.X - 1, r.Min.Y},
				{r.Max.X - 1, r.Max.Y - 1},
				{r.Min.X, r.Max.Y - 1},
			}
			for i := range corners {
				drawLine(canvas, corners[i], corners[(i+1)%4], c, thickness)
			}
		}
	}

	return canvas
}

// drawLine draws a segment with Bresenham's algorithm, stamping a square pen
// of the given thickness at every step.
func drawLine(dst *image.RGBA, p, q image.Point, c color.Color, thickness int) {
	dx := abs(q.X - p.X)
	dy := -abs(q.Y - p.Y)
	sx, sy := 1, 1
	if p.X > q.X {
		sx = -1
	}
	if p.Y > q.Y {
		sy = -1
	}
	e := dx + dy
	x, y := p.X, p.Y
	half := thickness / 2

	for {
		for ty := -half; ty < thickness-half; ty++ {
			for tx := -half; tx < thickness-half; tx++ {
				pt := image.Pt(x+tx, y+ty)
				if pt.In(dst.Bounds()) {
					dst.Set(pt.X, pt.Y, c)
				}
			}
		}
		if x == q.X && y == q.Y {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
