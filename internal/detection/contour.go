package detection

import (
	"image"
	"math"
	"sort"
)

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Rect is an axis-aligned bounding box.
//
// Width and Height count pixels inclusively, so a contour whose points span
// x = 10..59 has Width 50.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rectangle converts r to an image.Rectangle with an exclusive Max.
func (r Rect) Rectangle() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Contour is a closed outer boundary found in an edge map.
type Contour struct {
	// Points is the ordered border, closed implicitly from the last point back
	// to the first. Straight runs are compressed to their end points.
	Points []Point `json:"points"`

	// Bounds is the smallest axis-aligned rectangle containing every point.
	Bounds Rect `json:"bounds"`

	// Area is the polygon area enclosed by Points (shoelace formula over
	// pixel centers), in square pixels.
	Area float64 `json:"area"`
}

// NewContour builds a Contour from an ordered border and fills in its
// derived attributes.
func NewContour(points []Point) Contour {
	return Contour{
		Points: points,
		Bounds: boundingRect(points),
		Area:   polygonArea(points),
	}
}

// AspectRatio returns Bounds.Width / Bounds.Height, or +Inf for a zero
// height.
func (c Contour) AspectRatio() float64 {
	if c.Bounds.Height == 0 {
		return math.Inf(1)
	}
	return float64(c.Bounds.Width) / float64(c.Bounds.Height)
}

// ImagePoints returns the border as image.Points, for drawing.
func (c Contour) ImagePoints() []image.Point {
	pts := make([]image.Point, len(c.Points))
	for i, p := range c.Points {
		pts[i] = image.Pt(p.X, p.Y)
	}
	return pts
}

// first returns the topmost point of the contour, leftmost among ties.
func (c Contour) first() Point {
	best := c.Points[0]
	for _, p := range c.Points[1:] {
		if p.Y < best.Y || (p.Y == best.Y && p.X < best.X) {
			best = p
		}
	}
	return best
}

// SortRaster orders contours by their first pixel in raster order: top to
// bottom, then left to right. Contours without points sort last.
func SortRaster(contours []Contour) {
	sort.SliceStable(contours, func(i, j int) bool {
		a, b := contours[i], contours[j]
		if len(a.Points) == 0 || len(b.Points) == 0 {
			return len(b.Points) == 0 && len(a.Points) != 0
		}
		pa, pb := a.first(), b.first()
		if pa.Y != pb.Y {
			return pa.Y < pb.Y
		}
		return pa.X < pb.X
	})
}

func boundingRect(points []Point) Rect {
	if len(points) == 0 {
		return Rect{}
	}

	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	return Rect{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX + 1,
		Height: maxY - minY + 1,
	}
}

// polygonArea is the absolute shoelace area of a closed polygon.
func polygonArea(points []Point) float64 {
	if len(points) < 3 {
		return 0
	}

	var sum int
	for i := range points {
		p := points[i]
		q := points[(i+1)%len(points)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(float64(sum)) / 2
}
