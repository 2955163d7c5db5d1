package detection

import (
	"fmt"
	"image"
	"strings"

	"github.com/ironsheep/box-measure/internal/imaging"
)

// Backend names accepted by NewExtractor.
const (
	BackendNative = "native"
	BackendOpenCV = "opencv"
)

// Extractor finds the external contours of a color image.
//
// Implementations must return contours in raster order of their first pixel:
// top to bottom, then left to right. Marker selection picks the first match
// in that order, so every backend has to agree on it.
type Extractor interface {
	Contours(img image.Image) ([]Contour, error)
}

// NewExtractor returns the extractor for the named backend. An empty name
// selects the native backend.
func NewExtractor(backend string) (Extractor, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendNative:
		return NewNativeExtractor(), nil
	case BackendOpenCV:
		ext, err := NewOpenCVExtractor()
		if err != nil {
			return nil, err
		}
		return ext, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// NativeExtractor runs the pure Go preprocessing and border following.
type NativeExtractor struct {
	Options imaging.EdgeOptions
}

// NewNativeExtractor returns a NativeExtractor with the default edge
// settings (5x5 Gaussian, Canny 50/150, gap closing).
func NewNativeExtractor() *NativeExtractor {
	return &NativeExtractor{Options: imaging.DefaultEdgeOptions()}
}

// Contours preprocesses img and returns its external contours.
// It returns ErrNoContour when the edge map is empty.
func (e *NativeExtractor) Contours(img image.Image) ([]Contour, error) {
	edges := imaging.Preprocess(img, e.Options)
	contours := FindExternalContours(edges)
	if len(contours) == 0 {
		return nil, ErrNoContour
	}
	return contours, nil
}

// FindExternalContours returns the outer borders of the edge components that
// are not enclosed by another component.
//
// # Algorithm
//
//  1. Outer background: non-edge pixels 4-connected to the image frame
//  2. Components: edge pixels grouped with 8-connectivity, visited in raster
//     order
//  3. A component is external when it touches the frame or is 4-adjacent to
//     the outer background. Components sitting inside a hole of another one
//     are skipped, together with everything nested in them
//  4. The outer border of each external component is followed with the
//     Suzuki-Abe algorithm starting at its first raster pixel, then
//     straight runs are compressed to their end points
//
// Any non-zero pixel of edges counts as an edge.
func FindExternalContours(edges *image.Gray) []Contour {
	bounds := edges.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	isEdge := func(x, y int) bool {
		if x < 0 || x >= width || y < 0 || y >= height {
			return false
		}
		return edges.Pix[y*edges.Stride+x] != 0
	}

	outer := markOuterBackground(isEdge, width, height)
	visited := make([]bool, width*height)
	contours := make([]Contour, 0)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !isEdge(x, y) || visited[y*width+x] {
				continue
			}
			if !floodFill(isEdge, visited, outer, x, y, width, height) {
				continue
			}
			border := traceOuterBorder(isEdge, Point{X: x, Y: y})
			contours = append(contours, NewContour(compressBorder(border)))
		}
	}

	return contours
}

// markOuterBackground flags every non-edge pixel reachable from the image
// frame through 4-connected non-edge pixels.
func markOuterBackground(isEdge func(x, y int) bool, width, height int) []bool {
	outer := make([]bool, width*height)
	stack := make([]Point, 0, 2*(width+height))

	push := func(x, y int) {
		if x < 0 || x >= width || y < 0 || y >= height {
			return
		}
		if outer[y*width+x] || isEdge(x, y) {
			return
		}
		outer[y*width+x] = true
		stack = append(stack, Point{X: x, Y: y})
	}

	for x := 0; x < width; x++ {
		push(x, 0)
		push(x, height-1)
	}
	for y := 0; y < height; y++ {
		push(0, y)
		push(width-1, y)
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		push(p.X+1, p.Y)
		push(p.X-1, p.Y)
		push(p.X, p.Y+1)
		push(p.X, p.Y-1)
	}

	return outer
}

// floodFill marks the 8-connected edge component containing (startX, startY)
// as visited and reports whether it is external.
//
// Uses an explicit stack rather than recursion so large components cannot
// overflow the goroutine stack.
func floodFill(isEdge func(x, y int) bool, visited, outer []bool, startX, startY, width, height int) bool {
	external := false
	stack := []Point{{X: startX, Y: startY}}
	visited[startY*width+startX] = true

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !external {
			if p.X == 0 || p.Y == 0 || p.X == width-1 || p.Y == height-1 {
				external = true
			} else if outer[p.Y*width+p.X-1] || outer[p.Y*width+p.X+1] ||
				outer[(p.Y-1)*width+p.X] || outer[(p.Y+1)*width+p.X] {
				external = true
			}
		}

		// 8-connected neighbors
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				nx, ny := p.X+dx, p.Y+dy
				if !isEdge(nx, ny) || visited[ny*width+nx] {
					continue
				}
				visited[ny*width+nx] = true
				stack = append(stack, Point{X: nx, Y: ny})
			}
		}
	}

	return external
}

// neighborhood lists the 8 neighbor offsets clockwise on screen (y down),
// starting east.
var neighborhood = [8]Point{
	{X: 1, Y: 0},
	{X: 1, Y: 1},
	{X: 0, Y: 1},
	{X: -1, Y: 1},
	{X: -1, Y: 0},
	{X: -1, Y: -1},
	{X: 0, Y: -1},
	{X: 1, Y: -1},
}

const west = 4

// directionTo returns the neighborhood index of to as seen from from.
// to must be one of the 8 neighbors of from.
func directionTo(from, to Point) int {
	dx, dy := to.X-from.X, to.Y-from.Y
	for i, d := range neighborhood {
		if d.X == dx && d.Y == dy {
			return i
		}
	}
	return -1
}

// traceOuterBorder follows the outer border of the component whose first
// raster pixel is start. The west neighbor of start is background by
// construction, which makes the traced border the outer one.
func traceOuterBorder(isEdge func(x, y int) bool, start Point) []Point {
	first := -1
	for k := 0; k < 8; k++ {
		d := (west + k) % 8
		if isEdge(start.X+neighborhood[d].X, start.Y+neighborhood[d].Y) {
			first = d
			break
		}
	}
	if first < 0 {
		// Isolated pixel.
		return []Point{start}
	}

	firstStep := Point{X: start.X + neighborhood[first].X, Y: start.Y + neighborhood[first].Y}
	prev, cur := firstStep, start
	border := make([]Point, 0, 64)

	for {
		d := directionTo(cur, prev)
		next := prev
		for k := 1; k <= 8; k++ {
			nd := (d - k + 8) % 8
			cand := Point{X: cur.X + neighborhood[nd].X, Y: cur.Y + neighborhood[nd].Y}
			if isEdge(cand.X, cand.Y) {
				next = cand
				break
			}
		}

		border = append(border, cur)
		if next == start && cur == firstStep {
			break
		}
		prev, cur = cur, next
	}

	return border
}

// compressBorder drops points in the middle of straight horizontal,
// vertical or diagonal runs, keeping only where the direction changes.
func compressBorder(border []Point) []Point {
	n := len(border)
	if n <= 2 {
		return border
	}

	out := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		prev := border[(i-1+n)%n]
		cur := border[i]
		next := border[(i+1)%n]
		inX, inY := cur.X-prev.X, cur.Y-prev.Y
		outX, outY := next.X-cur.X, next.Y-cur.Y
		if inX == outX && inY == outY {
			continue
		}
		out = append(out, cur)
	}
	if len(out) == 0 {
		return border[:1]
	}
	return out
}
