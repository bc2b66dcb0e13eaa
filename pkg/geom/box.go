package geom

import (
	"fmt"
	"math"
)

// Box is an axis-aligned rectangle. A box with Left > Right is empty.
type Box struct {
	Left   int64 `json:"left"`
	Bottom int64 `json:"bottom"`
	Right  int64 `json:"right"`
	Top    int64 `json:"top"`
}

// EmptyBox returns a box that acts as the identity for Union.
func EmptyBox() Box {
	return Box{Left: math.MaxInt64, Bottom: math.MaxInt64, Right: math.MinInt64, Top: math.MinInt64}
}

// NewBox returns the box spanned by two corners in any order.
func NewBox(x1, y1, x2, y2 int64) Box {
	return Box{Left: min(x1, x2), Bottom: min(y1, y2), Right: max(x1, x2), Top: max(y1, y2)}
}

// BoxOf returns the bounding box of points.
func BoxOf(pts ...Point) Box {
	b := EmptyBox()
	for _, p := range pts {
		b = b.AddPoint(p)
	}
	return b
}

// IsEmpty reports whether the box contains no points.
func (b Box) IsEmpty() bool { return b.Left > b.Right || b.Bottom > b.Top }

// Width returns the horizontal extent, 0 for empty boxes.
func (b Box) Width() int64 {
	if b.IsEmpty() {
		return 0
	}
	return b.Right - b.Left
}

// Height returns the vertical extent, 0 for empty boxes.
func (b Box) Height() int64 {
	if b.IsEmpty() {
		return 0
	}
	return b.Top - b.Bottom
}

// Center returns the centre point (rounded towards negative infinity).
func (b Box) Center() Point {
	return Point{X: floorDiv(b.Left+b.Right, 2), Y: floorDiv(b.Bottom+b.Top, 2)}
}

// AddPoint extends the box to include p.
func (b Box) AddPoint(p Point) Box {
	return Box{Left: min(b.Left, p.X), Bottom: min(b.Bottom, p.Y), Right: max(b.Right, p.X), Top: max(b.Top, p.Y)}
}

// Union returns the smallest box containing both boxes.
func (b Box) Union(o Box) Box {
	if b.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return b
	}
	return Box{Left: min(b.Left, o.Left), Bottom: min(b.Bottom, o.Bottom), Right: max(b.Right, o.Right), Top: max(b.Top, o.Top)}
}

// Intersection returns the common area of two boxes, which may be empty.
func (b Box) Intersection(o Box) Box {
	r := Box{Left: max(b.Left, o.Left), Bottom: max(b.Bottom, o.Bottom), Right: min(b.Right, o.Right), Top: min(b.Top, o.Top)}
	if r.IsEmpty() {
		return EmptyBox()
	}
	return r
}

// Overlaps reports whether the interiors of two boxes intersect.
// Boxes that only touch along an edge do not overlap.
func (b Box) Overlaps(o Box) bool {
	if b.IsEmpty() || o.IsEmpty() {
		return false
	}
	return b.Left < o.Right && o.Left < b.Right && b.Bottom < o.Top && o.Bottom < b.Top
}

// Contains reports whether p lies inside or on the boundary of b.
func (b Box) Contains(p Point) bool {
	return p.X >= b.Left && p.X <= b.Right && p.Y >= b.Bottom && p.Y <= b.Top
}

// ContainsBox reports whether o lies entirely inside b.
func (b Box) ContainsBox(o Box) bool {
	if o.IsEmpty() {
		return true
	}
	return b.Contains(Point{X: o.Left, Y: o.Bottom}) && b.Contains(Point{X: o.Right, Y: o.Top})
}

// Enlarge grows the box by d on every side.
func (b Box) Enlarge(d int64) Box {
	if b.IsEmpty() {
		return b
	}
	return Box{Left: b.Left - d, Bottom: b.Bottom - d, Right: b.Right + d, Top: b.Top + d}
}

// Corners returns the four corners counter-clockwise from bottom-left.
func (b Box) Corners() []Point {
	return []Point{{b.Left, b.Bottom}, {b.Right, b.Bottom}, {b.Right, b.Top}, {b.Left, b.Top}}
}

// String formats the box the way layout report databases do.
func (b Box) String() string {
	if b.IsEmpty() {
		return "()"
	}
	return fmt.Sprintf("(%d,%d;%d,%d)", b.Left, b.Bottom, b.Right, b.Top)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
