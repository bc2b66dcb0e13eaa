package geom

import (
	"fmt"
	"math"
)

// Point is a location in database units.
type Point struct {
	X int64 `json:"x"`
	Y int64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y int64) Point { return Point{X: x, Y: y} }

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Neg returns -p.
func (p Point) Neg() Point { return Point{X: -p.X, Y: -p.Y} }

// Scale multiplies both coordinates by f.
func (p Point) Scale(f int64) Point { return Point{X: p.X * f, Y: p.Y * f} }

// Dot returns the scalar product of p and q.
func (p Point) Dot(q Point) int64 { return p.X*q.X + p.Y*q.Y }

// Distance returns the Euclidean distance to q.
func (p Point) Distance(q Point) float64 {
	dx := float64(p.X - q.X)
	dy := float64(p.Y - q.Y)
	return math.Hypot(dx, dy)
}

// String formats the point as "x,y".
func (p Point) String() string { return fmt.Sprintf("%d,%d", p.X, p.Y) }

// Direction returns the unit vector for an orthogonal angle in degrees.
// Angles are normalised to 0, 90, 180 or 270; other values panic.
func Direction(deg int) Point {
	switch NormAngle(deg) {
	case 0:
		return Point{X: 1}
	case 90:
		return Point{Y: 1}
	case 180:
		return Point{X: -1}
	case 270:
		return Point{Y: -1}
	}
	panic(fmt.Sprintf("geom: non-orthogonal direction %d", deg))
}

// AngleOf returns the orthogonal angle of an axis-aligned, non-zero vector.
// The second result is false for diagonal or zero vectors.
func AngleOf(v Point) (int, bool) {
	switch {
	case v.X > 0 && v.Y == 0:
		return 0, true
	case v.X == 0 && v.Y > 0:
		return 90, true
	case v.X < 0 && v.Y == 0:
		return 180, true
	case v.X == 0 && v.Y < 0:
		return 270, true
	}
	return 0, false
}

// NormAngle maps an angle in degrees into [0, 360).
func NormAngle(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg
}
