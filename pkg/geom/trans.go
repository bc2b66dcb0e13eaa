package geom

import "fmt"

// Orientation is one of the eight orthogonal orientations.
type Orientation int

// Orientation codes. Mirrored codes flip at the x-axis before rotating.
const (
	R0 Orientation = iota
	R90
	R180
	R270
	M0
	M45
	M90
	M135
)

var orientationNames = [...]string{"r0", "r90", "r180", "r270", "m0", "m45", "m90", "m135"}

// String returns the lower-case orientation name, e.g. "r90".
func (o Orientation) String() string {
	if o < R0 || o > M135 {
		return fmt.Sprintf("orientation(%d)", int(o))
	}
	return orientationNames[o]
}

// Trans is an orthogonal transformation followed by a displacement.
type Trans struct {
	Rot    int   `json:"rot"`    // quarter turns counter-clockwise, 0..3
	Mirror bool  `json:"mirror"` // flip at the x-axis before rotating
	Disp   Point `json:"disp"`
}

// NewTrans builds a transformation from an orientation and displacement.
func NewTrans(o Orientation, dx, dy int64) Trans {
	return Trans{Rot: int(o) % 4, Mirror: o >= M0, Disp: Point{X: dx, Y: dy}}
}

// Translate returns a pure displacement.
func Translate(dx, dy int64) Trans { return Trans{Disp: Point{X: dx, Y: dy}} }

// Orientation returns the orientation code of t.
func (t Trans) Orientation() Orientation {
	o := Orientation(t.Rot & 3)
	if t.Mirror {
		o += M0
	}
	return o
}

// Angle returns the rotation in degrees.
func (t Trans) Angle() int { return (t.Rot & 3) * 90 }

// IsUnity reports whether t is the identity.
func (t Trans) IsUnity() bool { return t.Rot&3 == 0 && !t.Mirror && t.Disp == (Point{}) }

// ApplyVector applies the linear part of t to v, ignoring the displacement.
func (t Trans) ApplyVector(v Point) Point {
	if t.Mirror {
		v.Y = -v.Y
	}
	switch t.Rot & 3 {
	case 1:
		v = Point{X: -v.Y, Y: v.X}
	case 2:
		v = Point{X: -v.X, Y: -v.Y}
	case 3:
		v = Point{X: v.Y, Y: -v.X}
	}
	return v
}

// Apply transforms a point.
func (t Trans) Apply(p Point) Point { return t.ApplyVector(p).Add(t.Disp) }

// ApplyBox transforms a box; the result is again axis-aligned.
func (t Trans) ApplyBox(b Box) Box {
	if b.IsEmpty() {
		return b
	}
	return BoxOf(t.Apply(Point{b.Left, b.Bottom}), t.Apply(Point{b.Right, b.Top}))
}

// ApplyAngle maps a direction in degrees through the linear part of t.
func (t Trans) ApplyAngle(deg int) int {
	if t.Mirror {
		deg = -deg
	}
	return NormAngle(deg + t.Angle())
}

// Compose returns the transformation that applies u first and then t.
func (t Trans) Compose(u Trans) Trans {
	rot := t.Rot + u.Rot
	if t.Mirror {
		rot = t.Rot - u.Rot
	}
	return Trans{
		Rot:    ((rot % 4) + 4) % 4,
		Mirror: t.Mirror != u.Mirror,
		Disp:   t.Apply(u.Disp),
	}
}

// Invert returns the inverse transformation.
func (t Trans) Invert() Trans {
	inv := Trans{Mirror: t.Mirror, Rot: t.Rot & 3}
	if !t.Mirror {
		inv.Rot = (4 - t.Rot&3) & 3
	}
	inv.Disp = inv.ApplyVector(t.Disp).Neg()
	return inv
}

// String formats t like "r90 60000,16000".
func (t Trans) String() string {
	return fmt.Sprintf("%s %s", t.Orientation(), t.Disp)
}
