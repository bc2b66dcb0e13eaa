package geom

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
)

// ToPoint converts a micrometre vector to database units.
func ToPoint(v r2.Vec, dbu float64) Point {
	return Point{X: int64(math.Round(v.X / dbu)), Y: int64(math.Round(v.Y / dbu))}
}

// ToPoints converts a micrometre polyline to database units, dropping
// consecutive duplicates produced by rounding.
func ToPoints(vs []r2.Vec, dbu float64) []Point {
	out := make([]Point, 0, len(vs))
	for _, v := range vs {
		p := ToPoint(v, dbu)
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	return out
}

// ToMicrons converts a dbu point to a micrometre vector.
func ToMicrons(p Point, dbu float64) r2.Vec {
	return r2.Vec{X: float64(p.X) * dbu, Y: float64(p.Y) * dbu}
}

// Arc samples n+1 points of a circular arc from angle a0 to a1 (radians).
func Arc(center r2.Vec, radius, a0, a1 float64, n int) []r2.Vec {
	if n < 1 {
		n = 1
	}
	angles := floats.Span(make([]float64, n+1), a0, a1)
	out := make([]r2.Vec, len(angles))
	for i, a := range angles {
		out[i] = r2.Add(center, r2.Vec{X: radius * math.Cos(a), Y: radius * math.Sin(a)})
	}
	return out
}

// Bezier samples n+1 points of a cubic Bézier curve.
func Bezier(p0, p1, p2, p3 r2.Vec, n int) []r2.Vec {
	if n < 1 {
		n = 1
	}
	ts := floats.Span(make([]float64, n+1), 0, 1)
	out := make([]r2.Vec, len(ts))
	for i, t := range ts {
		u := 1 - t
		v := r2.Scale(u*u*u, p0)
		v = r2.Add(v, r2.Scale(3*u*u*t, p1))
		v = r2.Add(v, r2.Scale(3*u*t*t, p2))
		v = r2.Add(v, r2.Scale(t*t*t, p3))
		out[i] = v
	}
	return out
}

// PathPolygon offsets a spine by half of widths[i] on each side and returns
// the closed outline. widths must have one entry per spine point, or a single
// entry for a constant width.
func PathPolygon(spine []r2.Vec, widths []float64) []r2.Vec {
	n := len(spine)
	if n < 2 || len(widths) == 0 {
		return nil
	}
	width := func(i int) float64 {
		if len(widths) == 1 {
			return widths[0]
		}
		return widths[i]
	}
	left := make([]r2.Vec, n)
	right := make([]r2.Vec, n)
	for i := range spine {
		var tangent r2.Vec
		switch {
		case i == 0:
			tangent = r2.Sub(spine[1], spine[0])
		case i == n-1:
			tangent = r2.Sub(spine[n-1], spine[n-2])
		default:
			tangent = r2.Add(r2.Unit(r2.Sub(spine[i], spine[i-1])), r2.Unit(r2.Sub(spine[i+1], spine[i])))
		}
		tangent = r2.Unit(tangent)
		normal := r2.Vec{X: -tangent.Y, Y: tangent.X}
		half := width(i) / 2
		if i > 0 && i < n-1 {
			// keep the edge parallel at mitred joints
			in := r2.Unit(r2.Sub(spine[i], spine[i-1]))
			if c := r2.Dot(normal, r2.Vec{X: -in.Y, Y: in.X}); c > 0.1 {
				half /= c
			}
		}
		left[i] = r2.Add(spine[i], r2.Scale(half, normal))
		right[i] = r2.Sub(spine[i], r2.Scale(half, normal))
	}
	out := make([]r2.Vec, 0, 2*n)
	out = append(out, left...)
	for i := n - 1; i >= 0; i-- {
		out = append(out, right[i])
	}
	return out
}

// PolylineLength returns the length of a micrometre polyline.
func PolylineLength(vs []r2.Vec) float64 {
	var l float64
	for i := 1; i < len(vs); i++ {
		l += r2.Norm(r2.Sub(vs[i], vs[i-1]))
	}
	return l
}
