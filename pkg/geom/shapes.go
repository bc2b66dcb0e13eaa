package geom

import "math"

// Polygon is a closed outline. The last point connects back to the first.
type Polygon struct {
	Points []Point `json:"points"`
}

// BBox returns the bounding box of the outline.
func (p Polygon) BBox() Box { return BoxOf(p.Points...) }

// Transformed returns a copy of p mapped through t.
func (p Polygon) Transformed(t Trans) Polygon {
	out := make([]Point, len(p.Points))
	for i, q := range p.Points {
		out[i] = t.Apply(q)
	}
	return Polygon{Points: out}
}

// Area returns the unsigned area in dbu².
func (p Polygon) Area() float64 {
	var a float64
	n := len(p.Points)
	for i := range p.Points {
		j := (i + 1) % n
		a += float64(p.Points[i].X)*float64(p.Points[j].Y) - float64(p.Points[j].X)*float64(p.Points[i].Y)
	}
	return math.Abs(a) / 2
}

// BoxPolygon returns the four-corner polygon of b.
func BoxPolygon(b Box) Polygon { return Polygon{Points: b.Corners()} }

// Path is an open spine drawn with a constant width.
type Path struct {
	Points []Point `json:"points"`
	Width  int64   `json:"width"`
}

// BBox returns the spine's bounding box grown by half the width.
func (p Path) BBox() Box { return BoxOf(p.Points...).Enlarge(p.Width / 2) }

// Length returns the spine length in dbu.
func (p Path) Length() float64 {
	var l float64
	for i := 1; i < len(p.Points); i++ {
		l += p.Points[i-1].Distance(p.Points[i])
	}
	return l
}

// Transformed returns a copy of p mapped through t.
func (p Path) Transformed(t Trans) Path {
	out := make([]Point, len(p.Points))
	for i, q := range p.Points {
		out[i] = t.Apply(q)
	}
	return Path{Points: out, Width: p.Width}
}

// Text is an annotation placed by a transformation.
type Text struct {
	String string `json:"string"`
	Trans  Trans  `json:"trans"`
	Size   int64  `json:"size"` // glyph height in dbu, 0 for default
}

// Position returns the anchor point of the text.
func (t Text) Position() Point { return t.Trans.Disp }

// Transformed returns a copy of the text mapped through tr.
func (t Text) Transformed(tr Trans) Text {
	return Text{String: t.String, Trans: tr.Compose(t.Trans), Size: t.Size}
}
